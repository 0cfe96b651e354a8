package model

import "time"

// Comment is a visitor review attached to an exhibit's content. New
// comments start unapproved and only approved ones are shown publicly.
type Comment struct {
	ID         uint64    // comments.id
	UserID     uint64    // comments.user_id
	ContentID  uint64    // comments.content_id
	Rating     int       // comments.rating (1..5)
	Body       string    // comments.body
	IsApproved bool      // comments.is_approved
	CreatedAt  time.Time // comments.created_at
	UpdatedAt  time.Time // comments.updated_at

	// Read-only joins filled by listing queries.
	Username     string
	ExhibitTitle string
}
