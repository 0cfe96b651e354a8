package model

import "time"

// Visitor is the game profile attached one-to-one to a User. Points and
// VisitCount only move through the visit tracker; CommentCount moves when
// a comment is submitted.
type Visitor struct {
	ID           uint64    // visitors.id
	UserID       uint64    // visitors.user_id (unique)
	Nickname     string    // visitors.nickname
	AvatarKey    *string   // visitors.avatar_key (nullable)
	Points       int       // visitors.points
	Level        int       // visitors.level
	VisitCount   int       // visitors.visit_count
	CommentCount int       // visitors.comment_count
	CreatedAt    time.Time // visitors.created_at
	UpdatedAt    time.Time // visitors.updated_at
}
