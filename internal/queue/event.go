// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import (
	"fmt"
	"strings"
)

// Activity event types.
const (
	EventVisitRecorded    = "visit.recorded"
	EventCommentSubmitted = "comment.submitted"
)

// ActivityEvent is published after a visitor action succeeds. It carries
// enough to log or feed analytics without querying the primary database.
type ActivityEvent struct {
	Type         string `json:"type"`
	UserID       uint64 `json:"user_id"`
	ExhibitID    uint64 `json:"exhibit_id"`
	ExhibitUUID  string `json:"exhibit_uuid"`
	ExhibitTitle string `json:"exhibit_title"`
	FirstVisit   bool   `json:"first_visit,omitempty"`
	Points       int    `json:"points,omitempty"`
	CommentID    uint64 `json:"comment_id,omitempty"`
	Rating       int    `json:"rating,omitempty"`
	OccurredAt   string `json:"occurred_at"`
}

// Line renders the event as one human-friendly log line.
func (ev ActivityEvent) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | user_id=%d | exhibit_id=%d | exhibit=%q",
		ev.OccurredAt, ev.Type, ev.UserID, ev.ExhibitID, ev.ExhibitTitle)
	switch ev.Type {
	case EventVisitRecorded:
		fmt.Fprintf(&b, " | first_visit=%t | points=%d", ev.FirstVisit, ev.Points)
	case EventCommentSubmitted:
		fmt.Fprintf(&b, " | comment_id=%d | rating=%d", ev.CommentID, ev.Rating)
	}
	b.WriteByte('\n')
	return b.String()
}
