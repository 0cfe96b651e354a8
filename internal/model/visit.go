package model

import "time"

// VisitRecord marks that a user has scanned an exhibit. There is at most
// one record per (UserID, ExhibitID); repeat scans only move UpdatedAt.
type VisitRecord struct {
	ID           uint64    // visit_records.id
	UserID       uint64    // visit_records.user_id
	ExhibitID    uint64    // visit_records.exhibit_id
	DwellSeconds int       // visit_records.dwell_seconds (not measured yet)
	VisitedAt    time.Time // visit_records.visited_at
	UpdatedAt    time.Time // visit_records.updated_at
}

// VisitedExhibit is a visit joined with the exhibit title, used by the
// progress view.
type VisitedExhibit struct {
	ExhibitID   uint64
	ExhibitUUID string
	Title       string
	VisitedAt   time.Time
}
