package model

import "time"

// MuseumSettings holds the single configuration row for the museum.
type MuseumSettings struct {
	ID            uint64
	Name          string
	Description   string
	Location      string
	LogoKey       *string
	BackgroundKey *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
