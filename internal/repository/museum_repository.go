package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/qrmuseum/museum-api/internal/model"
)

// museumSlot is the fixed key of the single settings row.
const museumSlot = "default"

// DefaultMuseumName is used when the settings row is first created.
const DefaultMuseumName = "Mi Museo"

// Image slots accepted by SetImage.
const (
	MuseumLogo       = "logo"
	MuseumBackground = "background"
)

// MuseumRepo owns the museum settings singleton.
type MuseumRepo struct {
	db *sql.DB
}

func NewMuseumRepo(db *sql.DB) *MuseumRepo { return &MuseumRepo{db: db} }

// MuseumFields are the admin-editable text settings.
type MuseumFields struct {
	Name        string
	Description string
	Location    string
}

func (r *MuseumRepo) load(ctx context.Context) (*model.MuseumSettings, error) {
	var (
		m          model.MuseumSettings
		logo, back sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id,name,description,location,logo_key,background_key,created_at,updated_at
		 FROM museum_settings WHERE slot=?`, museumSlot).
		Scan(&m.ID, &m.Name, &m.Description, &m.Location, &logo, &back, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.LogoKey = nullString(logo)
	m.BackgroundKey = nullString(back)
	return &m, nil
}

// Current returns the settings row, creating it with defaults on first
// use. Racing creators collapse onto one row via the unique slot index.
func (r *MuseumRepo) Current(ctx context.Context) (*model.MuseumSettings, error) {
	m, err := r.load(ctx)
	if !errors.Is(err, sql.ErrNoRows) {
		return m, err
	}
	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO museum_settings (slot, name, description, location, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		museumSlot, DefaultMuseumName, "", "", now, now)
	if err != nil && !isDuplicate(err) {
		return nil, err
	}
	return r.load(ctx)
}

// Update rewrites the text settings.
func (r *MuseumRepo) Update(ctx context.Context, f MuseumFields) (*model.MuseumSettings, error) {
	if _, err := r.Current(ctx); err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx,
		"UPDATE museum_settings SET name=?, description=?, location=?, updated_at=? WHERE slot=?",
		f.Name, f.Description, f.Location, time.Now().UTC(), museumSlot); err != nil {
		return nil, err
	}
	return r.load(ctx)
}

// SetImage stores the blob key of the logo or background image.
func (r *MuseumRepo) SetImage(ctx context.Context, kind, key string) (*model.MuseumSettings, error) {
	var col string
	switch kind {
	case MuseumLogo:
		col = "logo_key"
	case MuseumBackground:
		col = "background_key"
	default:
		return nil, fmt.Errorf("unknown museum image %q", kind)
	}
	if _, err := r.Current(ctx); err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx,
		"UPDATE museum_settings SET "+col+"=?, updated_at=? WHERE slot=?",
		key, time.Now().UTC(), museumSlot); err != nil {
		return nil, err
	}
	return r.load(ctx)
}
