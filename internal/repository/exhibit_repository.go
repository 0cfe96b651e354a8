package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/qrmuseum/museum-api/internal/model"
)

// ExhibitRepo encapsulates all database queries related to exhibits.
type ExhibitRepo struct {
	db *sql.DB
}

func NewExhibitRepo(db *sql.DB) *ExhibitRepo { return &ExhibitRepo{db: db} }

// ExhibitFields are the admin-editable columns of an exhibit.
type ExhibitFields struct {
	Title          string
	Description    string
	Location       string
	SequenceNumber int
	IsActive       bool
}

const exhibitColumns = "id,uuid,title,description,location,sequence_number,locator,qr_image_key,is_active,created_at,updated_at"

func scanExhibit(row interface{ Scan(...any) error }) (*model.Exhibit, error) {
	var (
		e  model.Exhibit
		qr sql.NullString
	)
	if err := row.Scan(&e.ID, &e.UUID, &e.Title, &e.Description, &e.Location, &e.SequenceNumber,
		&e.Locator, &qr, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.QRImageKey = nullString(qr)
	return &e, nil
}

// Create inserts a new exhibit. uuid and locator are chosen by the caller
// and are never rewritten afterwards.
func (r *ExhibitRepo) Create(ctx context.Context, uuid, locator string, f ExhibitFields) (*model.Exhibit, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO exhibits (uuid, title, description, location, sequence_number, locator, is_active, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		uuid, f.Title, f.Description, f.Location, f.SequenceNumber, locator, f.IsActive, now, now)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches an exhibit regardless of its active flag.
func (r *ExhibitRepo) GetByID(ctx context.Context, id uint64) (*model.Exhibit, error) {
	e, err := scanExhibit(r.db.QueryRowContext(ctx,
		"SELECT "+exhibitColumns+" FROM exhibits WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExhibitNotFound
	}
	return e, err
}

// GetActiveByUUID resolves a scanned code. Inactive exhibits are reported
// as not found.
func (r *ExhibitRepo) GetActiveByUUID(ctx context.Context, uuid string) (*model.Exhibit, error) {
	e, err := scanExhibit(r.db.QueryRowContext(ctx,
		"SELECT "+exhibitColumns+" FROM exhibits WHERE uuid=? AND is_active=?", uuid, true))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExhibitNotFound
	}
	return e, err
}

// ListPaged returns exhibits ordered by sequence number.
func (r *ExhibitRepo) ListPaged(ctx context.Context, limit, offset int) ([]*model.Exhibit, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+exhibitColumns+" FROM exhibits ORDER BY sequence_number, id LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Exhibit
	for rows.Next() {
		e, err := scanExhibit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update rewrites the editable fields. uuid and locator are left alone.
func (r *ExhibitRepo) Update(ctx context.Context, id uint64, f ExhibitFields) (*model.Exhibit, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE exhibits SET title=?, description=?, location=?, sequence_number=?, is_active=?, updated_at=?
		 WHERE id=?`,
		f.Title, f.Description, f.Location, f.SequenceNumber, f.IsActive, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrExhibitNotFound
	}
	return r.GetByID(ctx, id)
}

// SetQRImageKey records where the rendered QR image lives.
func (r *ExhibitRepo) SetQRImageKey(ctx context.Context, id uint64, key string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE exhibits SET qr_image_key=?, updated_at=? WHERE id=?", key, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExhibitNotFound
	}
	return nil
}

// Delete removes the exhibit with its content, the content's comments and
// all visit records, inside one transaction.
func (r *ExhibitRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	steps := []string{
		"DELETE FROM comments WHERE content_id IN (SELECT id FROM exhibit_contents WHERE exhibit_id=?)",
		"DELETE FROM exhibit_contents WHERE exhibit_id=?",
		"DELETE FROM visit_records WHERE exhibit_id=?",
	}
	for _, q := range steps {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM exhibits WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExhibitNotFound
	}
	return tx.Commit()
}

// Count returns the number of exhibits.
func (r *ExhibitRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exhibits").Scan(&n)
	return n, err
}

// CountActive returns the number of exhibits visitors can scan.
func (r *ExhibitRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exhibits WHERE is_active=?", true).Scan(&n)
	return n, err
}
