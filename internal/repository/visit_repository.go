package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/qrmuseum/museum-api/internal/model"
)

// VisitRepo reads and writes visit_records. Writes that belong to the
// scan workflow take an explicit transaction.
type VisitRepo struct {
	db *sql.DB
}

func NewVisitRepo(db *sql.DB) *VisitRepo { return &VisitRepo{db: db} }

const visitColumns = "id,user_id,exhibit_id,dwell_seconds,visited_at,updated_at"

func scanVisit(row interface{ Scan(...any) error }) (model.VisitRecord, error) {
	var v model.VisitRecord
	err := row.Scan(&v.ID, &v.UserID, &v.ExhibitID, &v.DwellSeconds, &v.VisitedAt, &v.UpdatedAt)
	return v, err
}

// InsertTx records the first visit of userID to exhibitID. It returns
// ErrDuplicateVisit when the unique (user_id, exhibit_id) index already
// holds a row; the transaction must then be rolled back.
func (r *VisitRepo) InsertTx(ctx context.Context, tx *sql.Tx, userID, exhibitID uint64) (model.VisitRecord, error) {
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO visit_records (user_id, exhibit_id, dwell_seconds, visited_at, updated_at) VALUES (?,?,0,?,?)",
		userID, exhibitID, now, now)
	if err != nil {
		if isDuplicate(err) {
			return model.VisitRecord{}, ErrDuplicateVisit
		}
		return model.VisitRecord{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.VisitRecord{}, err
	}
	return model.VisitRecord{
		ID:        uint64(id),
		UserID:    userID,
		ExhibitID: exhibitID,
		VisitedAt: now,
		UpdatedAt: now,
	}, nil
}

// Touch bumps updated_at on an existing record and returns it.
func (r *VisitRepo) Touch(ctx context.Context, userID, exhibitID uint64) (model.VisitRecord, error) {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE visit_records SET updated_at=? WHERE user_id=? AND exhibit_id=?",
		time.Now().UTC(), userID, exhibitID); err != nil {
		return model.VisitRecord{}, err
	}
	return r.GetByPair(ctx, userID, exhibitID)
}

// GetByPair loads the record for (userID, exhibitID).
func (r *VisitRepo) GetByPair(ctx context.Context, userID, exhibitID uint64) (model.VisitRecord, error) {
	v, err := scanVisit(r.db.QueryRowContext(ctx,
		"SELECT "+visitColumns+" FROM visit_records WHERE user_id=? AND exhibit_id=?", userID, exhibitID))
	if errors.Is(err, sql.ErrNoRows) {
		return v, ErrVisitNotFound
	}
	return v, err
}

// CountByUser returns how many distinct exhibits the user has visited.
func (r *VisitRepo) CountByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visit_records WHERE user_id=?", userID).Scan(&n)
	return n, err
}

// ListByUser returns the user's visits joined with exhibit titles, most
// recent first.
func (r *VisitRepo) ListByUser(ctx context.Context, userID uint64) ([]model.VisitedExhibit, error) {
	const q = `SELECT e.id, e.uuid, e.title, v.visited_at
	           FROM visit_records v JOIN exhibits e ON e.id = v.exhibit_id
	           WHERE v.user_id = ?
	           ORDER BY v.visited_at DESC, v.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.VisitedExhibit
	for rows.Next() {
		var ve model.VisitedExhibit
		if err := rows.Scan(&ve.ExhibitID, &ve.ExhibitUUID, &ve.Title, &ve.VisitedAt); err != nil {
			return nil, err
		}
		out = append(out, ve)
	}
	return out, rows.Err()
}

// CountAll returns the total number of visit records.
func (r *VisitRepo) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visit_records").Scan(&n)
	return n, err
}
