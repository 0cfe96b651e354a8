package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/qrmuseum/museum-api/internal/model"
)

// VisitorRepo manages the game profile attached to each user.
type VisitorRepo struct {
	db *sql.DB
}

func NewVisitorRepo(db *sql.DB) *VisitorRepo { return &VisitorRepo{db: db} }

const visitorColumns = "id,user_id,nickname,avatar_key,points,level,visit_count,comment_count,created_at,updated_at"

func scanVisitor(row interface{ Scan(...any) error }) (*model.Visitor, error) {
	var (
		v      model.Visitor
		avatar sql.NullString
	)
	if err := row.Scan(&v.ID, &v.UserID, &v.Nickname, &avatar, &v.Points, &v.Level,
		&v.VisitCount, &v.CommentCount, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.AvatarKey = nullString(avatar)
	return &v, nil
}

// GetByUser returns the profile for userID or ErrVisitorNotFound.
func (r *VisitorRepo) GetByUser(ctx context.Context, userID uint64) (*model.Visitor, error) {
	v, err := scanVisitor(r.db.QueryRowContext(ctx,
		"SELECT "+visitorColumns+" FROM visitors WHERE user_id=?", userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVisitorNotFound
	}
	return v, err
}

// Ensure returns the profile for userID, creating an empty one when the
// account has none. Concurrent callers converge on the same row through
// the unique user_id index.
func (r *VisitorRepo) Ensure(ctx context.Context, userID uint64) (*model.Visitor, error) {
	v, err := r.GetByUser(ctx, userID)
	if !errors.Is(err, ErrVisitorNotFound) {
		return v, err
	}
	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO visitors (user_id, nickname, points, level, visit_count, comment_count, created_at, updated_at) VALUES (?,?,0,1,0,0,?,?)",
		userID, "", now, now)
	if err != nil && !isDuplicate(err) {
		return nil, err
	}
	return r.GetByUser(ctx, userID)
}

// CreditVisitTx awards points and one visit to the profile of userID as a
// single atomic increment inside tx. It reports false when no profile
// exists.
func (r *VisitorRepo) CreditVisitTx(ctx context.Context, tx *sql.Tx, userID uint64, points int) (bool, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE visitors SET points = points + ?, visit_count = visit_count + 1, updated_at = ? WHERE user_id = ?",
		points, time.Now().UTC(), userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// incrementCommentsTx adds one to comment_count inside tx. It reports
// false when no profile exists.
func incrementCommentsTx(ctx context.Context, tx *sql.Tx, userID uint64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE visitors SET comment_count = comment_count + 1, updated_at = ? WHERE user_id = ?",
		time.Now().UTC(), userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateNickname sets the display nickname.
func (r *VisitorRepo) UpdateNickname(ctx context.Context, userID uint64, nickname string) error {
	return r.exec(ctx, "UPDATE visitors SET nickname=?, updated_at=? WHERE user_id=?",
		nickname, time.Now().UTC(), userID)
}

// SetAvatar stores the blob key of the avatar image.
func (r *VisitorRepo) SetAvatar(ctx context.Context, userID uint64, key string) error {
	return r.exec(ctx, "UPDATE visitors SET avatar_key=?, updated_at=? WHERE user_id=?",
		key, time.Now().UTC(), userID)
}

// SetLevel lets an administrator adjust a visitor's level.
func (r *VisitorRepo) SetLevel(ctx context.Context, userID uint64, level int) error {
	return r.exec(ctx, "UPDATE visitors SET level=?, updated_at=? WHERE user_id=?",
		level, time.Now().UTC(), userID)
}

func (r *VisitorRepo) exec(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrVisitorNotFound
	}
	return nil
}
