package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/qrmuseum/museum-api/internal/model"
)

// CommentRepo stores visitor comments and their moderation state.
type CommentRepo struct {
	db *sql.DB
}

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{db: db} }

// Moderation filters accepted by ListFiltered.
const (
	CommentFilterAll      = "all"
	CommentFilterPending  = "pending"
	CommentFilterApproved = "approved"
)

const commentSelect = `SELECT c.id, c.user_id, c.content_id, c.rating, c.body, c.is_approved, c.created_at, c.updated_at,
	       u.username, e.title
	FROM comments c
	JOIN users u ON u.id = c.user_id
	JOIN exhibit_contents ec ON ec.id = c.content_id
	JOIN exhibits e ON e.id = ec.exhibit_id`

func scanComment(row interface{ Scan(...any) error }) (*model.Comment, error) {
	var c model.Comment
	if err := row.Scan(&c.ID, &c.UserID, &c.ContentID, &c.Rating, &c.Body, &c.IsApproved,
		&c.CreatedAt, &c.UpdatedAt, &c.Username, &c.ExhibitTitle); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepo) list(ctx context.Context, q string, args ...any) ([]*model.Comment, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts an unapproved comment and counts it on the author's
// visitor profile in one transaction. counted is false when the author has
// no profile; the comment is stored regardless.
func (r *CommentRepo) Create(ctx context.Context, userID, contentID uint64, rating int, body string) (*model.Comment, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO comments (user_id, content_id, rating, body, is_approved, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		userID, contentID, rating, body, false, now, now)
	if err != nil {
		return nil, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, err
	}
	counted, err := incrementCommentsTx(ctx, tx, userID)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	c, err := r.GetByID(ctx, uint64(id))
	return c, counted, err
}

// GetByID fetches a comment with its author and exhibit title.
func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (*model.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx, commentSelect+" WHERE c.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCommentNotFound
	}
	return c, err
}

// ListApprovedByContent returns the approved comments on a content row,
// newest first.
func (r *CommentRepo) ListApprovedByContent(ctx context.Context, contentID uint64) ([]*model.Comment, error) {
	return r.list(ctx, commentSelect+" WHERE c.content_id = ? AND c.is_approved = ? ORDER BY c.created_at DESC, c.id DESC",
		contentID, true)
}

// ListByUser returns every comment the user wrote, newest first.
func (r *CommentRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Comment, error) {
	return r.list(ctx, commentSelect+" WHERE c.user_id = ? ORDER BY c.created_at DESC, c.id DESC", userID)
}

// ListFiltered pages through comments for moderation. Unknown filters
// behave like CommentFilterAll.
func (r *CommentRepo) ListFiltered(ctx context.Context, filter string, limit, offset int) ([]*model.Comment, error) {
	switch filter {
	case CommentFilterPending:
		return r.list(ctx, commentSelect+" WHERE c.is_approved = ? ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?",
			false, limit, offset)
	case CommentFilterApproved:
		return r.list(ctx, commentSelect+" WHERE c.is_approved = ? ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?",
			true, limit, offset)
	default:
		return r.list(ctx, commentSelect+" ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?", limit, offset)
	}
}

// Approve marks a comment as publicly visible.
func (r *CommentRepo) Approve(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE comments SET is_approved=?, updated_at=? WHERE id=?", true, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// Delete removes a comment; rejection in moderation is a delete.
func (r *CommentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// Count returns the number of comments matching a moderation filter.
func (r *CommentRepo) Count(ctx context.Context, filter string) (int, error) {
	q := "SELECT COUNT(*) FROM comments"
	var args []any
	switch filter {
	case CommentFilterPending:
		q += " WHERE is_approved = ?"
		args = append(args, false)
	case CommentFilterApproved:
		q += " WHERE is_approved = ?"
		args = append(args, true)
	}
	var n int
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}
