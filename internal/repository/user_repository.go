package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/qrmuseum/museum-api/internal/model"
	"github.com/qrmuseum/museum-api/internal/utils"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// NewUser carries the registration fields. Password is plain text and is
// hashed by Create.
type NewUser struct {
	Username  string
	Email     string
	FirstName string
	Password  string
	Role      string
}

// UserWithProfile is a row of the admin user listing.
type UserWithProfile struct {
	User    model.User
	Visitor *model.Visitor
}

const userColumns = "id,username,email,first_name,password_hash,role,is_active,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.PasswordHash,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts the user and its visitor profile in one transaction and
// returns the new user id.
func (r *UserRepo) Create(ctx context.Context, in NewUser, cost int) (uint64, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = model.RoleVisitor
	}
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, email, first_name, password_hash, role, is_active, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		username, email, strings.TrimSpace(in.FirstName), hash, in.Role, true, now, now)
	if err != nil {
		if isDuplicate(err) {
			if duplicateColumn(err, "email") == "email" {
				return 0, ErrEmailExists
			}
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO visitors (user_id, nickname, points, level, visit_count, comment_count, created_at, updated_at) VALUES (?,?,0,1,0,0,?,?)",
		id, "", now, now); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// UsernameTaken reports whether a username is already registered.
func (r *UserRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username=?",
		strings.TrimSpace(username)).Scan(&n)
	return n > 0, err
}

// EmailTaken reports whether an email is already registered.
func (r *UserRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email=?",
		strings.ToLower(strings.TrimSpace(email))).Scan(&n)
	return n > 0, err
}

// GetByUsername fetches a user by login name.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username)))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// SetPassword replaces the stored hash.
func (r *UserRepo) SetPassword(ctx context.Context, id uint64, plain string, cost int) error {
	hash, err := utils.HashPassword(plain, cost)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=? WHERE id=?", hash, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Count returns the number of accounts.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// ListPaged returns users newest first together with their visitor
// profile, if any.
func (r *UserRepo) ListPaged(ctx context.Context, limit, offset int) ([]UserWithProfile, error) {
	const q = `SELECT u.id,u.username,u.email,u.first_name,u.password_hash,u.role,u.is_active,u.created_at,u.updated_at,
	                  v.id,v.nickname,v.avatar_key,v.points,v.level,v.visit_count,v.comment_count
	           FROM users u LEFT JOIN visitors v ON v.user_id = u.id
	           ORDER BY u.created_at DESC, u.id DESC
	           LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserWithProfile
	for rows.Next() {
		var (
			u                         model.User
			vid                       sql.NullInt64
			nick, avatar              sql.NullString
			points, level, vis, comms sql.NullInt64
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.PasswordHash, &u.Role,
			&u.IsActive, &u.CreatedAt, &u.UpdatedAt,
			&vid, &nick, &avatar, &points, &level, &vis, &comms); err != nil {
			return nil, err
		}
		item := UserWithProfile{User: u}
		if vid.Valid {
			item.Visitor = &model.Visitor{
				ID:           uint64(vid.Int64),
				UserID:       u.ID,
				Nickname:     nick.String,
				AvatarKey:    nullString(avatar),
				Points:       int(points.Int64),
				Level:        int(level.Int64),
				VisitCount:   int(vis.Int64),
				CommentCount: int(comms.Int64),
			}
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Delete removes a user together with tokens, comments, visits and the
// visitor profile.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM refresh_tokens WHERE user_id=?",
		"DELETE FROM comments WHERE user_id=?",
		"DELETE FROM visit_records WHERE user_id=?",
		"DELETE FROM visitors WHERE user_id=?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return tx.Commit()
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
