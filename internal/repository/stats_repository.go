package repository

import (
	"context"
	"database/sql"
)

// StatsRepo runs the read-only aggregate queries behind the admin
// dashboard and statistics pages.
type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// Totals are the headline counters.
type Totals struct {
	Exhibits        int `json:"total_exhibits"`
	ActiveExhibits  int `json:"active_exhibits"`
	Users           int `json:"total_users"`
	Comments        int `json:"total_comments"`
	PendingComments int `json:"pending_comments"`
	Visits          int `json:"total_visits"`
}

// TopVisitor is a leaderboard row.
type TopVisitor struct {
	UserID     uint64 `json:"user_id"`
	Username   string `json:"username"`
	Nickname   string `json:"nickname"`
	Points     int    `json:"points"`
	VisitCount int    `json:"visit_count"`
}

// PopularExhibit is an exhibit with its number of distinct visitors.
type PopularExhibit struct {
	ExhibitID uint64 `json:"exhibit_id"`
	UUID      string `json:"uuid"`
	Title     string `json:"title"`
	Visits    int    `json:"visits"`
}

// Totals collects all headline counters.
func (r *StatsRepo) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	queries := []struct {
		q    string
		args []any
		dst  *int
	}{
		{"SELECT COUNT(*) FROM exhibits", nil, &t.Exhibits},
		{"SELECT COUNT(*) FROM exhibits WHERE is_active = ?", []any{true}, &t.ActiveExhibits},
		{"SELECT COUNT(*) FROM users", nil, &t.Users},
		{"SELECT COUNT(*) FROM comments", nil, &t.Comments},
		{"SELECT COUNT(*) FROM comments WHERE is_approved = ?", []any{false}, &t.PendingComments},
		{"SELECT COUNT(*) FROM visit_records", nil, &t.Visits},
	}
	for _, s := range queries {
		if err := r.db.QueryRowContext(ctx, s.q, s.args...).Scan(s.dst); err != nil {
			return t, err
		}
	}
	return t, nil
}

// TopVisitors returns the visitors with the most visits.
func (r *StatsRepo) TopVisitors(ctx context.Context, limit int) ([]TopVisitor, error) {
	const q = `SELECT u.id, u.username, v.nickname, v.points, v.visit_count
	           FROM visitors v JOIN users u ON u.id = v.user_id
	           ORDER BY v.visit_count DESC, v.points DESC, u.id
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TopVisitor{}
	for rows.Next() {
		var tv TopVisitor
		if err := rows.Scan(&tv.UserID, &tv.Username, &tv.Nickname, &tv.Points, &tv.VisitCount); err != nil {
			return nil, err
		}
		out = append(out, tv)
	}
	return out, rows.Err()
}

// PopularExhibits returns exhibits ordered by number of visit records.
func (r *StatsRepo) PopularExhibits(ctx context.Context, limit int) ([]PopularExhibit, error) {
	const q = `SELECT e.id, e.uuid, e.title, COUNT(v.id) AS visits
	           FROM exhibits e LEFT JOIN visit_records v ON v.exhibit_id = e.id
	           GROUP BY e.id, e.uuid, e.title
	           ORDER BY visits DESC, e.id
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PopularExhibit{}
	for rows.Next() {
		var pe PopularExhibit
		if err := rows.Scan(&pe.ExhibitID, &pe.UUID, &pe.Title, &pe.Visits); err != nil {
			return nil, err
		}
		out = append(out, pe)
	}
	return out, rows.Err()
}
