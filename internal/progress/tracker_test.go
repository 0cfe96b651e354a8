package progress_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/qrmuseum/museum-api/internal/database/dbtest"
	"github.com/qrmuseum/museum-api/internal/progress"
	"github.com/qrmuseum/museum-api/internal/repository"
)

type fixture struct {
	db       *sql.DB
	users    *repository.UserRepo
	exhibits *repository.ExhibitRepo
	visits   *repository.VisitRepo
	visitors *repository.VisitorRepo
	tracker  *progress.Tracker
	logs     *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		db:       db,
		users:    repository.NewUserRepo(db),
		exhibits: repository.NewExhibitRepo(db),
		visits:   repository.NewVisitRepo(db),
		visitors: repository.NewVisitorRepo(db),
		logs:     logs,
	}
	f.tracker = progress.NewTracker(db, f.visits, f.visitors, zap.New(core))
	return f
}

func (f *fixture) user(t *testing.T, name string) uint64 {
	t.Helper()
	id, err := f.users.Create(context.Background(), repository.NewUser{
		Username: name, Email: name + "@example.com", Password: "secret1",
	}, 4)
	require.NoError(t, err)
	return id
}

func (f *fixture) exhibit(t *testing.T, seq int) uint64 {
	t.Helper()
	uuid := fmt.Sprintf("00000000-0000-0000-0000-%012d", seq)
	e, err := f.exhibits.Create(context.Background(), uuid, "qr://"+uuid, repository.ExhibitFields{
		Title: fmt.Sprintf("Exhibit %d", seq), SequenceNumber: seq, IsActive: true,
	})
	require.NoError(t, err)
	return e.ID
}

func TestRecordVisitAwardsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.user(t, "ana")
	eid := f.exhibit(t, 1)

	first, created, err := f.tracker.RecordVisit(ctx, uid, eid)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uid, first.UserID)
	assert.Equal(t, eid, first.ExhibitID)

	for i := 0; i < 3; i++ {
		again, created, err := f.tracker.RecordVisit(ctx, uid, eid)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)
		assert.False(t, again.UpdatedAt.Before(first.UpdatedAt))
	}

	v, err := f.visitors.GetByUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, progress.VisitReward, v.Points)
	assert.Equal(t, 1, v.VisitCount)

	n, err := f.visits.CountByUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecordVisitConcurrentDifferentExhibits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.user(t, "bea")
	e1, e2 := f.exhibit(t, 1), f.exhibit(t, 2)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, eid := range []uint64{e1, e2} {
		wg.Add(1)
		go func(i int, eid uint64) {
			defer wg.Done()
			_, _, errs[i] = f.tracker.RecordVisit(ctx, uid, eid)
		}(i, eid)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	v, err := f.visitors.GetByUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 20, v.Points)
	assert.Equal(t, 2, v.VisitCount)
}

func TestRecordVisitConcurrentSamePair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.user(t, "cai")
	eid := f.exhibit(t, 1)

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, c, err := f.tracker.RecordVisit(ctx, uid, eid)
			assert.NoError(t, err)
			if c {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	var rows int
	require.NoError(t, f.db.QueryRow(
		"SELECT COUNT(*) FROM visit_records WHERE user_id=? AND exhibit_id=?", uid, eid).Scan(&rows))
	assert.Equal(t, 1, rows)

	v, err := f.visitors.GetByUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 10, v.Points)
	assert.Equal(t, 1, v.VisitCount)
}

func TestRecordVisitWithoutProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.user(t, "dan")
	eid := f.exhibit(t, 1)
	_, err := f.db.Exec("DELETE FROM visitors WHERE user_id=?", uid)
	require.NoError(t, err)

	_, created, err := f.tracker.RecordVisit(ctx, uid, eid)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, f.logs.FilterLevelExact(zapcore.WarnLevel).Len())

	_, err = f.visitors.GetByUser(ctx, uid)
	assert.ErrorIs(t, err, repository.ErrVisitorNotFound)
}

func TestCompletionPercentage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.user(t, "eva")
	var ids []uint64
	for i := 1; i <= 10; i++ {
		ids = append(ids, f.exhibit(t, i))
	}
	for _, eid := range ids[:3] {
		_, _, err := f.tracker.RecordVisit(ctx, uid, eid)
		require.NoError(t, err)
	}

	pct, err := f.tracker.CompletionPercentage(ctx, uid, 10)
	require.NoError(t, err)
	assert.Equal(t, 30, pct)

	pct, err = f.tracker.CompletionPercentage(ctx, uid, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, pct)

	// more visits than active exhibits after deactivation
	pct, err = f.tracker.CompletionPercentage(ctx, uid, 2)
	require.NoError(t, err)
	assert.Equal(t, 100, pct)
}

func TestPercentage(t *testing.T) {
	cases := []struct{ visited, total, want int }{
		{0, 10, 0},
		{3, 10, 30},
		{1, 3, 33},
		{2, 3, 66},
		{10, 10, 100},
		{5, 0, 0},
		{12, 10, 100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, progress.Percentage(tc.visited, tc.total), "%d/%d", tc.visited, tc.total)
	}
}
