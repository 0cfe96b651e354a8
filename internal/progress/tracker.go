// Package progress records exhibit visits and turns them into points and
// completion figures for the scan-and-collect game.
package progress

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/qrmuseum/museum-api/internal/model"
	"github.com/qrmuseum/museum-api/internal/repository"
)

// VisitReward is the number of points granted for the first scan of an
// exhibit.
const VisitReward = 10

// TxBeginner starts the transaction that spans a visit insert and the
// matching profile credit. *sql.DB satisfies it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// VisitStore is the subset of repository.VisitRepo the tracker needs.
type VisitStore interface {
	InsertTx(ctx context.Context, tx *sql.Tx, userID, exhibitID uint64) (model.VisitRecord, error)
	Touch(ctx context.Context, userID, exhibitID uint64) (model.VisitRecord, error)
	CountByUser(ctx context.Context, userID uint64) (int, error)
}

// VisitorCredits is the subset of repository.VisitorRepo the tracker needs.
type VisitorCredits interface {
	CreditVisitTx(ctx context.Context, tx *sql.Tx, userID uint64, points int) (bool, error)
}

// Tracker implements first-visit detection and point awarding.
type Tracker struct {
	db       TxBeginner
	visits   VisitStore
	visitors VisitorCredits
	log      *zap.Logger
}

// NewTracker wires a Tracker. A nil logger discards output.
func NewTracker(db TxBeginner, visits VisitStore, visitors VisitorCredits, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{db: db, visits: visits, visitors: visitors, log: log.Named("progress")}
}

// RecordVisit returns the unique visit record for (userID, exhibitID) and
// whether this call created it. Only the creating call credits the
// visitor with VisitReward points and one visit; the insert and the credit
// commit together. A repeat scan, including one that lost a race against
// a concurrent first scan, only refreshes the record's updated_at.
func (t *Tracker) RecordVisit(ctx context.Context, userID, exhibitID uint64) (model.VisitRecord, bool, error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return model.VisitRecord{}, false, err
	}

	rec, err := t.visits.InsertTx(ctx, tx, userID, exhibitID)
	if errors.Is(err, repository.ErrDuplicateVisit) {
		_ = tx.Rollback()
		rec, err = t.visits.Touch(ctx, userID, exhibitID)
		if err != nil {
			return model.VisitRecord{}, false, err
		}
		return rec, false, nil
	}
	if err != nil {
		_ = tx.Rollback()
		return model.VisitRecord{}, false, err
	}

	credited, err := t.visitors.CreditVisitTx(ctx, tx, userID, VisitReward)
	if err != nil {
		_ = tx.Rollback()
		return model.VisitRecord{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return model.VisitRecord{}, false, err
	}

	if !credited {
		t.log.Warn("visit recorded without visitor profile; no points awarded",
			zap.Uint64("user_id", userID), zap.Uint64("exhibit_id", exhibitID))
	} else {
		t.log.Debug("first visit credited",
			zap.Uint64("user_id", userID), zap.Uint64("exhibit_id", exhibitID), zap.Int("points", VisitReward))
	}
	return rec, true, nil
}

// CompletionPercentage reports how much of the collection userID has
// visited, as floor(100*visited/totalActive) clamped to 0..100. It is 0
// when there are no active exhibits.
func (t *Tracker) CompletionPercentage(ctx context.Context, userID uint64, totalActive int) (int, error) {
	if totalActive <= 0 {
		return 0, nil
	}
	visited, err := t.visits.CountByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return Percentage(visited, totalActive), nil
}

// Percentage is the pure arithmetic behind CompletionPercentage.
func Percentage(visited, total int) int {
	if total <= 0 || visited <= 0 {
		return 0
	}
	p := visited * 100 / total
	if p > 100 {
		return 100
	}
	return p
}
