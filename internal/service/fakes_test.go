package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/sharpline/internal/models"
)

// In-memory repository fakes for exercising the services without a
// database.

type fakeEventRepo struct {
	upserted  []*models.Event
	unsettled []*models.Event
	settled   []*models.Event
	upsertErr error
}

func (f *fakeEventRepo) Upsert(ctx context.Context, event *models.Event) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, event)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*models.Event, error) {
	for _, e := range f.upserted {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeEventRepo) GetUpcoming(ctx context.Context, from time.Time, lookahead time.Duration) ([]*models.Event, error) {
	return f.upserted, nil
}

func (f *fakeEventRepo) GetUnsettled(ctx context.Context, sportKey string) ([]*models.Event, error) {
	return f.unsettled, nil
}

func (f *fakeEventRepo) MarkSettled(ctx context.Context, event *models.Event) error {
	f.settled = append(f.settled, event)
	return nil
}

type fakeSnapshotRepo struct {
	latest   map[string]float64
	inserted []*models.Observation
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{latest: make(map[string]float64)}
}

func quoteKey(obs *models.Observation) string {
	handicap := "nil"
	if obs.Handicap != nil {
		handicap = fmt.Sprintf("%g", *obs.Handicap)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s", obs.EventID, obs.MarketKey, obs.Selection, handicap, obs.Bookmaker)
}

func (f *fakeSnapshotRepo) seed(obs *models.Observation) {
	f.latest[quoteKey(obs)] = obs.OddsDecimal
}

func (f *fakeSnapshotRepo) Insert(ctx context.Context, obs *models.Observation) error {
	f.inserted = append(f.inserted, obs)
	return nil
}

func (f *fakeSnapshotRepo) InsertBatch(ctx context.Context, observations []*models.Observation) error {
	f.inserted = append(f.inserted, observations...)
	return nil
}

func (f *fakeSnapshotRepo) GetLatestOdds(ctx context.Context, obs *models.Observation) (float64, error) {
	odds, ok := f.latest[quoteKey(obs)]
	if !ok {
		return 0, models.ErrNotFound
	}
	return odds, nil
}

func (f *fakeSnapshotRepo) GetByEventIDs(ctx context.Context, eventIDs []string, since time.Time) ([]*models.Observation, error) {
	return f.inserted, nil
}

func (f *fakeSnapshotRepo) GetLiveSnapshots(ctx context.Context, eventIDs []string, since time.Time) (map[string]models.MarketSnapshot, error) {
	return map[string]models.MarketSnapshot{}, nil
}
