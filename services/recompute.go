package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"bikeshare-flow/models"
	"bikeshare-flow/utils"
)

// Snapshot is one published aggregation.
type Snapshot struct {
	ID         string
	Generation uint64
	ComputedAt time.Time
	Result     *models.AggregateResult
}

// Recomputer coalesces recomputation requests: every request gets a
// generation number when it starts, and a finished computation is published
// unless a newer one has already been published. A request that fails
// publishes nothing and therefore supersedes nothing.
type Recomputer struct {
	agg    *Aggregator
	logger *utils.Logger

	mu      sync.RWMutex
	gen     uint64
	current *Snapshot
}

// NewRecomputer creates a Recomputer with no published snapshot.
func NewRecomputer(agg *Aggregator, logger *utils.Logger) *Recomputer {
	return &Recomputer{agg: agg, logger: logger}
}

// Submit aggregates records and publishes the result unless a newer result
// was published meanwhile. It reports whether the snapshot was published.
func (r *Recomputer) Submit(records []models.TripRecord) (*Snapshot, bool) {
	gen := r.next()
	result := r.agg.Aggregate(records)
	return r.publish(gen, result)
}

// Reload reads the full dataset from src and submits it.
func (r *Recomputer) Reload(ctx context.Context, src TripSource) (*Snapshot, bool, error) {
	gen := r.next()
	result, err := r.agg.AggregateSource(ctx, src)
	if err != nil {
		return nil, false, err
	}
	snap, ok := r.publish(gen, result)
	return snap, ok, nil
}

// Current returns the latest published snapshot, or nil.
func (r *Recomputer) Current() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Recomputer) next() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	return r.gen
}

func (r *Recomputer) publish(gen uint64, result *models.AggregateResult) (*Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil && gen < r.current.Generation {
		r.logger.Debug("[recompute] Discarding generation %d, superseded by %d", gen, r.current.Generation)
		return nil, false
	}

	snap := &Snapshot{
		ID:         uuid.NewString(),
		Generation: gen,
		ComputedAt: time.Now().UTC(),
		Result:     result,
	}
	r.current = snap
	r.logger.Info("[recompute] Published snapshot %s (%d trips, %d skipped)", snap.ID, result.Trips, result.Skipped)
	return snap, true
}
