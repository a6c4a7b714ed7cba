// Package analysis runs one complete evaluation pass over a work-item
// snapshot and collects every engine output into a Report.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"slaintel/internal/domain"
	"slaintel/internal/sla"
)

var ErrSnapshotTooLarge = errors.New("snapshot exceeds computation budget")

const defaultHorizonDays = 30

// Snapshot is the immutable input of one pass. History holds the persisted
// daily aggregates; the aggregate for the run day is computed from Items and
// replaces any stored aggregate for the same day.
type Snapshot struct {
	Items    []domain.WorkItem
	OwnerIDs []string
	History  []domain.DailyAggregate
	Horizon  int
}

type Report struct {
	GeneratedAt  time.Time
	ItemCount    int
	ActiveCount  int
	SkippedItems int
	Today        domain.DailyAggregate
	Statuses     []domain.SLAStatus
	Loads        []domain.OwnerLoad
	Predictions  []domain.BreachPrediction
	Benchmarks   []domain.PerformanceBenchmark
	History      []domain.HistoricalPoint
	Forecast     []domain.ForecastPoint
	Capacity     domain.CapacityAnalysis
	Bottlenecks  []domain.Bottleneck
	Alerts       []domain.Alert
}

// CountByState tallies evaluated statuses of active items.
func (r Report) CountByState(state domain.SLAState) int {
	n := 0
	for _, st := range r.Statuses {
		if st.State == state {
			n++
		}
	}
	return n
}

type options struct {
	maxItems int
	now      func() time.Time
}

type Option func(*options)

// WithMaxItems rejects snapshots with more than n items. Zero disables the check.
func WithMaxItems(n int) Option {
	return func(o *options) { o.maxItems = n }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Run evaluates the snapshot. Independent stages run concurrently; the
// context is checked between stages.
func Run(ctx context.Context, engine *sla.Engine, snap Snapshot, opts ...Option) (Report, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if engine == nil {
		return Report{}, fmt.Errorf("analysis requires an engine")
	}
	if o.maxItems > 0 && len(snap.Items) > o.maxItems {
		return Report{}, fmt.Errorf("%w: %d items, limit %d", ErrSnapshotTooLarge, len(snap.Items), o.maxItems)
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	items := snap.Items
	owners := snap.OwnerIDs
	if len(owners) == 0 {
		owners = domain.OwnersOf(items)
	}
	horizon := snap.Horizon
	if horizon <= 0 {
		horizon = defaultHorizonDays
	}

	now := o.now()
	r := Report{GeneratedAt: now, ItemCount: len(items)}
	var active []domain.WorkItem
	for _, item := range items {
		if item.IsActive() {
			active = append(active, item)
		}
	}
	r.ActiveCount = len(active)

	// Bottleneck and capacity analysis only consider owners that hold items.
	var itemLoads []domain.OwnerLoad

	var wg sync.WaitGroup
	wg.Add(5)
	go func() {
		defer wg.Done()
		r.Statuses, r.SkippedItems = engine.EvaluateAll(active)
	}()
	go func() {
		defer wg.Done()
		r.Loads = engine.ScoreOwners(items, owners)
		itemLoads = engine.ScoreOwners(items, domain.OwnersOf(items))
	}()
	go func() {
		defer wg.Done()
		r.Predictions = engine.PredictBreaches(items)
	}()
	go func() {
		defer wg.Done()
		r.Benchmarks = engine.Benchmark(items)
	}()
	go func() {
		defer wg.Done()
		r.Today = engine.AggregateDay(items, now)
		raw := make([]domain.DailyAggregate, 0, len(snap.History)+1)
		raw = append(raw, snap.History...)
		raw = append(raw, r.Today)
		r.History = sla.BuildHistory(raw)
		r.Forecast = engine.Forecast(r.History, horizon)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		r.Alerts = engine.AlertsFrom(items, r.Loads, r.Predictions)
	}()
	go func() {
		defer wg.Done()
		r.Bottlenecks = engine.BottlenecksFrom(items, itemLoads)
	}()
	go func() {
		defer wg.Done()
		r.Capacity = engine.CapacityFrom(items, itemLoads, r.Forecast)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	return r, nil
}
