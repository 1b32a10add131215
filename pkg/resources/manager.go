/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package resources owns the mutable consumable state of every printer: paper
// counts, ink levels and the per-printer version counter used as an
// optimistic-concurrency token. A printer's state only changes under its
// exclusive lock, and every mutation bumps the version by exactly one.
package resources

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"k8s.io/utils/clock"

	"github.com/printworks/fleetprint/pkg/errors"
	"github.com/printworks/fleetprint/pkg/fleet"
)

// Snapshot is an immutable capture of a printer's consumables and version at
// a moment. It is only meaningful briefly: a consume attempted against it
// fails with a conflict once the printer's version has moved.
type Snapshot struct {
	PrinterID  string
	Version    int64
	PaperCount map[fleet.PaperKind]int
	Ink        map[fleet.InkChannel]float64
	CapturedAt time.Time
}

type printerState struct {
	// sem is a binary semaphore standing in for a mutex so acquisition can
	// honor the configured lock timeout.
	sem     chan struct{}
	paper   map[fleet.PaperKind]int
	ink     map[fleet.InkChannel]float64
	version int64
}

// Manager serializes access to each printer's consumables. Distinct printers
// mutate in parallel; a single printer is serialized. No cross-printer
// locking happens here, so the lock order is trivially total.
type Manager struct {
	printers    map[string]*printerState
	consumption fleet.ConsumptionTable
	lockTimeout time.Duration
	clock       clock.Clock
}

// NewManager copies the fleet's consumable state into guarded per-printer
// shards. The fleet specs themselves are never mutated afterwards.
func NewManager(f fleet.Fleet, consumption fleet.ConsumptionTable, lockTimeout time.Duration, clk clock.Clock) *Manager {
	return &Manager{
		printers: lo.MapValues(map[string]fleet.Spec(f), func(spec fleet.Spec, _ string) *printerState {
			return &printerState{
				sem:   make(chan struct{}, 1),
				paper: lo.Assign(map[fleet.PaperKind]int{}, spec.PaperCount),
				ink:   lo.Assign(map[fleet.InkChannel]float64{}, spec.Ink),
			}
		}),
		consumption: consumption,
		lockTimeout: lockTimeout,
		clock:       clk,
	}
}

// Snapshot returns an immutable copy of the printer's paper, ink and current
// version.
func (m *Manager) Snapshot(ctx context.Context, printerID string) (Snapshot, error) {
	p, err := m.acquire(ctx, printerID)
	if err != nil {
		return Snapshot{}, err
	}
	defer p.release()
	return Snapshot{
		PrinterID:  printerID,
		Version:    p.version,
		PaperCount: lo.Assign(map[fleet.PaperKind]int{}, p.paper),
		Ink:        lo.Assign(map[fleet.InkChannel]float64{}, p.ink),
		CapturedAt: m.clock.Now(),
	}, nil
}

// State returns copies of the printer's current paper and ink plus its
// version, for scoring and status queries.
func (m *Manager) State(ctx context.Context, printerID string) (map[fleet.PaperKind]int, map[fleet.InkChannel]float64, int64, error) {
	p, err := m.acquire(ctx, printerID)
	if err != nil {
		return nil, nil, 0, err
	}
	defer p.release()
	return lo.Assign(map[fleet.PaperKind]int{}, p.paper), lo.Assign(map[fleet.InkChannel]float64{}, p.ink), p.version, nil
}

// Version returns the printer's current version counter.
func (m *Manager) Version(ctx context.Context, printerID string) (int64, error) {
	p, err := m.acquire(ctx, printerID)
	if err != nil {
		return 0, err
	}
	defer p.release()
	return p.version, nil
}

// ValidateAndConsume atomically reserves the sub-order's demand against the
// printer. It fails with a ConflictError (no mutation) if the printer's
// version moved past the snapshot, or an InsufficientResourceError when any
// paper kind or ink channel falls short. On success all amounts are
// subtracted (ink floored at 0) and the version is bumped by one.
func (m *Manager) ValidateAndConsume(ctx context.Context, printerID string, req fleet.SubOrderRequirement, snapshot Snapshot) error {
	p, err := m.acquire(ctx, printerID)
	if err != nil {
		return err
	}
	defer p.release()

	if p.version != snapshot.Version {
		return &errors.ConflictError{
			PrinterID:       printerID,
			SnapshotVersion: snapshot.Version,
			CurrentVersion:  p.version,
		}
	}
	demand := fleet.DemandFor(req, m.consumption)
	for _, kind := range sortedKeys(demand.Paper) {
		if available := p.paper[kind]; available < demand.Paper[kind] {
			return &errors.InsufficientResourceError{
				PrinterID: printerID,
				Resource:  fmt.Sprintf("paper:%s", kind),
				Available: float64(available),
				Needed:    float64(demand.Paper[kind]),
			}
		}
	}
	for _, channel := range sortedKeys(demand.Ink) {
		if available := p.ink[channel]; available < demand.Ink[channel] {
			return &errors.InsufficientResourceError{
				PrinterID: printerID,
				Resource:  fmt.Sprintf("ink:%s", channel),
				Available: available,
				Needed:    demand.Ink[channel],
			}
		}
	}
	for kind, needed := range demand.Paper {
		p.paper[kind] -= needed
	}
	for channel, needed := range demand.Ink {
		p.ink[channel] = lo.Max([]float64{0, p.ink[channel] - needed})
	}
	p.version++
	return nil
}

// Release compensates a prior consume: it re-adds the sub-order's demand
// (ink capped back at 100) and bumps the version again. Used for
// queue-overflow rollback and cancellation.
func (m *Manager) Release(ctx context.Context, printerID string, req fleet.SubOrderRequirement) error {
	p, err := m.acquire(ctx, printerID)
	if err != nil {
		return err
	}
	defer p.release()
	demand := fleet.DemandFor(req, m.consumption)
	for kind, amount := range demand.Paper {
		p.paper[kind] += amount
	}
	for channel, amount := range demand.Ink {
		p.ink[channel] = lo.Min([]float64{100, p.ink[channel] + amount})
	}
	p.version++
	return nil
}

// Update applies a manual resource edit, e.g. after a refill. Values are
// absolute per key; keys not mentioned are untouched. The version is bumped
// so in-flight snapshots conflict.
func (m *Manager) Update(ctx context.Context, printerID string, paper map[fleet.PaperKind]int, ink map[fleet.InkChannel]float64) error {
	for kind, count := range paper {
		if count < 0 {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("paper_count.%s", kind),
				Message: fmt.Sprintf("must be non-negative, got %d", count),
			}
		}
	}
	for channel, level := range ink {
		if level < 0 || level > 100 {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("ink.%s", channel),
				Message: fmt.Sprintf("must be in [0, 100], got %v", level),
			}
		}
	}
	p, err := m.acquire(ctx, printerID)
	if err != nil {
		return err
	}
	defer p.release()
	for kind, count := range paper {
		p.paper[kind] = count
	}
	for channel, level := range ink {
		p.ink[channel] = level
	}
	p.version++
	return nil
}

func (m *Manager) acquire(ctx context.Context, printerID string) (*printerState, error) {
	p, ok := m.printers[printerID]
	if !ok {
		return nil, &errors.ValidationError{
			Field:   "printer_id",
			Message: fmt.Sprintf("printer %q not found", printerID),
		}
	}
	select {
	case p.sem <- struct{}{}:
		return p, nil
	default:
	}
	timer := m.clock.NewTimer(m.lockTimeout)
	defer timer.Stop()
	select {
	case p.sem <- struct{}{}:
		return p, nil
	case <-timer.C():
		return nil, &errors.LockTimeoutError{PrinterID: printerID, Timeout: m.lockTimeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *printerState) release() { <-p.sem }

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := lo.Keys(m)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
