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

// Package scheduler is the engine core. It orchestrates one order through
// validation, the assignment cache, sub-order planning, candidate scoring,
// atomic resource reservation and enqueueing, with a bounded retry when a
// printer's version moves underneath the attempt.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"k8s.io/utils/clock"

	scherrors "github.com/printworks/fleetprint/pkg/errors"
	"github.com/printworks/fleetprint/pkg/fleet"
	"github.com/printworks/fleetprint/pkg/options"
	"github.com/printworks/fleetprint/pkg/queue"
	"github.com/printworks/fleetprint/pkg/resources"
	"github.com/printworks/fleetprint/pkg/scheduling"
)

const (
	// DefaultPriority is used when a schedule request leaves priority unset.
	DefaultPriority = 5
	minPriority     = 1
	maxPriority     = 10
	// missingPriorityRank sorts printers absent from a priority map last.
	missingPriorityRank = 9999
)

// Scheduler is the single-process scheduling authority over one fleet. The
// fleet's composition is fixed at construction; only consumable state and
// queues mutate afterwards.
type Scheduler struct {
	fleet       fleet.Fleet
	weights     fleet.Weights
	consumption fleet.ConsumptionTable
	opts        *options.Options
	resources   *resources.Manager
	queues      map[string]*queue.Queue
	index       *scheduling.CapabilityIndex
	cache       *assignmentCache
	log         *zap.Logger
	clock       clock.Clock
}

// Option mutates construction-time defaults.
type Option func(*Scheduler)

// WithLogger replaces the no-op default logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

// WithClock replaces the real clock, for tests.
func WithClock(clk clock.Clock) Option {
	return func(s *Scheduler) { s.clock = clk }
}

// WithWeights replaces the default scoring weights.
func WithWeights(w fleet.Weights) Option {
	return func(s *Scheduler) { s.weights = w }
}

// WithConsumption replaces the whole ink consumption table.
func WithConsumption(table fleet.ConsumptionTable) Option {
	return func(s *Scheduler) { s.consumption = table }
}

// NewScheduler validates the fleet and weights and builds the engine: one
// resource shard and one bounded queue per printer, the capability index and
// the assignment cache.
func NewScheduler(f fleet.Fleet, opts *options.Options, mods ...Option) (*Scheduler, error) {
	if opts == nil {
		opts = options.New()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validating options, %w", err)
	}
	s := &Scheduler{
		fleet:       f,
		weights:     fleet.DefaultWeights(),
		consumption: fleet.DefaultConsumption(),
		opts:        opts,
		log:         zap.NewNop(),
		clock:       clock.RealClock{},
	}
	for _, mod := range mods {
		mod(s)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := s.weights.Validate(); err != nil {
		return nil, err
	}
	s.resources = resources.NewManager(f, s.consumption, opts.LockTimeout, s.clock)
	s.queues = lo.MapValues(map[string]fleet.Spec(f), func(_ fleet.Spec, _ string) *queue.Queue {
		return queue.New(opts.MaxQueueLength, s.clock)
	})
	s.index = scheduling.NewCapabilityIndex(f)
	s.cache = newAssignmentCache(opts.CacheTTL)
	return s, nil
}

// ScheduleRequest carries one order into the engine.
type ScheduleRequest struct {
	Order fleet.Order
	// OrderID is generated when empty.
	OrderID string
	// Priority is in [1, 10], lower served earlier; DefaultPriority when
	// unset.
	Priority int
	// PriorityMap optionally ranks printers per type combination
	// (scheduling.CombinationKey keys) as a tie-breaker between equal
	// scores.
	PriorityMap map[string][]string
}

// Result is a successful assignment. Indices align across Assignments,
// Scores and SubOrders.
type Result struct {
	OrderID     string              `json:"order_id"`
	Assignments []string            `json:"assignments"`
	Scores      []float64           `json:"scores"`
	SubOrders   [][]fleet.PrintType `json:"sub_orders"`
	Timestamp   time.Time           `json:"timestamp"`
}

// Schedule plans, scores, reserves and enqueues one order. At most one
// Schedule call may succeed per logical order; on failure after a partial
// commit the caller owns releasing prior sub-orders via CancelOrder.
func (s *Scheduler) Schedule(ctx context.Context, req ScheduleRequest) (result *Result, err error) {
	start := s.clock.Now()
	defer func() {
		schedulingDurationSeconds.Observe(s.clock.Since(start).Seconds())
		ordersTotal.WithLabelValues(resultOf(err)).Inc()
	}()

	if err := fleet.ValidateOrder(req.Order); err != nil {
		return nil, err
	}
	priority := req.Priority
	if priority == 0 {
		priority = DefaultPriority
	}
	if priority < minPriority || priority > maxPriority {
		return nil, &scherrors.ValidationError{
			Field:   "priority",
			Message: fmt.Sprintf("must be in [%d, %d], got %d", minPriority, maxPriority, priority),
		}
	}
	orderID := req.OrderID
	if orderID == "" {
		orderID = uuid.NewString()
	}

	fleetDigest, err := s.fleetDigest(ctx)
	if err != nil {
		return nil, err
	}
	if cached, ok := s.cache.Get(req.Order, fleetDigest); ok {
		if err := s.commitCached(ctx, req.Order, cached, priority); err == nil {
			cacheResultTotal.WithLabelValues("hit").Inc()
			s.log.Info("served assignment from cache",
				zap.String("order-id", cached.OrderID),
				zap.Strings("assignments", cached.Assignments))
			return cached, nil
		}
		// A hit that can no longer commit is a miss.
	}
	cacheResultTotal.WithLabelValues("miss").Inc()

	err = retry.Do(
		func() error {
			r, attemptErr := s.scheduleOnce(ctx, req.Order, orderID, priority, req.PriorityMap)
			if attemptErr != nil {
				return attemptErr
			}
			result = r
			return nil
		},
		retry.Attempts(uint(s.opts.MaxRetries)),
		retry.RetryIf(scherrors.IsConflict),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return time.Duration(n+1) * s.opts.RetryDelay
		}),
		retry.OnRetry(func(n uint, retryErr error) {
			schedulingRetriesTotal.Inc()
			s.log.Info("retrying order after resource conflict",
				zap.String("order-id", orderID),
				zap.Uint("attempt", n+1),
				zap.Error(retryErr))
		}),
	)
	if err != nil {
		s.log.Error("failed scheduling order", zap.String("order-id", orderID), zap.Error(err))
		return nil, err
	}
	// Keyed by the pre-scheduling digest, matching the lookup above.
	s.cache.Set(req.Order, fleetDigest, result)
	s.log.Info("scheduled order",
		zap.String("order-id", orderID),
		zap.Strings("assignments", result.Assignments),
		zap.Float64s("scores", result.Scores))
	return result, nil
}

// scheduleOnce runs a single attempt: plan sub-orders, then assign each in
// sequence. A ConflictError anywhere aborts the attempt so the caller can
// restart against fresh state.
func (s *Scheduler) scheduleOnce(ctx context.Context, order fleet.Order, orderID string, priority int, priorityMap map[string][]string) (*Result, error) {
	subOrders, err := scheduling.Plan(order, s.index)
	if err != nil {
		return nil, err
	}
	result := &Result{
		OrderID:   orderID,
		SubOrders: subOrders,
		Timestamp: s.clock.Now(),
	}
	for _, types := range subOrders {
		printerID, score, err := s.assign(ctx, order.SubOrderFor(types), types, orderID, priority, priorityMap)
		if err != nil {
			return nil, err
		}
		result.Assignments = append(result.Assignments, printerID)
		result.Scores = append(result.Scores, score)
	}
	return result, nil
}

type candidate struct {
	id    string
	score float64
	rank  int
}

// assign picks the best printer for one sub-order and commits the
// reservation: snapshot, validate-and-consume, enqueue. A queue that fills
// between scoring and push rolls the consumption back and falls through to
// the next-ranked candidate.
func (s *Scheduler) assign(ctx context.Context, req fleet.SubOrderRequirement, types []fleet.PrintType, orderID string, priority int, priorityMap map[string][]string) (string, float64, error) {
	capable := s.index.Capable(types)
	if len(capable) == 0 {
		return "", 0, &scherrors.NoCapablePrinterError{Types: typeTags(types)}
	}

	ranking := priorityMap[scheduling.CombinationKey(types)]
	var scored []candidate
	var resourceFailed []string
	var queueFull []string
	for _, id := range capable {
		if s.queues[id].Full() {
			queueFull = append(queueFull, id)
			continue
		}
		view, err := s.printerView(ctx, id)
		if err != nil {
			return "", 0, err
		}
		score := scheduling.Score(view, req, s.weights)
		if score <= 0 {
			resourceFailed = append(resourceFailed, id)
			continue
		}
		rank := lo.IndexOf(ranking, id)
		if rank < 0 {
			rank = missingPriorityRank
		}
		scored = append(scored, candidate{id: id, score: score, rank: rank})
	}
	if len(scored) == 0 {
		switch {
		case len(queueFull) > 0 && len(resourceFailed) == 0:
			return "", 0, &scherrors.QueueOverflowError{PrinterIDs: queueFull, MaxLength: s.opts.MaxQueueLength}
		case len(resourceFailed) > 0:
			return "", 0, s.insufficiencyError(ctx, resourceFailed, req)
		default:
			return "", 0, &scherrors.NoCapablePrinterError{Types: typeTags(types)}
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		if scored[i].rank != scored[j].rank {
			return scored[i].rank < scored[j].rank
		}
		return scored[i].id < scored[j].id
	})

	overflowed := []string{}
	for _, c := range scored {
		snapshot, err := s.resources.Snapshot(ctx, c.id)
		if err != nil {
			return "", 0, err
		}
		if err := s.resources.ValidateAndConsume(ctx, c.id, req, snapshot); err != nil {
			return "", 0, err
		}
		if err := s.queues[c.id].Push(orderID, req, priority); err != nil {
			// The queue filled since we checked; undo the consumption and
			// fall through to the next candidate.
			if releaseErr := s.resources.Release(ctx, c.id, req); releaseErr != nil {
				return "", 0, &scherrors.InternalError{
					Err: fmt.Errorf("rolling back consumption on printer %q, %w", c.id, releaseErr),
				}
			}
			overflowed = append(overflowed, c.id)
			continue
		}
		queueDepth.WithLabelValues(c.id).Set(float64(s.queues[c.id].Len()))
		return c.id, c.score, nil
	}
	return "", 0, &scherrors.QueueOverflowError{PrinterIDs: overflowed, MaxLength: s.opts.MaxQueueLength}
}

// insufficiencyError reconstructs which consumable fell short across the
// failed candidates to produce an actionable message, naming the shortfall
// per printer: paper kinds first, then ink channels.
func (s *Scheduler) insufficiencyError(ctx context.Context, printerIDs []string, req fleet.SubOrderRequirement) error {
	demand := fleet.DemandFor(req, s.consumption)
	var details []string
	resource := "ink"
	for _, id := range printerIDs {
		paper, ink, _, err := s.resources.State(ctx, id)
		if err != nil {
			continue
		}
		detail, shortResource, ok := shortfall(id, paper, ink, demand)
		if !ok {
			continue
		}
		if len(details) == 0 {
			resource = shortResource
		}
		details = append(details, detail)
	}
	if len(details) == 0 {
		return &scherrors.InsufficientResourceError{
			PrinterID: printerIDs[0],
			Resource:  "ink",
			Detail:    "all capable printers have insufficient ink",
		}
	}
	return &scherrors.InsufficientResourceError{
		PrinterID: printerIDs[0],
		Resource:  resource,
		Detail:    fmt.Sprintf("resource constraints: %s", strings.Join(details, "; ")),
	}
}

// shortfall names the first consumable on which a printer cannot satisfy the
// demand, paper kinds before ink channels, keys in sorted order.
func shortfall(printerID string, paper map[fleet.PaperKind]int, ink map[fleet.InkChannel]float64, demand fleet.Demand) (string, string, bool) {
	for _, kind := range sortedKeys(demand.Paper) {
		if available := paper[kind]; available < demand.Paper[kind] {
			return fmt.Sprintf("%s: needs %d %s, has %d", printerID, demand.Paper[kind], kind, available),
				fmt.Sprintf("paper:%s", kind), true
		}
	}
	for _, channel := range sortedKeys(demand.Ink) {
		if available := ink[channel]; available < demand.Ink[channel] {
			return fmt.Sprintf("%s: needs %.1f%% %s ink, has %.1f%%", printerID, demand.Ink[channel], channel, available),
				fmt.Sprintf("ink:%s", channel), true
		}
	}
	return "", "", false
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := lo.Keys(m)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// commitCached re-reserves a cached assignment against current state,
// enqueueing at the requesting caller's priority. Any failure compensates
// everything committed so far and reports the hit as unusable.
func (s *Scheduler) commitCached(ctx context.Context, order fleet.Order, cached *Result, priority int) error {
	type commit struct {
		printerID string
		req       fleet.SubOrderRequirement
		pushed    bool
	}
	var commits []commit
	rollback := func() {
		for i := len(commits) - 1; i >= 0; i-- {
			c := commits[i]
			if c.pushed {
				s.queues[c.printerID].Remove(cached.OrderID)
				queueDepth.WithLabelValues(c.printerID).Set(float64(s.queues[c.printerID].Len()))
			}
			if err := s.resources.Release(ctx, c.printerID, c.req); err != nil {
				s.log.Error("failed releasing resources during cache rollback",
					zap.String("printer", c.printerID), zap.Error(err))
			}
		}
	}
	for i, printerID := range cached.Assignments {
		req := order.SubOrderFor(cached.SubOrders[i])
		snapshot, err := s.resources.Snapshot(ctx, printerID)
		if err != nil {
			rollback()
			return err
		}
		if err := s.resources.ValidateAndConsume(ctx, printerID, req, snapshot); err != nil {
			rollback()
			return err
		}
		commits = append(commits, commit{printerID: printerID, req: req})
		if err := s.queues[printerID].Push(cached.OrderID, req, priority); err != nil {
			rollback()
			return err
		}
		commits[len(commits)-1].pushed = true
		queueDepth.WithLabelValues(printerID).Set(float64(s.queues[printerID].Len()))
	}
	return nil
}

// CancelOrder removes the order's reserved jobs from the given printers (all
// printers when none are named) and returns their consumables. Jobs already
// handed to the execution backend are gone from the queues and cannot be
// cancelled here.
func (s *Scheduler) CancelOrder(ctx context.Context, orderID string, printerIDs ...string) bool {
	targets := printerIDs
	if len(targets) == 0 {
		targets = s.fleet.PrinterIDs()
	}
	cancelled := false
	for _, id := range targets {
		q, ok := s.queues[id]
		if !ok {
			continue
		}
		for _, job := range q.Remove(orderID) {
			if err := s.resources.Release(ctx, id, job.Requirement); err != nil {
				s.log.Error("failed returning resources for cancelled job",
					zap.String("order-id", orderID),
					zap.String("printer", id),
					zap.Error(err))
				continue
			}
			cancelled = true
		}
		queueDepth.WithLabelValues(id).Set(float64(q.Len()))
	}
	if cancelled {
		s.log.Info("cancelled order", zap.String("order-id", orderID))
	}
	return cancelled
}

// UpdateResources applies a manual refill or edit to one printer, bumping
// its version and flushing the assignment cache.
func (s *Scheduler) UpdateResources(ctx context.Context, printerID string, paper map[fleet.PaperKind]int, ink map[fleet.InkChannel]float64) error {
	if err := s.resources.Update(ctx, printerID, paper, ink); err != nil {
		return err
	}
	s.cache.Flush()
	s.log.Info("updated printer resources",
		zap.String("printer", printerID),
		zap.Any("paper", paper),
		zap.Any("ink", ink))
	return nil
}

// DequeueJob hands the next reserved job for a printer to the execution
// backend. Consumables stay consumed; completion reporting happens outside
// the engine.
func (s *Scheduler) DequeueJob(printerID string) (*queue.Job, bool) {
	q, ok := s.queues[printerID]
	if !ok {
		return nil, false
	}
	job, ok := q.Pop()
	if ok {
		queueDepth.WithLabelValues(printerID).Set(float64(q.Len()))
	}
	return job, ok
}

// fleetDigest hashes the scoring-relevant state of every printer: paper, ink
// and queue depth.
func (s *Scheduler) fleetDigest(ctx context.Context) (uint64, error) {
	states := map[string]printerDigest{}
	for _, id := range s.fleet.PrinterIDs() {
		paper, ink, _, err := s.resources.State(ctx, id)
		if err != nil {
			return 0, err
		}
		states[id] = printerDigest{
			PaperCount: paper,
			Ink:        ink,
			QueueDepth: s.queues[id].Len(),
		}
	}
	digest, err := digestOf(states)
	if err != nil {
		return 0, &scherrors.InternalError{Err: fmt.Errorf("computing fleet digest, %w", err)}
	}
	return digest, nil
}

// printerView assembles a consistent scoring view of one printer.
func (s *Scheduler) printerView(ctx context.Context, printerID string) (scheduling.PrinterView, error) {
	paper, ink, _, err := s.resources.State(ctx, printerID)
	if err != nil {
		return scheduling.PrinterView{}, err
	}
	spec := s.fleet[printerID]
	return scheduling.PrinterView{
		ID:         printerID,
		Supported:  spec.Supported,
		PaperCount: paper,
		Ink:        ink,
		Speed:      spec.Speed,
		QueueDepth: s.queues[printerID].Len(),
	}, nil
}

func typeTags(types []fleet.PrintType) []string {
	return lo.Map(types, func(t fleet.PrintType, _ int) string { return string(t) })
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case scherrors.IsValidation(err):
		return "validation_error"
	case scherrors.IsNoCapablePrinter(err):
		return "no_capable_printer"
	case scherrors.IsInsufficientResource(err):
		return "insufficient_resource"
	case scherrors.IsQueueOverflow(err):
		return "queue_overflow"
	case scherrors.IsConflict(err):
		return "conflict"
	default:
		return "internal"
	}
}
