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

// Package queue implements the bounded per-printer work queue: a thread-safe
// min-heap keyed by (priority, enqueue sequence). Lower priority values are
// served first; ties are FIFO.
package queue

import (
	"container/heap"
	"sync"

	"github.com/samber/lo"
	"k8s.io/utils/clock"

	"github.com/printworks/fleetprint/pkg/errors"
	"github.com/printworks/fleetprint/pkg/fleet"
)

// Job is a reserved unit of work owned by a printer's queue until the
// execution backend consumes it.
type Job struct {
	OrderID     string
	Requirement fleet.SubOrderRequirement
	// Priority is in [1, 10]; lower is served earlier.
	Priority   int
	EnqueuedAt int64 // unix nanos, from the injected clock
	seq        uint64
}

// Queue is a bounded priority queue. All operations are mutually exclusive
// under an internal lock.
type Queue struct {
	mu        sync.Mutex
	items     jobHeap
	maxLength int
	clock     clock.Clock
	nextSeq   uint64
}

// New returns an empty queue capped at maxLength entries.
func New(maxLength int, clk clock.Clock) *Queue {
	return &Queue{
		maxLength: maxLength,
		clock:     clk,
	}
}

// Push enqueues a job. It fails with a QueueOverflowError when the queue is
// at capacity.
func (q *Queue) Push(orderID string, requirement fleet.SubOrderRequirement, priority int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.maxLength {
		return &errors.QueueOverflowError{MaxLength: q.maxLength}
	}
	q.nextSeq++
	heap.Push(&q.items, &Job{
		OrderID:     orderID,
		Requirement: requirement,
		Priority:    priority,
		EnqueuedAt:  q.clock.Now().UnixNano(),
		seq:         q.nextSeq,
	})
	return nil
}

// Pop removes and returns the highest-priority job, or false when empty.
func (q *Queue) Pop() (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	return heap.Pop(&q.items).(*Job), true
}

// Peek returns the highest-priority job without removing it.
func (q *Queue) Peek() (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[0], true
}

// Len returns the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Full reports whether the queue is at capacity.
func (q *Queue) Full() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) >= q.maxLength
}

// Remove deletes every job belonging to the given order and returns the
// removed jobs so the caller can return their reserved resources. The heap is
// rebuilt afterwards.
func (q *Queue) Remove(orderID string) []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := lo.Filter(q.items, func(j *Job, _ int) bool { return j.OrderID == orderID })
	if len(removed) == 0 {
		return nil
	}
	q.items = lo.Filter(q.items, func(j *Job, _ int) bool { return j.OrderID != orderID })
	heap.Init(&q.items)
	return removed
}

// jobHeap orders by priority ascending, then enqueue sequence ascending.
type jobHeap []*Job

func (h jobHeap) Len() int { return len(h) }
func (h jobHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].seq < h[j].seq
}
func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) { *h = append(*h, x.(*Job)) }

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
