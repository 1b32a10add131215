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

package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/printworks/fleetprint/pkg/errors"
	"github.com/printworks/fleetprint/pkg/fleet"
	"github.com/printworks/fleetprint/pkg/queue"
)

func requirement(pages int) fleet.SubOrderRequirement {
	return fleet.SubOrderRequirement{
		fleet.PrintTypeBW: {PaperCount: map[fleet.PaperKind]int{fleet.PaperA4: pages}},
	}
}

func TestPushPopPriorityOrder(t *testing.T) {
	q := queue.New(10, clocktesting.NewFakeClock(time.Now()))
	require.NoError(t, q.Push("low", requirement(1), 9))
	require.NoError(t, q.Push("high", requirement(1), 1))
	require.NoError(t, q.Push("mid", requirement(1), 5))

	for _, want := range []string{"high", "mid", "low"} {
		job, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, job.OrderID)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestEqualPrioritiesAreFIFO(t *testing.T) {
	q := queue.New(10, clocktesting.NewFakeClock(time.Now()))
	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, q.Push(id, requirement(1), 5))
	}
	for _, want := range []string{"first", "second", "third"} {
		job, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, job.OrderID)
	}
}

func TestPushOverflow(t *testing.T) {
	q := queue.New(2, clocktesting.NewFakeClock(time.Now()))
	require.NoError(t, q.Push("a", requirement(1), 5))
	require.NoError(t, q.Push("b", requirement(1), 5))
	assert.True(t, q.Full())

	err := q.Push("c", requirement(1), 5)
	require.Error(t, err)
	assert.True(t, errors.IsQueueOverflow(err))
	assert.Equal(t, 2, q.Len())
}

func TestPeekDoesNotRemove(t *testing.T) {
	q := queue.New(10, clocktesting.NewFakeClock(time.Now()))
	require.NoError(t, q.Push("a", requirement(1), 5))

	job, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, "a", job.OrderID)
	assert.Equal(t, 1, q.Len())
}

func TestRemoveReturnsJobsForRelease(t *testing.T) {
	q := queue.New(10, clocktesting.NewFakeClock(time.Now()))
	require.NoError(t, q.Push("keep", requirement(1), 1))
	require.NoError(t, q.Push("drop", requirement(2), 5))
	require.NoError(t, q.Push("drop", requirement(3), 9))

	removed := q.Remove("drop")
	require.Len(t, removed, 2)
	assert.Equal(t, 1, q.Len())

	// Heap order survives the removal.
	job, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "keep", job.OrderID)

	assert.Empty(t, q.Remove("absent"))
}

func TestEnqueuedAtComesFromClock(t *testing.T) {
	now := time.Now()
	q := queue.New(10, clocktesting.NewFakeClock(now))
	require.NoError(t, q.Push("a", requirement(1), 5))

	job, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, now.UnixNano(), job.EnqueuedAt)
}
