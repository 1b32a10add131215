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

package resources_test

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/printworks/fleetprint/pkg/errors"
	"github.com/printworks/fleetprint/pkg/fleet"
	"github.com/printworks/fleetprint/pkg/resources"
)

func newManager(t *testing.T) *resources.Manager {
	t.Helper()
	f := fleet.Fleet{
		"P1": {
			Supported:  []fleet.PrintType{fleet.PrintTypeBW, fleet.PrintTypeColor},
			PaperCount: map[fleet.PaperKind]int{fleet.PaperA4: 100},
			Ink:        map[fleet.InkChannel]float64{fleet.InkBlack: 50, fleet.InkCyan: 40, fleet.InkMagenta: 40, fleet.InkYellow: 40},
			Speed:      lo.ToPtr(30.0),
		},
	}
	return resources.NewManager(f, fleet.DefaultConsumption(), time.Second, clocktesting.NewFakeClock(time.Now()))
}

func bwOrder(pages int) fleet.SubOrderRequirement {
	return fleet.SubOrderRequirement{
		fleet.PrintTypeBW: {PaperCount: map[fleet.PaperKind]int{fleet.PaperA4: pages}},
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	snapshot, err := m.Snapshot(ctx, "P1")
	require.NoError(t, err)
	snapshot.PaperCount[fleet.PaperA4] = 0

	paper, _, _, err := m.State(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 100, paper[fleet.PaperA4])
}

func TestValidateAndConsume(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	snapshot, err := m.Snapshot(ctx, "P1")
	require.NoError(t, err)
	require.NoError(t, m.ValidateAndConsume(ctx, "P1", bwOrder(10), snapshot))

	paper, ink, version, err := m.State(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 90, paper[fleet.PaperA4])
	assert.InDelta(t, 45.0, ink[fleet.InkBlack], 1e-9)
	assert.Equal(t, int64(1), version)
}

func TestConsumeWithStaleSnapshotConflicts(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	stale, err := m.Snapshot(ctx, "P1")
	require.NoError(t, err)
	fresh, err := m.Snapshot(ctx, "P1")
	require.NoError(t, err)
	require.NoError(t, m.ValidateAndConsume(ctx, "P1", bwOrder(1), fresh))

	err = m.ValidateAndConsume(ctx, "P1", bwOrder(1), stale)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	// The conflicting attempt must not have mutated anything.
	paper, _, version, err := m.State(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 99, paper[fleet.PaperA4])
	assert.Equal(t, int64(1), version)
}

func TestConsumeInsufficientPaper(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	snapshot, err := m.Snapshot(ctx, "P1")
	require.NoError(t, err)
	err = m.ValidateAndConsume(ctx, "P1", bwOrder(101), snapshot)
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientResource(err))

	paper, _, version, err := m.State(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 100, paper[fleet.PaperA4])
	assert.Equal(t, int64(0), version)
}

func TestConsumeInsufficientInk(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	// 10 bw pages demand 5% black; leave only 1% in the tank so the paper
	// check passes and the ink check fails.
	require.NoError(t, m.Update(ctx, "P1", nil, map[fleet.InkChannel]float64{fleet.InkBlack: 1}))

	snapshot, err := m.Snapshot(ctx, "P1")
	require.NoError(t, err)
	err = m.ValidateAndConsume(ctx, "P1", bwOrder(10), snapshot)
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientResource(err))

	paper, _, _, err := m.State(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 100, paper[fleet.PaperA4])
}

func TestReleaseCompensatesConsume(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	snapshot, err := m.Snapshot(ctx, "P1")
	require.NoError(t, err)
	require.NoError(t, m.ValidateAndConsume(ctx, "P1", bwOrder(10), snapshot))
	require.NoError(t, m.Release(ctx, "P1", bwOrder(10)))

	paper, ink, version, err := m.State(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 100, paper[fleet.PaperA4])
	assert.InDelta(t, 50.0, ink[fleet.InkBlack], 1e-9)
	// Consume and release each bump the version.
	assert.Equal(t, int64(2), version)
}

func TestReleaseCapsInkAtFull(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	require.NoError(t, m.Update(ctx, "P1", nil, map[fleet.InkChannel]float64{fleet.InkBlack: 99}))
	require.NoError(t, m.Release(ctx, "P1", bwOrder(10)))

	_, ink, _, err := m.State(ctx, "P1")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, ink[fleet.InkBlack], 1e-9)
}

func TestUpdateSetsAbsoluteValues(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	require.NoError(t, m.Update(ctx, "P1",
		map[fleet.PaperKind]int{fleet.PaperA4: 500, fleet.PaperA3: 20},
		map[fleet.InkChannel]float64{fleet.InkBlack: 100},
	))

	paper, ink, version, err := m.State(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 500, paper[fleet.PaperA4])
	assert.Equal(t, 20, paper[fleet.PaperA3])
	assert.InDelta(t, 100.0, ink[fleet.InkBlack], 1e-9)
	// Untouched channels keep their levels.
	assert.InDelta(t, 40.0, ink[fleet.InkCyan], 1e-9)
	assert.Equal(t, int64(1), version)
}

func TestUpdateRejectsOutOfRangeValues(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	err := m.Update(ctx, "P1", map[fleet.PaperKind]int{fleet.PaperA4: -1}, nil)
	assert.True(t, errors.IsValidation(err))

	err = m.Update(ctx, "P1", nil, map[fleet.InkChannel]float64{fleet.InkBlack: 101})
	assert.True(t, errors.IsValidation(err))

	// Rejected updates must not bump the version.
	_, _, version, err := m.State(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
}

func TestUnknownPrinter(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	_, err := m.Snapshot(ctx, "nope")
	assert.True(t, errors.IsValidation(err))
}

func TestUpdateInvalidatesInFlightSnapshots(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	snapshot, err := m.Snapshot(ctx, "P1")
	require.NoError(t, err)
	require.NoError(t, m.Update(ctx, "P1", map[fleet.PaperKind]int{fleet.PaperA4: 100}, nil))

	err = m.ValidateAndConsume(ctx, "P1", bwOrder(1), snapshot)
	assert.True(t, errors.IsConflict(err))
}
