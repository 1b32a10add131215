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

package scheduling_test

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"

	"github.com/printworks/fleetprint/pkg/fleet"
	"github.com/printworks/fleetprint/pkg/scheduling"
)

func view() scheduling.PrinterView {
	return scheduling.PrinterView{
		ID:         "P1",
		Supported:  []fleet.PrintType{fleet.PrintTypeBW},
		PaperCount: map[fleet.PaperKind]int{fleet.PaperA4: 100},
		Ink:        map[fleet.InkChannel]float64{fleet.InkBlack: 80},
		Speed:      lo.ToPtr(50.0),
		QueueDepth: 0,
	}
}

func bwReq(pages int) fleet.SubOrderRequirement {
	return fleet.SubOrderRequirement{
		fleet.PrintTypeBW: {PaperCount: map[fleet.PaperKind]int{fleet.PaperA4: pages}},
	}
}

func TestScoreInRange(t *testing.T) {
	score := scheduling.Score(view(), bwReq(10), fleet.DefaultWeights())
	assert.Greater(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestScoreHardFailsOnShortPaper(t *testing.T) {
	assert.Zero(t, scheduling.Score(view(), bwReq(101), fleet.DefaultWeights()))
}

func TestScoreHardFailsOnEmptyRequiredChannel(t *testing.T) {
	v := view()
	v.Ink[fleet.InkBlack] = 0
	assert.Zero(t, scheduling.Score(v, bwReq(1), fleet.DefaultWeights()))
}

func TestScoreIgnoresUnrelatedChannels(t *testing.T) {
	// A bw sub-order must not be penalized by empty color tanks.
	v := view()
	v.Ink[fleet.InkCyan] = 0
	assert.Greater(t, scheduling.Score(v, bwReq(1), fleet.DefaultWeights()), 0.0)
}

func TestScorePrefersDeeperStock(t *testing.T) {
	rich := view()
	poor := view()
	poor.PaperCount[fleet.PaperA4] = 20

	req := bwReq(10)
	assert.Greater(t, scheduling.Score(rich, req, fleet.DefaultWeights()), scheduling.Score(poor, req, fleet.DefaultWeights()))
}

func TestScorePenalizesQueueDepth(t *testing.T) {
	idle := view()
	busy := view()
	busy.QueueDepth = 5

	req := bwReq(1)
	assert.Greater(t, scheduling.Score(idle, req, fleet.DefaultWeights()), scheduling.Score(busy, req, fleet.DefaultWeights()))
}

func TestScorePenalizesExtraCapabilities(t *testing.T) {
	specialist := view()
	generalist := view()
	generalist.Supported = []fleet.PrintType{
		fleet.PrintTypeBW, fleet.PrintTypeColor, fleet.PrintTypeGlossy, fleet.PrintTypeThick, fleet.PrintTypePosterSize,
	}

	req := bwReq(1)
	assert.Greater(t, scheduling.Score(specialist, req, fleet.DefaultWeights()), scheduling.Score(generalist, req, fleet.DefaultWeights()))
}

func TestScoreUnknownSpeedIsNeutral(t *testing.T) {
	slow := view()
	slow.Speed = lo.ToPtr(0.0)
	unknown := view()
	unknown.Speed = nil
	fast := view()
	fast.Speed = lo.ToPtr(100.0)

	req := bwReq(1)
	assert.Greater(t, scheduling.Score(unknown, req, fleet.DefaultWeights()), scheduling.Score(slow, req, fleet.DefaultWeights()))
	assert.Less(t, scheduling.Score(unknown, req, fleet.DefaultWeights()), scheduling.Score(fast, req, fleet.DefaultWeights()))
}
