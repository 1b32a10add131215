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

package scheduling

import (
	"github.com/samber/lo"

	"github.com/printworks/fleetprint/pkg/fleet"
)

// PrinterView is the scoring-relevant read of one printer at a moment:
// static capabilities plus a consistent copy of its consumables and queue
// depth.
type PrinterView struct {
	ID         string
	Supported  []fleet.PrintType
	PaperCount map[fleet.PaperKind]int
	Ink        map[fleet.InkChannel]float64
	Speed      *float64
	QueueDepth int
}

// Score rates how well a printer fits a sub-order, in [0, 1]. It is pure: no
// side effects, no locking. A hard resource failure (short paper, empty
// required ink channel) scores 0 outright.
func Score(view PrinterView, req fleet.SubOrderRequirement, weights fleet.Weights) float64 {
	paperScore, ok := paperScore(view, req)
	if !ok {
		return 0
	}
	inkScore, ok := inkScore(view, req)
	if !ok {
		return 0
	}
	return weights.Paper*paperScore +
		weights.Ink*inkScore +
		weights.Speed*speedScore(view.Speed) +
		weights.Queue*queueScore(view.QueueDepth) +
		weights.Extras*extrasScore(view.Supported, req)
}

// paperScore is the minimum post-consumption remaining fraction across every
// requested paper kind. Any shortfall is a hard fail.
func paperScore(view PrinterView, req fleet.SubOrderRequirement) (float64, bool) {
	minRemaining := 100.0
	for _, requirement := range req {
		for kind, need := range requirement.PaperCount {
			available := view.PaperCount[kind]
			if available < need {
				return 0, false
			}
			remaining := 0.0
			if available > 0 {
				remaining = float64(available-need) / float64(available) * 100.0
			}
			minRemaining = lo.Min([]float64{minRemaining, remaining})
		}
	}
	return percentScore(minRemaining), true
}

// inkScore is the minimum remaining percentage across the channels the
// sub-order's print types draw on. A required channel at or below zero is a
// hard fail.
func inkScore(view PrinterView, req fleet.SubOrderRequirement) (float64, bool) {
	minLevel := 100.0
	sawChannel := false
	for printType := range req {
		for _, channel := range fleet.RequiredChannels(printType) {
			level := view.Ink[channel]
			if level <= 0 {
				return 0, false
			}
			sawChannel = true
			minLevel = lo.Min([]float64{minLevel, level})
		}
	}
	if !sawChannel {
		return 1.0, true
	}
	return percentScore(minLevel), true
}

// speedScore normalizes pages per minute to [0, 1], capped at 100 ppm. An
// unknown speed scores neutral.
func speedScore(speed *float64) float64 {
	if speed == nil {
		return 0.5
	}
	return percentScore(lo.Min([]float64{*speed, 100.0}))
}

func queueScore(depth int) float64 {
	return 1.0 / (1.0 + float64(depth))
}

// extrasScore penalizes capabilities the sub-order doesn't need, preferring
// specialized printers when scores are otherwise close.
func extrasScore(supported []fleet.PrintType, req fleet.SubOrderRequirement) float64 {
	extras := lo.CountBy(supported, func(t fleet.PrintType) bool {
		_, required := req[t]
		return !required
	})
	return 1.0 - float64(lo.Min([]int{extras, 10}))/10.0
}

func percentScore(pct float64) float64 {
	return lo.Clamp(pct, 0, 100) / 100.0
}
