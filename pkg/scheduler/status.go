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

package scheduler

import (
	"context"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/printworks/fleetprint/pkg/fleet"
)

// Health label thresholds. A printer may carry several labels at once.
const (
	lowPaperThreshold = 10
	lowInkThreshold   = 10.0

	LabelReady     = "ready"
	LabelLowPaper  = "low_paper"
	LabelLowInk    = "low_ink"
	LabelQueueFull = "queue_full"
)

// PrinterStatus is an operator-facing view of one printer: capabilities,
// current consumables, queue depth and derived health labels.
type PrinterStatus struct {
	PrinterID  string                       `json:"printer_id"`
	Supported  []fleet.PrintType            `json:"supported"`
	PaperCount map[fleet.PaperKind]int      `json:"paper_count"`
	Ink        map[fleet.InkChannel]float64 `json:"ink"`
	Speed      *float64                     `json:"speed"`
	QueueDepth int                          `json:"queue_depth"`
	Version    int64                        `json:"version"`
	Labels     []string                     `json:"labels"`
	Metadata   map[string]string            `json:"metadata,omitempty"`
}

// SystemStatus aggregates the whole fleet.
type SystemStatus struct {
	Printers      []PrinterStatus `json:"printers"`
	ReadyPrinters int             `json:"ready_printers"`
	TotalQueued   int             `json:"total_queued"`
	CachedPlans   int             `json:"cached_plans"`
}

// PrinterStatus reports one printer's current state. Labels: low_paper when
// any paper kind falls below 10 sheets, low_ink when any channel falls below
// 10 percent, queue_full at capacity, ready otherwise.
func (s *Scheduler) PrinterStatus(ctx context.Context, printerID string) (PrinterStatus, error) {
	paper, ink, version, err := s.resources.State(ctx, printerID)
	if err != nil {
		return PrinterStatus{}, err
	}
	spec := s.fleet[printerID]
	depth := s.queues[printerID].Len()

	var labels []string
	if lo.SomeBy(lo.Values(paper), func(count int) bool { return count < lowPaperThreshold }) {
		labels = append(labels, LabelLowPaper)
	}
	if lo.SomeBy(lo.Values(ink), func(level float64) bool { return level < lowInkThreshold }) {
		labels = append(labels, LabelLowInk)
	}
	if s.queues[printerID].Full() {
		labels = append(labels, LabelQueueFull)
	}
	if len(labels) == 0 {
		labels = []string{LabelReady}
	}
	sort.Strings(labels)
	if lo.Contains(labels, LabelLowPaper) || lo.Contains(labels, LabelLowInk) {
		s.log.Warn("printer is low on consumables",
			zap.String("printer", printerID),
			zap.Strings("labels", labels))
	}
	return PrinterStatus{
		PrinterID:  printerID,
		Supported:  spec.Supported,
		PaperCount: paper,
		Ink:        ink,
		Speed:      spec.Speed,
		QueueDepth: depth,
		Version:    version,
		Labels:     labels,
		Metadata:   spec.Metadata,
	}, nil
}

// SystemStatus reports every printer plus engine-wide aggregates, in printer
// id order.
func (s *Scheduler) SystemStatus(ctx context.Context) (SystemStatus, error) {
	status := SystemStatus{CachedPlans: s.cache.Count()}
	for _, id := range s.fleet.PrinterIDs() {
		ps, err := s.PrinterStatus(ctx, id)
		if err != nil {
			return SystemStatus{}, err
		}
		status.Printers = append(status.Printers, ps)
		status.TotalQueued += ps.QueueDepth
		if lo.Contains(ps.Labels, LabelReady) {
			status.ReadyPrinters++
		}
	}
	return status, nil
}
