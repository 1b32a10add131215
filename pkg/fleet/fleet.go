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

// Package fleet holds the data model shared by the scheduling engine: the
// printer fleet definition, orders and their per-type requirements, scoring
// weights and the ink consumption policy. Print types, paper kinds and ink
// channels are open, string-backed enums so that a fleet can be extended
// without touching this package.
package fleet

import (
	"sort"

	"github.com/samber/lo"
)

// PrintType categorizes a print job (black-and-white, color, ...). It is used
// both as a requirement label on orders and as a capability tag on printers.
type PrintType string

// Well-known print types. The set is open; unknown tags validate as long as
// they are alphanumeric.
const (
	PrintTypeBW         PrintType = "bw"
	PrintTypeColor      PrintType = "color"
	PrintTypeGlossy     PrintType = "glossy"
	PrintTypeThick      PrintType = "thick"
	PrintTypePosterSize PrintType = "postersize"
)

// PaperKind is a physical sheet inventory bucket, orthogonal to PrintType.
type PaperKind string

const (
	PaperA4     PaperKind = "A4"
	PaperA3     PaperKind = "A3"
	PaperLetter PaperKind = "Letter"
	PaperLegal  PaperKind = "Legal"
	PaperThick  PaperKind = "Thick"
	PaperGlossy PaperKind = "Glossy"
	PaperPoster PaperKind = "Poster"
)

// InkChannel is a colorant tank on a printer, measured as percent remaining.
type InkChannel string

const (
	InkBlack   InkChannel = "black"
	InkCyan    InkChannel = "C"
	InkMagenta InkChannel = "M"
	InkYellow  InkChannel = "Y"
)

// Requirement is the demand of a single print type: how many sheets of each
// paper kind it needs.
type Requirement struct {
	// PaperCount maps paper kind to the number of sheets requested.
	PaperCount map[PaperKind]int `json:"paper_count"`
}

// Pages is the total page count across all paper kinds.
func (r Requirement) Pages() int {
	return lo.Sum(lo.Values(r.PaperCount))
}

// Order maps each requested print type to its requirement. Orders are atomic
// inputs; the planner decomposes them into sub-orders.
type Order map[PrintType]Requirement

// Types returns the order's print types in sorted order.
func (o Order) Types() []PrintType {
	types := lo.Keys(o)
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// SubOrderRequirement is the slice of an order covered by a single sub-order.
// It has the same shape as Order, restricted to the sub-order's print types.
type SubOrderRequirement map[PrintType]Requirement

// SubOrderFor extracts the requirement for the given print types from the
// order.
func (o Order) SubOrderFor(types []PrintType) SubOrderRequirement {
	return lo.SliceToMap(types, func(t PrintType) (PrintType, Requirement) {
		return t, o[t]
	})
}

// Spec is the static definition of one printer as provided at fleet
// construction. The engine copies the mutable consumable state out of the
// spec; a Spec itself is never mutated.
type Spec struct {
	// Supported lists the print types this printer can execute.
	Supported []PrintType `json:"supported"`
	// PaperCount is the sheets on hand per paper kind.
	PaperCount map[PaperKind]int `json:"paper_count"`
	// Ink is the percent remaining per channel, each in [0, 100].
	Ink map[InkChannel]float64 `json:"ink"`
	// Speed is pages per minute. Scoring caps it at 100. Nil means unknown.
	Speed *float64 `json:"speed"`
	// Metadata (location, firmware, ...) is opaque to the engine.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Supports reports whether every given print type is in the spec's supported
// set.
func (s Spec) Supports(types []PrintType) bool {
	return lo.Every(s.Supported, types)
}

// Fleet maps printer id to its spec.
type Fleet map[string]Spec

// PrinterIDs returns the fleet's printer ids in sorted order.
func (f Fleet) PrinterIDs() []string {
	ids := lo.Keys(f)
	sort.Strings(ids)
	return ids
}
