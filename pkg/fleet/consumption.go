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

package fleet

// ConsumptionTable is the ink consumption policy: percent of each channel
// consumed per printed page, by print type. It is configuration, not code;
// the whole table can be overridden at engine construction.
type ConsumptionTable map[PrintType]map[InkChannel]float64

// DefaultConsumption returns the stock consumption rates. Print types absent
// from the table consume no ink.
func DefaultConsumption() ConsumptionTable {
	return ConsumptionTable{
		PrintTypeBW:         {InkBlack: 0.5},
		PrintTypeColor:      {InkCyan: 0.3, InkMagenta: 0.3, InkYellow: 0.3, InkBlack: 0.1},
		PrintTypeGlossy:     {InkCyan: 0.5, InkMagenta: 0.5, InkYellow: 0.5, InkBlack: 0.2},
		PrintTypeThick:      {InkCyan: 0.45, InkMagenta: 0.45, InkYellow: 0.45, InkBlack: 0.15},
		PrintTypePosterSize: {InkCyan: 0.8, InkMagenta: 0.8, InkYellow: 0.8, InkBlack: 0.5},
	}
}

// Demand aggregates what a sub-order takes out of a printer: sheets per paper
// kind plus ink percent per channel under the given consumption table.
type Demand struct {
	Paper map[PaperKind]int
	Ink   map[InkChannel]float64
}

// DemandFor computes the total paper and ink demand of a sub-order.
func DemandFor(req SubOrderRequirement, table ConsumptionTable) Demand {
	demand := Demand{
		Paper: map[PaperKind]int{},
		Ink:   map[InkChannel]float64{},
	}
	for printType, requirement := range req {
		for kind, count := range requirement.PaperCount {
			demand.Paper[kind] += count
		}
		pages := requirement.Pages()
		for channel, rate := range table[printType] {
			demand.Ink[channel] += float64(pages) * rate
		}
	}
	return demand
}

// RequiredChannels returns the ink channels a print type draws on for
// scoring purposes: bw requires black, the color family requires C, M and Y.
// Unknown types require no channels.
func RequiredChannels(printType PrintType) []InkChannel {
	switch printType {
	case PrintTypeBW:
		return []InkChannel{InkBlack}
	case PrintTypeColor, PrintTypeGlossy, PrintTypeThick, PrintTypePosterSize:
		return []InkChannel{InkCyan, InkMagenta, InkYellow}
	default:
		return nil
	}
}
