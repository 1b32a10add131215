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
	"sort"

	"github.com/samber/lo"

	"github.com/printworks/fleetprint/pkg/fleet"
)

// PriorityMap ranks, for every combination of the given print types, the
// printers that support the whole combination, most specialized first (fewest
// extra capabilities, then id). Keys are CombinationKey strings. The
// scheduler uses a priority map as a tie-breaker between equally scored
// candidates.
func PriorityMap(types []fleet.PrintType, f fleet.Fleet) map[string][]string {
	result := map[string][]string{}
	n := len(types)
	for mask := 1; mask < 1<<n; mask++ {
		var combo []fleet.PrintType
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				combo = append(combo, types[i])
			}
		}
		type ranked struct {
			extras int
			id     string
		}
		var printers []ranked
		for id, spec := range f {
			if !spec.Supports(combo) {
				continue
			}
			printers = append(printers, ranked{extras: len(spec.Supported) - len(combo), id: id})
		}
		sort.Slice(printers, func(i, j int) bool {
			if printers[i].extras != printers[j].extras {
				return printers[i].extras < printers[j].extras
			}
			return printers[i].id < printers[j].id
		})
		result[CombinationKey(combo)] = lo.Map(printers, func(r ranked, _ int) string { return r.id })
	}
	return result
}
