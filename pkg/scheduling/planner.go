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
	"strings"

	"github.com/samber/lo"

	"github.com/printworks/fleetprint/pkg/errors"
	"github.com/printworks/fleetprint/pkg/fleet"
)

// Plan splits an order's print types into the minimum number of sub-orders
// that can each run on a single capable printer, via greedy set cover. The
// returned sub-orders are pairwise disjoint and their union equals the
// order's type set. An order is bounded at 10 types, so exhaustive subset
// enumeration stays cheap.
func Plan(order fleet.Order, index *CapabilityIndex) ([][]fleet.PrintType, error) {
	types := order.Types()
	candidates := supportedSubsets(types, index)

	remaining := lo.SliceToMap(types, func(t fleet.PrintType) (fleet.PrintType, struct{}) {
		return t, struct{}{}
	})
	var result [][]fleet.PrintType
	for len(remaining) > 0 {
		best := pickBest(candidates, remaining)
		if best == nil {
			return nil, &errors.NoCapablePrinterError{
				Types: lo.Map(sortedTypes(remaining), func(t fleet.PrintType, _ int) string { return string(t) }),
			}
		}
		// Emit only the uncovered slice of the winner so sub-orders stay
		// disjoint.
		subOrder := lo.Filter(best, func(t fleet.PrintType, _ int) bool {
			_, ok := remaining[t]
			return ok
		})
		result = append(result, subOrder)
		for _, t := range subOrder {
			delete(remaining, t)
		}
	}
	return result, nil
}

// supportedSubsets enumerates, largest first, every subset of the order's
// types that at least one printer fully supports.
func supportedSubsets(types []fleet.PrintType, index *CapabilityIndex) [][]fleet.PrintType {
	n := len(types)
	var subsets [][]fleet.PrintType
	for size := n; size >= 1; size-- {
		for mask := 1; mask < 1<<n; mask++ {
			var subset []fleet.PrintType
			for i := 0; i < n; i++ {
				if mask&(1<<i) != 0 {
					subset = append(subset, types[i])
				}
			}
			if len(subset) != size {
				continue
			}
			if len(index.Capable(subset)) > 0 {
				subsets = append(subsets, subset)
			}
		}
	}
	return subsets
}

// pickBest selects the candidate maximizing coverage of the remaining types.
// Ties prefer the larger candidate, then the lexicographically smaller sorted
// tag list.
func pickBest(candidates [][]fleet.PrintType, remaining map[fleet.PrintType]struct{}) []fleet.PrintType {
	var best []fleet.PrintType
	bestOverlap := 0
	for _, candidate := range candidates {
		overlap := lo.CountBy(candidate, func(t fleet.PrintType) bool {
			_, ok := remaining[t]
			return ok
		})
		if overlap == 0 {
			continue
		}
		switch {
		case overlap > bestOverlap:
			best, bestOverlap = candidate, overlap
		case overlap == bestOverlap && len(candidate) > len(best):
			best = candidate
		case overlap == bestOverlap && len(candidate) == len(best) && CombinationKey(candidate) < CombinationKey(best):
			best = candidate
		}
	}
	return best
}

// CombinationKey canonicalizes a print type combination as its sorted tags
// joined by commas. Priority maps are keyed this way.
func CombinationKey(types []fleet.PrintType) string {
	tags := lo.Map(types, func(t fleet.PrintType, _ int) string { return string(t) })
	sort.Strings(tags)
	return strings.Join(tags, ",")
}

func sortedTypes(set map[fleet.PrintType]struct{}) []fleet.PrintType {
	types := lo.Keys(set)
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
