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

// Package scheduling contains the pure scheduling machinery: the capability
// index over the fleet, the greedy sub-order planner and the multi-factor
// printer scorer. Nothing in this package mutates printer state.
package scheduling

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/printworks/fleetprint/pkg/fleet"
)

// CapabilityIndex is an inverted index from print type to the printers that
// support it. Reads take a shared lock so lookups stay safe during a rebuild.
type CapabilityIndex struct {
	mu     sync.RWMutex
	byType map[fleet.PrintType]map[string]struct{}
}

// NewCapabilityIndex builds the index for the given fleet.
func NewCapabilityIndex(f fleet.Fleet) *CapabilityIndex {
	idx := &CapabilityIndex{}
	idx.Rebuild(f)
	return idx
}

// Rebuild replaces the index contents from scratch. Called whenever a printer
// is added or removed or its supported set changes.
func (c *CapabilityIndex) Rebuild(f fleet.Fleet) {
	byType := map[fleet.PrintType]map[string]struct{}{}
	for id, spec := range f {
		for _, printType := range spec.Supported {
			if byType[printType] == nil {
				byType[printType] = map[string]struct{}{}
			}
			byType[printType][id] = struct{}{}
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byType = byType
}

// Capable returns the printers supporting every one of the given print
// types: a pure set intersection. Empty input yields an empty result. The
// output is sorted for determinism, though callers must not rely on order.
func (c *CapabilityIndex) Capable(types []fleet.PrintType) []string {
	if len(types) == 0 {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := lo.Keys(c.byType[types[0]])
	for _, printType := range types[1:] {
		supported := c.byType[printType]
		result = lo.Filter(result, func(id string, _ int) bool {
			_, ok := supported[id]
			return ok
		})
	}
	sort.Strings(result)
	return result
}
