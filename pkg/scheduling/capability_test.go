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

	"github.com/stretchr/testify/assert"

	"github.com/printworks/fleetprint/pkg/fleet"
	"github.com/printworks/fleetprint/pkg/scheduling"
	"github.com/printworks/fleetprint/pkg/test"
)

func TestCapableIntersection(t *testing.T) {
	idx := scheduling.NewCapabilityIndex(test.Fleet())

	assert.Equal(t, []string{"P1", "P2", "P5", "P6"}, idx.Capable([]fleet.PrintType{fleet.PrintTypeBW}))
	assert.Equal(t, []string{"P1", "P5", "P6"}, idx.Capable([]fleet.PrintType{fleet.PrintTypeBW, fleet.PrintTypeColor}))
	assert.Equal(t, []string{"P6"}, idx.Capable([]fleet.PrintType{fleet.PrintTypeThick, fleet.PrintTypeGlossy}))
	assert.Empty(t, idx.Capable([]fleet.PrintType{"holographic"}))
	assert.Empty(t, idx.Capable(nil))
}

func TestRebuildReplacesContents(t *testing.T) {
	idx := scheduling.NewCapabilityIndex(test.Fleet())
	idx.Rebuild(fleet.Fleet{
		"Q1": test.PrinterSpec(test.SpecOptions{Supported: []fleet.PrintType{fleet.PrintTypeGlossy}}),
	})

	assert.Empty(t, idx.Capable([]fleet.PrintType{fleet.PrintTypeBW}))
	assert.Equal(t, []string{"Q1"}, idx.Capable([]fleet.PrintType{fleet.PrintTypeGlossy}))
}
