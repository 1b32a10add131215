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

// Package test provides fleet and order fixtures for the engine's test
// suites.
package test

import (
	"fmt"

	"github.com/Pallinder/go-randomdata"
	"github.com/imdario/mergo"
	"github.com/samber/lo"

	"github.com/printworks/fleetprint/pkg/fleet"
)

// SpecOptions customizes a printer spec fixture.
type SpecOptions struct {
	Supported  []fleet.PrintType
	PaperCount map[fleet.PaperKind]int
	Ink        map[fleet.InkChannel]float64
	Speed      *float64
	Metadata   map[string]string
}

// PrinterSpec returns a test printer spec with sane defaults, overridden by
// the supplied options in order.
func PrinterSpec(overrides ...SpecOptions) fleet.Spec {
	opts := SpecOptions{}
	for _, override := range overrides {
		lo.Must0(mergo.Merge(&opts, override, mergo.WithOverride))
	}
	if opts.Supported == nil {
		opts.Supported = []fleet.PrintType{fleet.PrintTypeBW}
	}
	if opts.PaperCount == nil {
		opts.PaperCount = map[fleet.PaperKind]int{fleet.PaperA4: 100}
	}
	if opts.Ink == nil {
		opts.Ink = map[fleet.InkChannel]float64{fleet.InkBlack: 100}
	}
	if opts.Speed == nil {
		opts.Speed = lo.ToPtr(30.0)
	}
	if opts.Metadata == nil {
		opts.Metadata = map[string]string{
			"location": randomdata.City(),
			"serial":   fmt.Sprintf("SN-%06d", randomdata.Number(0, 999999)),
		}
	}
	return fleet.Spec{
		Supported:  opts.Supported,
		PaperCount: opts.PaperCount,
		Ink:        opts.Ink,
		Speed:      opts.Speed,
		Metadata:   opts.Metadata,
	}
}

// Fleet returns the six-printer baseline used across the engine's suites:
// two generalists, three specialists and one do-everything machine.
func Fleet() fleet.Fleet {
	return fleet.Fleet{
		"P1": PrinterSpec(SpecOptions{
			Supported:  []fleet.PrintType{fleet.PrintTypeBW, fleet.PrintTypeColor},
			PaperCount: map[fleet.PaperKind]int{fleet.PaperA4: 180, fleet.PaperA3: 50},
			Ink:        map[fleet.InkChannel]float64{fleet.InkBlack: 70, fleet.InkCyan: 60, fleet.InkMagenta: 55, fleet.InkYellow: 50},
			Speed:      lo.ToPtr(35.0),
		}),
		"P2": PrinterSpec(SpecOptions{
			Supported:  []fleet.PrintType{fleet.PrintTypeBW, fleet.PrintTypeThick},
			PaperCount: map[fleet.PaperKind]int{fleet.PaperA4: 90, fleet.PaperThick: 40},
			Ink:        map[fleet.InkChannel]float64{fleet.InkBlack: 80},
			Speed:      lo.ToPtr(25.0),
		}),
		"P3": PrinterSpec(SpecOptions{
			Supported:  []fleet.PrintType{fleet.PrintTypeColor, fleet.PrintTypeGlossy},
			PaperCount: map[fleet.PaperKind]int{fleet.PaperGlossy: 30, fleet.PaperA4: 70},
			Ink:        map[fleet.InkChannel]float64{fleet.InkBlack: 50, fleet.InkCyan: 45, fleet.InkMagenta: 46, fleet.InkYellow: 42},
			Speed:      lo.ToPtr(20.0),
		}),
		"P4": PrinterSpec(SpecOptions{
			Supported:  []fleet.PrintType{fleet.PrintTypePosterSize},
			PaperCount: map[fleet.PaperKind]int{fleet.PaperPoster: 15},
			Ink:        map[fleet.InkChannel]float64{fleet.InkBlack: 40, fleet.InkCyan: 30, fleet.InkMagenta: 32, fleet.InkYellow: 28},
			Speed:      lo.ToPtr(15.0),
		}),
		"P5": PrinterSpec(SpecOptions{
			Supported:  []fleet.PrintType{fleet.PrintTypeBW, fleet.PrintTypeColor, fleet.PrintTypeGlossy},
			PaperCount: map[fleet.PaperKind]int{fleet.PaperA4: 200, fleet.PaperGlossy: 60},
			Ink:        map[fleet.InkChannel]float64{fleet.InkBlack: 85, fleet.InkCyan: 80, fleet.InkMagenta: 79, fleet.InkYellow: 78},
			Speed:      lo.ToPtr(50.0),
		}),
		"P6": PrinterSpec(SpecOptions{
			Supported:  []fleet.PrintType{fleet.PrintTypeBW, fleet.PrintTypeColor, fleet.PrintTypeThick, fleet.PrintTypeGlossy, fleet.PrintTypePosterSize},
			PaperCount: map[fleet.PaperKind]int{fleet.PaperA4: 300, fleet.PaperThick: 80, fleet.PaperGlossy: 100, fleet.PaperPoster: 40},
			Ink:        map[fleet.InkChannel]float64{fleet.InkBlack: 95, fleet.InkCyan: 92, fleet.InkMagenta: 93, fleet.InkYellow: 94},
			Speed:      lo.ToPtr(65.0),
		}),
	}
}

// Order builds an order from per-type paper demands.
func Order(demands map[fleet.PrintType]map[fleet.PaperKind]int) fleet.Order {
	return lo.MapValues(demands, func(paper map[fleet.PaperKind]int, _ fleet.PrintType) fleet.Requirement {
		return fleet.Requirement{PaperCount: paper}
	})
}
