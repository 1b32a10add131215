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

import (
	"fmt"
	"unicode"

	"go.uber.org/multierr"

	"github.com/printworks/fleetprint/pkg/errors"
)

const (
	// MaxOrderTypes bounds the number of print types in a single order.
	MaxOrderTypes = 10
	// MaxPaperCount bounds a single paper-kind request within an order.
	MaxPaperCount = 10000
)

// ValidateOrder checks an order's shape and ranges. Violations name the
// offending field.
func ValidateOrder(order Order) error {
	if len(order) == 0 {
		return &errors.ValidationError{Field: "order", Message: "cannot be empty"}
	}
	if len(order) > MaxOrderTypes {
		return &errors.ValidationError{
			Field:   "order",
			Message: fmt.Sprintf("at most %d print types per order, got %d", MaxOrderTypes, len(order)),
		}
	}
	for printType, requirement := range order {
		if !isAlphanumeric(string(printType)) {
			return &errors.ValidationError{
				Field:   "order",
				Message: fmt.Sprintf("invalid print type %q", printType),
			}
		}
		if requirement.PaperCount == nil {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("order.%s", printType),
				Message: "missing paper_count",
			}
		}
		for kind, count := range requirement.PaperCount {
			if count < 1 || count > MaxPaperCount {
				return &errors.ValidationError{
					Field:   fmt.Sprintf("order.%s.paper_count.%s", printType, kind),
					Message: fmt.Sprintf("count must be in [1, %d], got %d", MaxPaperCount, count),
				}
			}
		}
	}
	return nil
}

// Validate checks the fleet definition: required fields, ink percentages in
// [0, 100], non-negative paper counts and speed.
func (f Fleet) Validate() (err error) {
	if len(f) == 0 {
		return &errors.ValidationError{Field: "fleet", Message: "cannot be empty"}
	}
	for id, spec := range f {
		if len(spec.Supported) == 0 {
			err = multierr.Append(err, &errors.ValidationError{
				Field:   fmt.Sprintf("fleet.%s.supported", id),
				Message: "must list at least one print type",
			})
		}
		if spec.PaperCount == nil {
			err = multierr.Append(err, &errors.ValidationError{
				Field:   fmt.Sprintf("fleet.%s.paper_count", id),
				Message: "is required",
			})
		}
		for kind, count := range spec.PaperCount {
			if count < 0 {
				err = multierr.Append(err, &errors.ValidationError{
					Field:   fmt.Sprintf("fleet.%s.paper_count.%s", id, kind),
					Message: fmt.Sprintf("must be non-negative, got %d", count),
				})
			}
		}
		if spec.Ink == nil {
			err = multierr.Append(err, &errors.ValidationError{
				Field:   fmt.Sprintf("fleet.%s.ink", id),
				Message: "is required",
			})
		}
		for channel, level := range spec.Ink {
			if level < 0 || level > 100 {
				err = multierr.Append(err, &errors.ValidationError{
					Field:   fmt.Sprintf("fleet.%s.ink.%s", id, channel),
					Message: fmt.Sprintf("must be in [0, 100], got %v", level),
				})
			}
		}
		if spec.Speed == nil {
			err = multierr.Append(err, &errors.ValidationError{
				Field:   fmt.Sprintf("fleet.%s.speed", id),
				Message: "is required",
			})
		} else if *spec.Speed < 0 {
			err = multierr.Append(err, &errors.ValidationError{
				Field:   fmt.Sprintf("fleet.%s.speed", id),
				Message: fmt.Sprintf("must be non-negative, got %v", *spec.Speed),
			})
		}
	}
	return err
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
