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
	"math"

	"go.uber.org/multierr"

	"github.com/printworks/fleetprint/pkg/errors"
)

// Weights is the factor weighting used by the scorer. Each weight must be in
// [0, 1] and they must sum to 1.0 within a 0.01 tolerance.
type Weights struct {
	Paper  float64 `json:"paper"`
	Ink    float64 `json:"ink"`
	Speed  float64 `json:"speed"`
	Queue  float64 `json:"queue"`
	Extras float64 `json:"extras"`
}

// DefaultWeights returns the stock weight vector.
func DefaultWeights() Weights {
	return Weights{
		Paper:  0.35,
		Ink:    0.30,
		Speed:  0.15,
		Queue:  0.15,
		Extras: 0.05,
	}
}

// Validate checks every weight range and the unit-sum constraint.
func (w Weights) Validate() error {
	var err error
	for name, value := range map[string]float64{
		"paper":  w.Paper,
		"ink":    w.Ink,
		"speed":  w.Speed,
		"queue":  w.Queue,
		"extras": w.Extras,
	} {
		if value < 0 || value > 1 {
			err = multierr.Append(err, &errors.ValidationError{
				Field:   fmt.Sprintf("weights.%s", name),
				Message: fmt.Sprintf("must be in [0, 1], got %v", value),
			})
		}
	}
	if total := w.Paper + w.Ink + w.Speed + w.Queue + w.Extras; math.Abs(total-1.0) > 0.01 {
		err = multierr.Append(err, &errors.ValidationError{
			Field:   "weights",
			Message: fmt.Sprintf("must sum to 1.0, got %v", total),
		})
	}
	return err
}
