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

// Package errors defines the typed failures surfaced by the scheduling
// engine. Callers branch on kind with the Is* predicates, which unwrap
// through fmt.Errorf("%w") chains.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidationError reports malformed input: orders, fleet definitions or
// weights. It is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validating %q, %s", e.Field, e.Message)
}

// NoCapablePrinterError means no printer in the fleet supports some required
// print type combination. The order cannot succeed against the current fleet.
type NoCapablePrinterError struct {
	Types []string
}

func (e *NoCapablePrinterError) Error() string {
	return fmt.Sprintf("no printer supports print types [%s]", strings.Join(e.Types, ","))
}

// InsufficientResourceError means a printer (or every otherwise-capable
// printer) lacks the paper or ink a sub-order needs. A retry after refill may
// succeed.
type InsufficientResourceError struct {
	PrinterID string
	// Resource names the failing consumable, e.g. "paper:A4" or "ink:C".
	Resource  string
	Available float64
	Needed    float64
	// Detail aggregates per-printer shortages when the failure spans the
	// whole candidate set.
	Detail string
}

func (e *InsufficientResourceError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("printer %q has insufficient %s, available=%v, needed=%v",
		e.PrinterID, e.Resource, e.Available, e.Needed)
}

// QueueOverflowError means every otherwise-capable printer is at its queue
// cap. The order may succeed once queues drain.
type QueueOverflowError struct {
	PrinterIDs []string
	MaxLength  int
}

func (e *QueueOverflowError) Error() string {
	return fmt.Sprintf("queue full (max=%d) on printers [%s]", e.MaxLength, strings.Join(e.PrinterIDs, ","))
}

// ConflictError means a printer's version moved between snapshot and
// consume. The scheduler retries these; callers only see one if the retry
// budget is exhausted.
type ConflictError struct {
	PrinterID       string
	SnapshotVersion int64
	CurrentVersion  int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("resources changed for printer %q during scheduling, snapshot=v%d, current=v%d",
		e.PrinterID, e.SnapshotVersion, e.CurrentVersion)
}

// LockTimeoutError means a per-printer lock could not be acquired within the
// configured bound. Treated as a system error.
type LockTimeoutError struct {
	PrinterID string
	Timeout   time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s acquiring lock for printer %q", e.Timeout, e.PrinterID)
}

// InternalError wraps invariant violations and other failures that indicate
// an engine bug rather than a caller mistake.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string { return e.Err.Error() }
func (e *InternalError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNoCapablePrinter(err error) bool {
	var target *NoCapablePrinterError
	return errors.As(err, &target)
}

func IsInsufficientResource(err error) bool {
	var target *InsufficientResourceError
	return errors.As(err, &target)
}

func IsQueueOverflow(err error) bool {
	var target *QueueOverflowError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsInternal covers lock timeouts and wrapped invariant violations.
func IsInternal(err error) bool {
	var lockErr *LockTimeoutError
	var internalErr *InternalError
	return errors.As(err, &lockErr) || errors.As(err, &internalErr)
}
