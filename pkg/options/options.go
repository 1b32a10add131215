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

// Package options holds the engine's runtime knobs. Defaults come from
// environment variables and can be overridden by flags when the options are
// parsed by a binary; library consumers use New() directly.
package options

import (
	"flag"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/printworks/fleetprint/pkg/utils/env"
)

// Options for running the scheduling engine.
type Options struct {
	*flag.FlagSet
	// MaxQueueLength caps every printer's work queue.
	MaxQueueLength int
	// MaxRetries bounds how often a Schedule call restarts on a version
	// conflict.
	MaxRetries int
	// RetryDelay is the base conflict backoff; attempt k waits k*RetryDelay.
	RetryDelay time.Duration
	// LockTimeout bounds per-printer lock acquisition.
	LockTimeout time.Duration
	// CacheTTL bounds the lifetime of assignment cache entries.
	CacheTTL time.Duration
}

// New creates an Options struct and registers flags and environment
// variables to fill in its fields.
func New() *Options {
	opts := &Options{}
	f := flag.NewFlagSet("fleetprint", flag.ContinueOnError)
	opts.FlagSet = f

	f.IntVar(&opts.MaxQueueLength, "max-queue-length", env.WithDefaultInt("MAX_QUEUE_LENGTH", 10), "The maximum number of reserved jobs a single printer queue holds")
	f.IntVar(&opts.MaxRetries, "max-retries", env.WithDefaultInt("MAX_RETRIES", 3), "The number of scheduling attempts before a resource conflict is surfaced")
	f.DurationVar(&opts.RetryDelay, "retry-delay", env.WithDefaultDuration("RETRY_DELAY", 500*time.Millisecond), "The base backoff between conflict retries; attempt k waits k times this value")
	f.DurationVar(&opts.LockTimeout, "lock-timeout", env.WithDefaultDuration("LOCK_TIMEOUT", 10*time.Second), "The upper bound on acquiring a per-printer lock")
	f.DurationVar(&opts.CacheTTL, "cache-ttl", env.WithDefaultDuration("CACHE_TTL", 5*time.Minute), "The lifetime of assignment cache entries")
	return opts
}

// Validate checks ranges across all options.
func (o *Options) Validate() (err error) {
	if o.MaxQueueLength < 1 {
		err = multierr.Append(err, fmt.Errorf("max-queue-length must be positive, got %d", o.MaxQueueLength))
	}
	if o.MaxRetries < 1 {
		err = multierr.Append(err, fmt.Errorf("max-retries must be positive, got %d", o.MaxRetries))
	}
	if o.RetryDelay < 0 {
		err = multierr.Append(err, fmt.Errorf("retry-delay must be non-negative, got %s", o.RetryDelay))
	}
	if o.LockTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("lock-timeout must be positive, got %s", o.LockTimeout))
	}
	if o.CacheTTL <= 0 {
		err = multierr.Append(err, fmt.Errorf("cache-ttl must be positive, got %s", o.CacheTTL))
	}
	return err
}
