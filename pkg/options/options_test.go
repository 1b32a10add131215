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

package options_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printworks/fleetprint/pkg/options"
)

func TestDefaults(t *testing.T) {
	opts := options.New()
	require.NoError(t, opts.Validate())

	assert.Equal(t, 10, opts.MaxQueueLength)
	assert.Equal(t, 3, opts.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, opts.RetryDelay)
	assert.Equal(t, 10*time.Second, opts.LockTimeout)
	assert.Equal(t, 5*time.Minute, opts.CacheTTL)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("MAX_QUEUE_LENGTH", "25")
	t.Setenv("RETRY_DELAY", "2s")

	opts := options.New()
	assert.Equal(t, 25, opts.MaxQueueLength)
	assert.Equal(t, 2*time.Second, opts.RetryDelay)
}

func TestFlagOverrides(t *testing.T) {
	opts := options.New()
	require.NoError(t, opts.Parse([]string{"--max-retries", "5", "--cache-ttl", "1m"}))

	assert.Equal(t, 5, opts.MaxRetries)
	assert.Equal(t, time.Minute, opts.CacheTTL)
}

func TestValidate(t *testing.T) {
	opts := options.New()
	opts.MaxQueueLength = 0
	opts.MaxRetries = -1
	opts.CacheTTL = 0

	err := opts.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max-queue-length")
	assert.Contains(t, err.Error(), "max-retries")
	assert.Contains(t, err.Error(), "cache-ttl")
}
