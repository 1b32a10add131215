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

package scheduler

import (
	"fmt"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/patrickmn/go-cache"

	"github.com/printworks/fleetprint/pkg/fleet"
)

// assignmentCache memoizes scheduling results keyed by the order plus a
// digest of the scoring-relevant fleet state. Entries expire after the
// configured TTL and the whole cache is flushed on any manual resource
// update. Hits are advisory: the scheduler re-commits resources before
// returning a cached result.
type assignmentCache struct {
	cache *cache.Cache
}

func newAssignmentCache(ttl time.Duration) *assignmentCache {
	return &assignmentCache{
		// Expired entries are swept at twice the TTL; lookups already treat
		// expired entries as absent.
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *assignmentCache) Get(order fleet.Order, fleetDigest uint64) (*Result, bool) {
	key, err := c.key(order, fleetDigest)
	if err != nil {
		return nil, false
	}
	entry, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	return entry.(*Result), true
}

func (c *assignmentCache) Set(order fleet.Order, fleetDigest uint64, result *Result) {
	key, err := c.key(order, fleetDigest)
	if err != nil {
		return // best-effort
	}
	c.cache.SetDefault(key, result)
}

func (c *assignmentCache) Flush() {
	c.cache.Flush()
}

func (c *assignmentCache) Count() int {
	return c.cache.ItemCount()
}

// key canonicalizes the order and fleet digest into a stable hash.
// hashstructure hashes maps independent of iteration order.
func (c *assignmentCache) key(order fleet.Order, fleetDigest uint64) (string, error) {
	hash, err := hashstructure.Hash(struct {
		Order       fleet.Order
		FleetDigest uint64
	}{Order: order, FleetDigest: fleetDigest}, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", hash), nil
}

// printerDigest carries the scoring-relevant slice of one printer's state.
// Static fields are excluded so non-behavioral changes don't invalidate the
// cache.
type printerDigest struct {
	PaperCount map[fleet.PaperKind]int
	Ink        map[fleet.InkChannel]float64
	QueueDepth int
}

func digestOf(states map[string]printerDigest) (uint64, error) {
	return hashstructure.Hash(states, hashstructure.FormatV2, nil)
}
