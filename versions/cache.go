/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package versions

import (
	"github.com/Masterminds/semver/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultConstraintCacheSize = 1000

// ConstraintCache memoizes parsed requiredVersion ranges. The least
// recently used range is evicted once the cache is full. Safe for
// concurrent use.
type ConstraintCache struct {
	entries *lru.Cache[string, *semver.Constraints]
}

func NewConstraintCache() *ConstraintCache {
	return NewConstraintCacheWithSize(defaultConstraintCacheSize)
}

// NewConstraintCacheWithSize holds at most maxSize ranges. A non-positive
// size selects the default.
func NewConstraintCacheWithSize(maxSize int) *ConstraintCache {
	if maxSize <= 0 {
		maxSize = defaultConstraintCacheSize
	}
	// lru.New only fails for a non-positive size
	entries, _ := lru.New[string, *semver.Constraints](maxSize)
	return &ConstraintCache{entries: entries}
}

// Get returns the parsed range and marks it recently used.
func (c *ConstraintCache) Get(rng string) (*semver.Constraints, bool) {
	return c.entries.Get(rng)
}

func (c *ConstraintCache) Set(rng string, constraint *semver.Constraints) {
	c.entries.Add(rng, constraint)
}

func (c *ConstraintCache) Len() int {
	return c.entries.Len()
}
