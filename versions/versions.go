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

// Package versions decides semantic-version compatibility between shared
// externals.
package versions

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Comparator is the semver contract the resolver depends on.
type Comparator interface {
	// IsValidSemver reports whether v is a well-formed semantic version.
	IsValidSemver(v string) bool

	// IsCompatible reports whether version satisfies the range rng.
	// An empty range or "*" accepts every valid version.
	IsCompatible(version, rng string) bool

	// Compare orders a and b by semver precedence, returning -1, 0 or 1.
	// Callers must validate both operands with IsValidSemver first; invalid
	// operands compare as equal.
	Compare(a, b string) int
}

// Semver implements Comparator on top of Masterminds/semver.
type Semver struct {
	constraints *ConstraintCache
}

// NewSemver creates a comparator with a default sized constraint cache.
func NewSemver() *Semver {
	return &Semver{constraints: NewConstraintCache()}
}

// WithCache returns a new Semver using the given constraint cache.
func (s *Semver) WithCache(cache *ConstraintCache) *Semver {
	return &Semver{constraints: cache}
}

// IsValidSemver reports whether v is a strict major.minor.patch version with
// optional prerelease and build metadata. A leading "v" is tolerated.
func (s *Semver) IsValidSemver(v string) bool {
	_, err := parse(v)
	return err == nil
}

// IsCompatible reports whether version satisfies rng. Prerelease versions only
// satisfy ranges that themselves name a prerelease.
func (s *Semver) IsCompatible(version, rng string) bool {
	v, err := parse(version)
	if err != nil {
		return false
	}
	rng = strings.TrimSpace(rng)
	if rng == "" || rng == "*" || rng == "x" || rng == "latest" {
		return v.Prerelease() == ""
	}
	c, err := s.constraint(rng)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// Compare orders a and b by semver precedence.
func (s *Semver) Compare(a, b string) int {
	av, err := parse(a)
	if err != nil {
		return 0
	}
	bv, err := parse(b)
	if err != nil {
		return 0
	}
	return av.Compare(bv)
}

func (s *Semver) constraint(rng string) (*semver.Constraints, error) {
	if s.constraints == nil {
		return semver.NewConstraint(rng)
	}
	if c, ok := s.constraints.Get(rng); ok {
		return c, nil
	}
	c, err := semver.NewConstraint(rng)
	if err != nil {
		return nil, err
	}
	s.constraints.Set(rng, c)
	return c, nil
}

func parse(v string) (*semver.Version, error) {
	return semver.StrictNewVersion(strings.TrimPrefix(strings.TrimSpace(v), "v"))
}
