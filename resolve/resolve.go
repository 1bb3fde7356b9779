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

// Package resolve classifies the shared dependencies of remote entries.
//
// For every declared shared dependency the Resolver decides whether the
// whole application shares one copy, the declaring remote loads a private
// scoped copy, or loading is skipped because a compatible copy is already
// shared.
package resolve

import (
	"fmt"

	"bennypowers.dev/nativefed/model"
)

// Logger is an interface for logging messages during resolution.
// A nil Logger discards everything.
type Logger interface {
	Debug(msg string, err error)
	Warn(msg string, err error)
	Error(msg string, err error)
}

// Metrics records resolution outcomes.
type Metrics interface {
	ObserveDecision(action model.Action)
}

// OverrideMode controls whether an already resolved remote is classified
// again on a later pass.
type OverrideMode string

const (
	OverrideAlways       OverrideMode = "always"
	OverrideNever        OverrideMode = "never"
	OverrideIfURLMatches OverrideMode = "only-if-url-matches"
)

// Profile is the resolution policy.
type Profile struct {
	// LatestSharedExternal lets a strictly newer compatible version replace
	// the shared winner.
	LatestSharedExternal bool `mapstructure:"latestSharedExternal" json:"latestSharedExternal" yaml:"latestSharedExternal"`

	OverrideCachedRemotes OverrideMode `mapstructure:"overrideCachedRemotes" json:"overrideCachedRemotes,omitempty" yaml:"overrideCachedRemotes,omitempty"`

	// OverrideCachedRemotesIfURLMatches selects OverrideIfURLMatches when
	// OverrideCachedRemotes is unset.
	OverrideCachedRemotesIfURLMatches bool `mapstructure:"overrideCachedRemotesIfURLMatches" json:"overrideCachedRemotesIfURLMatches" yaml:"overrideCachedRemotesIfURLMatches"`
}

// OverrideMode returns the effective override mode.
func (p Profile) OverrideMode() OverrideMode {
	switch {
	case p.OverrideCachedRemotes != "":
		return p.OverrideCachedRemotes
	case p.OverrideCachedRemotesIfURLMatches:
		return OverrideIfURLMatches
	default:
		return OverrideAlways
	}
}

func (p Profile) Validate() error {
	switch p.OverrideCachedRemotes {
	case "", OverrideAlways, OverrideNever, OverrideIfURLMatches:
		return nil
	}
	return model.WithAttrs(
		model.Errorf(model.ErrInvalidConfig, "unknown overrideCachedRemotes mode %q", p.OverrideCachedRemotes),
		"option", "profile.overrideCachedRemotes",
	)
}

// Strict turns soft fallbacks into errors.
type Strict struct {
	// StrictRemoteEntry makes a remote that fails to fetch or validate
	// abort the whole pass.
	StrictRemoteEntry bool `mapstructure:"strictRemoteEntry" json:"strictRemoteEntry" yaml:"strictRemoteEntry"`
	// StrictExternalCompatibility fails instead of scoping an incompatible
	// external.
	StrictExternalCompatibility bool `mapstructure:"strictExternalCompatibility" json:"strictExternalCompatibility" yaml:"strictExternalCompatibility"`
	// StrictExternalVersion rejects entries declaring invalid semver.
	StrictExternalVersion bool `mapstructure:"strictExternalVersion" json:"strictExternalVersion" yaml:"strictExternalVersion"`
	// StrictImportMap fails the build when an import map entry cannot be
	// resolved.
	StrictImportMap bool `mapstructure:"strictImportMap" json:"strictImportMap" yaml:"strictImportMap"`
}

// Decision is the outcome for one version of one external.
type Decision struct {
	External string       `json:"external"`
	Version  string       `json:"version"`
	Remote   string       `json:"remote"`
	Action   model.Action `json:"action"`
}

func (d Decision) String() string {
	return fmt.Sprintf("%s@%s (%s): %s", d.External, d.Version, d.Remote, d.Action)
}

// Result describes what a Resolve call decided.
type Result struct {
	Remote string
	Scope  string
	// Decisions holds one entry per declared shared dependency, in
	// declaration order.
	Decisions []Decision
	// Changed lists versions of other remotes whose action changed because
	// the shared winner changed.
	Changed []Decision
}

// Action returns the decision for external, if it was declared.
func (r *Result) Action(external string) (model.Action, bool) {
	for _, d := range r.Decisions {
		if d.External == external {
			return d.Action, true
		}
	}
	return "", false
}
