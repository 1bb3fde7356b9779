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

package resolve

import (
	"fmt"
	"maps"
	"slices"

	"bennypowers.dev/nativefed/model"
	"bennypowers.dev/nativefed/store"
	"bennypowers.dev/nativefed/versions"
)

// Resolver classifies remote entries against the cache stores.
// It is the only writer of the stores and must not be used concurrently.
type Resolver struct {
	shared     *store.SharedExternals
	scoped     *store.ScopedExternals
	remotes    *store.RemoteInfos
	comparator versions.Comparator
	logger     Logger
	metrics    Metrics
	profile    Profile
	strict     Strict
}

// New creates a Resolver with the default profile and no strict options.
func New(shared *store.SharedExternals, scoped *store.ScopedExternals, remotes *store.RemoteInfos, comparator versions.Comparator) *Resolver {
	return &Resolver{
		shared:     shared,
		scoped:     scoped,
		remotes:    remotes,
		comparator: comparator,
	}
}

func (r *Resolver) clone() *Resolver {
	c := *r
	return &c
}

// WithLogger returns a new Resolver that logs to logger.
func (r *Resolver) WithLogger(logger Logger) *Resolver {
	c := r.clone()
	c.logger = logger
	return c
}

// WithMetrics returns a new Resolver that records decisions to m.
func (r *Resolver) WithMetrics(m Metrics) *Resolver {
	c := r.clone()
	c.metrics = m
	return c
}

// WithProfile returns a new Resolver using the given resolution policy.
func (r *Resolver) WithProfile(profile Profile) *Resolver {
	c := r.clone()
	c.profile = profile
	return c
}

// WithStrict returns a new Resolver using the given strict options.
func (r *Resolver) WithStrict(strict Strict) *Resolver {
	c := r.clone()
	c.strict = strict
	return c
}

// ShouldResolve reports whether the remote name loaded from entryURL needs
// to be classified, given what the cache already knows about it.
func (r *Resolver) ShouldResolve(name, entryURL string) bool {
	info, ok := r.remotes.TryGet(name)
	if !ok || info.Host {
		return true
	}
	switch r.profile.OverrideMode() {
	case OverrideNever:
		r.debug(fmt.Sprintf("remote %q is cached, not overriding", name))
		return false
	case OverrideIfURLMatches:
		if info.EntryURL != entryURL {
			r.debug(fmt.Sprintf("remote %q moved from %s to %s, keeping cached resolution", name, info.EntryURL, entryURL))
			return false
		}
		return true
	default:
		return true
	}
}

// Resolve classifies every shared dependency of entry and records the
// outcome in the stores. A remote that was resolved before is forgotten
// first, so resolving the same entry twice gives the same state.
//
// Nothing is written to the stores when Resolve returns an error.
func (r *Resolver) Resolve(entry model.RemoteEntry) (*Result, error) {
	if err := validate(entry); err != nil {
		return nil, err
	}

	p := r.begin()
	if p.forget(entry.Name, false) {
		r.debug(fmt.Sprintf("re-resolving remote %q", entry.Name))
	}

	result, err := p.classify(entry)
	if err != nil {
		return nil, err
	}

	p.apply()
	for _, d := range result.Decisions {
		r.observe(d.Action)
	}
	return result, nil
}

// Forget removes remote name and everything it contributed. A shared
// winner it provided is replaced by another recorded version. It reports
// whether the remote was known.
func (r *Resolver) Forget(name string) bool {
	p := r.begin()
	if !p.forget(name, true) {
		return false
	}
	p.apply()
	return true
}

func validate(entry model.RemoteEntry) error {
	if entry.Name == "" {
		return model.WithAttrs(
			model.Errorf(model.ErrInvalidRemoteEntry, "remote entry %s has no name", entry.URL),
			"url", entry.URL,
		)
	}
	if entry.Shared == nil {
		return model.WithAttrs(
			model.Errorf(model.ErrInvalidRemoteEntry, "remote %q declares no shared list", entry.Name),
			"remote", entry.Name,
		)
	}
	for i, s := range entry.Shared {
		if s.PackageName == "" {
			return model.WithAttrs(
				model.Errorf(model.ErrInvalidRemoteEntry, "remote %q: shared[%d] has no packageName", entry.Name, i),
				"remote", entry.Name,
			)
		}
	}
	return nil
}

func (r *Resolver) begin() *pass {
	return &pass{
		r:               r,
		shared:          r.shared.GetAll(),
		scoped:          r.scoped.GetAll(),
		remotes:         r.remotes.GetAll(),
		touchedExternal: make(map[string]bool),
		touchedScope:    make(map[string]bool),
		touchedRemote:   make(map[string]bool),
		slots:           make(map[string]int),
		vacated:         make(map[string]bool),
	}
}

// apply writes every touched key of the working copy back to the stores.
func (p *pass) apply() {
	r := p.r
	for _, name := range slices.Sorted(maps.Keys(p.touchedExternal)) {
		if ext, ok := p.shared[name]; ok {
			r.shared.AddOrUpdate(name, ext.Versions)
		} else {
			r.shared.Remove(name)
		}
	}
	for _, scope := range slices.Sorted(maps.Keys(p.touchedScope)) {
		r.scoped.ClearScope(scope)
		externals := p.scoped[scope]
		for _, name := range slices.Sorted(maps.Keys(externals)) {
			r.scoped.AddExternal(scope, name, externals[name])
		}
	}
	for _, name := range slices.Sorted(maps.Keys(p.touchedRemote)) {
		if info, ok := p.remotes[name]; ok {
			r.remotes.AddOrUpdate(info)
		} else {
			r.remotes.Remove(name)
		}
	}
}

func (r *Resolver) observe(action model.Action) {
	if r.metrics != nil {
		r.metrics.ObserveDecision(action)
	}
}

func (r *Resolver) debug(msg string) {
	if r.logger != nil {
		r.logger.Debug(msg, nil)
	}
}

func (r *Resolver) warn(msg string, err error) {
	if r.logger != nil {
		r.logger.Warn(msg, err)
	}
}
