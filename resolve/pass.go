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

	"github.com/samber/lo"

	"bennypowers.dev/nativefed/model"
)

// pass is a working copy of the stores. Classification mutates only the
// copy; apply publishes it once the whole entry succeeded.
type pass struct {
	r       *Resolver
	shared  model.SharedExternals
	scoped  model.ScopedExternalsByScope
	remotes model.RemoteInfos

	touchedExternal map[string]bool
	touchedScope    map[string]bool
	touchedRemote   map[string]bool

	// slots remembers where a forgotten remote's versions were, so that
	// re-resolving it keeps the recorded order.
	slots map[string]int
	// vacated lists externals whose winner was forgotten and not yet
	// replaced.
	vacated map[string]bool

	changed []Decision
}

func (p *pass) classify(entry model.RemoteEntry) (*Result, error) {
	scope := entry.ScopeURL()
	result := &Result{Remote: entry.Name, Scope: scope}
	// changes made while forgetting a previous resolution are not escalated
	seen := len(p.changed)

	// the remote must be known before rechecks materialize into its scope
	p.remotes[entry.Name] = entry.Info()
	p.touchedRemote[entry.Name] = true

	for _, d := range entry.Shared {
		ext := p.shared[d.PackageName]
		if lo.ContainsBy(ext.Versions, func(v model.SharedVersion) bool { return v.Remote == entry.Name }) {
			p.r.warn(fmt.Sprintf("remote %q declares %q more than once, ignoring duplicate", entry.Name, d.PackageName), nil)
			continue
		}

		sv := model.SharedVersion{
			Version:         d.Version,
			File:            d.OutFileName,
			Remote:          entry.Name,
			RequiredVersion: d.RequiredVersion,
			StrictVersion:   d.StrictVersion,
			Host:            entry.Host,
		}
		if err := p.decide(d, &ext, &sv); err != nil {
			return nil, err
		}

		if slot, ok := p.slots[d.PackageName]; ok && slot <= len(ext.Versions) {
			ext.Versions = slices.Insert(ext.Versions, slot, sv)
		} else {
			ext.Versions = append(ext.Versions, sv)
		}
		p.shared[d.PackageName] = ext
		p.touchedExternal[d.PackageName] = true
		if sv.Action == model.ActionScope {
			p.addScoped(scope, d.PackageName, sv.AsVersion())
		}
		result.Decisions = append(result.Decisions, Decision{
			External: d.PackageName,
			Version:  sv.Version,
			Remote:   sv.Remote,
			Action:   sv.Action,
		})

		// rechecks may have flipped versions to scope
		if err := p.escalateChanged(seen); err != nil {
			return nil, err
		}
	}

	p.electVacated()
	result.Changed = p.changed
	return result, nil
}

// decide sets the action of sv, which is not yet part of ext. When sv takes
// over the winner slot, the previous winner in ext is demoted.
func (p *pass) decide(d model.SharedInfo, ext *model.SharedExternal, sv *model.SharedVersion) error {
	r := p.r

	if !d.Singleton {
		sv.Action = model.ActionScope
		return nil
	}

	if !r.comparator.IsValidSemver(d.Version) {
		err := model.WithAttrs(
			model.Errorf(model.ErrInvalidVersion, "remote %q declares %s with invalid version %q", sv.Remote, d.PackageName, d.Version),
			"remote", sv.Remote,
			"external", d.PackageName,
		)
		if r.strict.StrictExternalVersion {
			return err
		}
		r.warn("scoping external with invalid version", err)
		sv.Action = model.ActionScope
		return nil
	}

	w, wi, ok := ext.Winner()
	switch {
	case !ok:
		sv.Action = model.ActionShare
		sv.Cached = true
		if p.vacated[d.PackageName] {
			delete(p.vacated, d.PackageName)
			p.recheck(d.PackageName, ext, *sv)
		}
	case sv.Host && !w.Host:
		p.takeOver(d.PackageName, ext, wi, sv)
	case p.compatible(*sv, w):
		if r.profile.LatestSharedExternal && !w.Host && r.comparator.Compare(sv.Version, w.Version) > 0 {
			p.takeOver(d.PackageName, ext, wi, sv)
		} else {
			sv.Action = model.ActionSkip
		}
	default:
		if r.strict.StrictExternalCompatibility {
			return incompatible(d.PackageName, *sv, w)
		}
		r.debug(fmt.Sprintf("%s@%s of %q is incompatible with shared %s, scoping", d.PackageName, sv.Version, sv.Remote, w.Version))
		sv.Action = model.ActionScope
	}
	return nil
}

// compatible reports whether candidate can use winner. Strict versions on
// either side require both ranges to be satisfied.
func (p *pass) compatible(candidate, winner model.SharedVersion) bool {
	c := p.r.comparator
	if !c.IsCompatible(winner.Version, candidate.RequiredVersion) {
		return false
	}
	if candidate.StrictVersion || winner.StrictVersion {
		return c.IsCompatible(candidate.Version, winner.RequiredVersion)
	}
	return true
}

// takeOver makes sv the winner of ext, demoting the current winner at wi.
func (p *pass) takeOver(name string, ext *model.SharedExternal, wi int, sv *model.SharedVersion) {
	ext.Versions[wi].Action = model.ActionSkip
	ext.Versions[wi].Cached = false
	sv.Action = model.ActionShare
	sv.Cached = true
	p.recheck(name, ext, *sv)
}

// recheck scopes every skipped version that cannot use the new winner.
func (p *pass) recheck(name string, ext *model.SharedExternal, winner model.SharedVersion) {
	for i, v := range ext.Versions {
		if v.Action != model.ActionSkip || v.Remote == winner.Remote || p.compatible(v, winner) {
			continue
		}
		ext.Versions[i].Action = model.ActionScope
		ext.Versions[i].Cached = false
		info, ok := p.remotes[v.Remote]
		if !ok {
			p.r.warn(fmt.Sprintf("cannot scope %s@%s: remote %q is unknown", name, v.Version, v.Remote), nil)
		} else {
			p.addScoped(info.ScopeURL, name, v.AsVersion())
		}
		p.changed = append(p.changed, Decision{External: name, Version: v.Version, Remote: v.Remote, Action: model.ActionScope})
	}
}

// escalateChanged fails on versions scoped by a recheck when incompatible
// externals must not be scoped.
func (p *pass) escalateChanged(from int) error {
	if !p.r.strict.StrictExternalCompatibility || len(p.changed) <= from {
		return nil
	}
	d := p.changed[from]
	return model.WithAttrs(
		model.Errorf(model.ErrIncompatible, "%s@%s of %q is incompatible with the new shared version", d.External, d.Version, d.Remote),
		"remote", d.Remote,
		"external", d.External,
	)
}

func incompatible(name string, sv, winner model.SharedVersion) error {
	return model.WithAttrs(
		model.Errorf(model.ErrIncompatible, "%s@%s (%s) of %q is incompatible with shared %s@%s (%s) of %q",
			name, sv.Version, sv.RequiredVersion, sv.Remote, name, winner.Version, winner.RequiredVersion, winner.Remote),
		"remote", sv.Remote,
		"external", name,
	)
}

func (p *pass) addScoped(scope, name string, v model.Version) {
	externals, ok := p.scoped[scope]
	if !ok {
		externals = make(model.ScopedExternals)
		p.scoped[scope] = externals
	}
	externals[name] = v
	p.touchedScope[scope] = true
}

// forget drops remote name from the working copy. It reports whether the
// remote was known. Unless elect is set, winner slots the remote held stay
// vacant until electVacated runs.
func (p *pass) forget(name string, elect bool) bool {
	info, ok := p.remotes[name]
	if !ok {
		return false
	}

	scopeShared := lo.ContainsBy(lo.Values(p.remotes), func(o model.RemoteInfo) bool {
		return o.Name != name && o.ScopeURL == info.ScopeURL
	})
	if _, ok := p.scoped[info.ScopeURL]; ok && !scopeShared {
		delete(p.scoped, info.ScopeURL)
		p.touchedScope[info.ScopeURL] = true
	}

	for _, ext := range slices.Sorted(maps.Keys(p.shared)) {
		p.forgetVersion(name, ext, info.ScopeURL, scopeShared)
	}
	if elect {
		p.electVacated()
	}

	delete(p.remotes, name)
	p.touchedRemote[name] = true
	return true
}

func (p *pass) forgetVersion(remote, name, scope string, scopeShared bool) {
	ext := p.shared[name]
	mine, idx, ok := lo.FindIndexOf(ext.Versions, func(v model.SharedVersion) bool { return v.Remote == remote })
	if !ok {
		return
	}
	if mine.Action == model.ActionScope && scopeShared {
		if externals, ok := p.scoped[scope]; ok {
			delete(externals, name)
			if len(externals) == 0 {
				delete(p.scoped, scope)
			}
			p.touchedScope[scope] = true
		}
	}

	ext.Versions = slices.Delete(slices.Clone(ext.Versions), idx, idx+1)
	p.slots[name] = idx
	p.touchedExternal[name] = true
	if mine.IsWinner() {
		p.vacated[name] = true
	}
	if len(ext.Versions) == 0 {
		delete(p.shared, name)
		return
	}
	p.shared[name] = ext
}

func (p *pass) electVacated() {
	for _, name := range slices.Sorted(maps.Keys(p.vacated)) {
		delete(p.vacated, name)
		ext, ok := p.shared[name]
		if !ok {
			continue
		}
		if _, _, hasWinner := ext.Winner(); hasWinner {
			continue
		}
		p.elect(name, &ext)
		p.shared[name] = ext
	}
}

// elect picks a new winner among the skipped versions: a host version
// first, then the highest version when the latest is preferred, else the
// earliest recorded one.
func (p *pass) elect(name string, ext *model.SharedExternal) {
	skipped := lo.Filter(ext.Versions, func(v model.SharedVersion, _ int) bool { return v.Action == model.ActionSkip })
	if len(skipped) == 0 {
		return
	}

	winner, ok := lo.Find(skipped, func(v model.SharedVersion) bool { return v.Host })
	if !ok {
		winner = skipped[0]
		if p.r.profile.LatestSharedExternal {
			winner = lo.MaxBy(skipped, func(a, b model.SharedVersion) bool {
				return p.r.comparator.Compare(a.Version, b.Version) > 0
			})
		}
	}

	_, wi, _ := lo.FindIndexOf(ext.Versions, func(v model.SharedVersion) bool { return v.Remote == winner.Remote })
	ext.Versions[wi].Action = model.ActionShare
	ext.Versions[wi].Cached = true
	p.r.debug(fmt.Sprintf("%s@%s of %q is now shared", name, winner.Version, winner.Remote))
	p.recheck(name, ext, ext.Versions[wi])
}
