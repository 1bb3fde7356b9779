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

package model

import "slices"

// SharedExternal is every known version of one external library.
type SharedExternal struct {
	// Dirty is set when Versions changed since the last commit.
	Dirty    bool            `json:"dirty" yaml:"dirty"`
	Versions []SharedVersion `json:"versions" yaml:"versions"`
}

// Winner returns the active shared version and its index in Versions.
func (e SharedExternal) Winner() (SharedVersion, int, bool) {
	for i, v := range e.Versions {
		if v.IsWinner() {
			return v, i, true
		}
	}
	return SharedVersion{}, -1, false
}

// Clone returns a copy that shares no memory with e.
func (e SharedExternal) Clone() SharedExternal {
	return SharedExternal{
		Dirty:    e.Dirty,
		Versions: slices.Clone(e.Versions),
	}
}

// SharedExternals maps external names to their known versions.
type SharedExternals map[string]SharedExternal

// Clone returns a deep copy.
func (s SharedExternals) Clone() SharedExternals {
	if s == nil {
		return nil
	}
	result := make(SharedExternals, len(s))
	for name, ext := range s {
		result[name] = ext.Clone()
	}
	return result
}

// ScopedExternals maps external names to the version one scope loads privately.
type ScopedExternals map[string]Version

// ScopedExternalsByScope maps scope URLs to their private externals.
type ScopedExternalsByScope map[string]ScopedExternals

// Clone returns a deep copy.
func (s ScopedExternalsByScope) Clone() ScopedExternalsByScope {
	if s == nil {
		return nil
	}
	result := make(ScopedExternalsByScope, len(s))
	for scope, externals := range s {
		copied := make(ScopedExternals, len(externals))
		for name, v := range externals {
			copied[name] = v
		}
		result[scope] = copied
	}
	return result
}
