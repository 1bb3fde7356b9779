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

package store

import (
	"maps"
	"slices"
	"sync"

	"bennypowers.dev/nativefed/model"
	"bennypowers.dev/nativefed/storage"
)

// SharedExternals tracks every known version of every shared external.
type SharedExternals struct {
	mu        sync.RWMutex
	externals model.SharedExternals
	// removed is set when an external disappeared, which per-external
	// dirty flags cannot express.
	removed bool
}

func NewSharedExternals() *SharedExternals {
	return &SharedExternals{externals: make(model.SharedExternals)}
}

// TryGetVersions returns a copy of the versions recorded for name.
func (s *SharedExternals) TryGetVersions(name string) ([]model.SharedVersion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ext, ok := s.externals[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(ext.Versions), true
}

func (s *SharedExternals) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.externals[name]
	return ok
}

// AddOrUpdate replaces the versions of name and marks it dirty.
func (s *SharedExternals) AddOrUpdate(name string, versions []model.SharedVersion) *SharedExternals {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.externals[name] = model.SharedExternal{Dirty: true, Versions: slices.Clone(versions)}
	return s
}

func (s *SharedExternals) Remove(name string) *SharedExternals {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.externals[name]; ok {
		delete(s.externals, name)
		s.removed = true
	}
	return s
}

// Names returns the external names in sorted order.
func (s *SharedExternals) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.externals))
}

// GetAll returns a deep copy of every external.
func (s *SharedExternals) GetAll() model.SharedExternals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.externals.Clone()
}

// Set replaces the whole store. The dirty flags of the given externals are
// kept as they are.
func (s *SharedExternals) Set(externals model.SharedExternals) *SharedExternals {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.externals = externals.Clone()
	if s.externals == nil {
		s.externals = make(model.SharedExternals)
	}
	s.removed = true
	return s
}

func (s *SharedExternals) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.removed {
		return true
	}
	for _, ext := range s.externals {
		if ext.Dirty {
			return true
		}
	}
	return false
}

// Commit persists the store on its own.
func (s *SharedExternals) Commit(st storage.Storage) error {
	return Commit(st, s)
}

func (s *SharedExternals) Key() string {
	return storage.KeySharedExternals
}

func (s *SharedExternals) snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.externals.Clone()
	for name, ext := range out {
		ext.Dirty = false
		out[name] = ext
	}
	return out
}

func (s *SharedExternals) markClean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, ext := range s.externals {
		ext.Dirty = false
		s.externals[name] = ext
	}
	s.removed = false
}
