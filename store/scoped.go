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
	"sync"

	"bennypowers.dev/nativefed/model"
	"bennypowers.dev/nativefed/storage"
)

// ScopedExternals tracks the externals each remote scope loads privately.
type ScopedExternals struct {
	mu     sync.RWMutex
	scopes model.ScopedExternalsByScope
	dirty  bool
}

func NewScopedExternals() *ScopedExternals {
	return &ScopedExternals{scopes: make(model.ScopedExternalsByScope)}
}

// TryGetScope returns a copy of the externals of scope.
func (s *ScopedExternals) TryGetScope(scope string) (model.ScopedExternals, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	externals, ok := s.scopes[scope]
	if !ok {
		return nil, false
	}
	out := make(model.ScopedExternals, len(externals))
	for name, v := range externals {
		out[name] = v
	}
	return out, true
}

func (s *ScopedExternals) Contains(scope, name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.scopes[scope][name]
	return ok
}

// ClearScope drops every external of scope.
func (s *ScopedExternals) ClearScope(scope string) *ScopedExternals {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scopes[scope]; ok {
		delete(s.scopes, scope)
		s.dirty = true
	}
	return s
}

func (s *ScopedExternals) AddExternal(scope, name string, version model.Version) *ScopedExternals {
	s.mu.Lock()
	defer s.mu.Unlock()
	externals, ok := s.scopes[scope]
	if !ok {
		externals = make(model.ScopedExternals)
		s.scopes[scope] = externals
	}
	externals[name] = version
	s.dirty = true
	return s
}

// RemoveExternal drops name from scope, and the scope itself once empty.
func (s *ScopedExternals) RemoveExternal(scope, name string) *ScopedExternals {
	s.mu.Lock()
	defer s.mu.Unlock()
	externals, ok := s.scopes[scope]
	if !ok {
		return s
	}
	if _, ok := externals[name]; !ok {
		return s
	}
	delete(externals, name)
	if len(externals) == 0 {
		delete(s.scopes, scope)
	}
	s.dirty = true
	return s
}

func (s *ScopedExternals) GetAll() model.ScopedExternalsByScope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scopes.Clone()
}

func (s *ScopedExternals) Set(scopes model.ScopedExternalsByScope) *ScopedExternals {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes = scopes.Clone()
	if s.scopes == nil {
		s.scopes = make(model.ScopedExternalsByScope)
	}
	s.dirty = true
	return s
}

func (s *ScopedExternals) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

func (s *ScopedExternals) Commit(st storage.Storage) error {
	return Commit(st, s)
}

func (s *ScopedExternals) Key() string {
	return storage.KeyScopedExternals
}

func (s *ScopedExternals) snapshot() any {
	return s.GetAll()
}

func (s *ScopedExternals) markClean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}
