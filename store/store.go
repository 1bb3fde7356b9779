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

// Package store holds the federation cache in memory between commits.
//
// The resolver is the only writer. Changes are tracked with dirty flags and
// become durable only through Commit, which writes every store in one
// storage call.
package store

import (
	"bennypowers.dev/nativefed/model"
	"bennypowers.dev/nativefed/storage"
)

// Committable is a store that can take part in a group commit.
type Committable interface {
	// Key is the storage key the store persists under.
	Key() string
	Dirty() bool
	// snapshot returns the persisted form of the store with dirty flags
	// cleared.
	snapshot() any
	markClean()
}

// Stores bundles the three cache stores of one federation.
type Stores struct {
	Shared  *SharedExternals
	Scoped  *ScopedExternals
	Remotes *RemoteInfos
	storage storage.Storage
}

// Open loads all stores from st. Missing keys yield empty stores.
func Open(st storage.Storage) (*Stores, error) {
	var shared model.SharedExternals
	if _, err := st.Get(storage.KeySharedExternals, &shared); err != nil {
		return nil, err
	}
	var scoped model.ScopedExternalsByScope
	if _, err := st.Get(storage.KeyScopedExternals, &scoped); err != nil {
		return nil, err
	}
	var remotes model.RemoteInfos
	if _, err := st.Get(storage.KeyRemotes, &remotes); err != nil {
		return nil, err
	}

	s := &Stores{
		Shared:  NewSharedExternals(),
		Scoped:  NewScopedExternals(),
		Remotes: NewRemoteInfos(),
		storage: st,
	}
	s.Shared.Set(shared)
	s.Scoped.Set(scoped)
	s.Remotes.Set(remotes)
	// loaded state is already durable
	s.Shared.markClean()
	s.Scoped.markClean()
	s.Remotes.markClean()
	return s, nil
}

// Dirty reports whether any store has uncommitted changes.
func (s *Stores) Dirty() bool {
	return s.Shared.Dirty() || s.Scoped.Dirty() || s.Remotes.Dirty()
}

// Commit persists every dirty store in a single write.
func (s *Stores) Commit() error {
	return Commit(s.storage, s.Shared, s.Scoped, s.Remotes)
}

// Commit writes the dirty stores to st with one SetAll call and clears their
// dirty flags once the write succeeded. Nothing is written when no store is
// dirty.
func Commit(st storage.Storage, stores ...Committable) error {
	values := make(map[string]any)
	var dirty []Committable
	for _, s := range stores {
		if !s.Dirty() {
			continue
		}
		values[s.Key()] = s.snapshot()
		dirty = append(dirty, s)
	}
	if len(dirty) == 0 {
		return nil
	}
	if err := st.SetAll(values); err != nil {
		return err
	}
	for _, s := range dirty {
		s.markClean()
	}
	return nil
}
