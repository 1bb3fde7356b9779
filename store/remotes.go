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

// RemoteInfos remembers the remotes that were already resolved.
type RemoteInfos struct {
	mu      sync.RWMutex
	remotes model.RemoteInfos
	dirty   bool
}

func NewRemoteInfos() *RemoteInfos {
	return &RemoteInfos{remotes: make(model.RemoteInfos)}
}

func (r *RemoteInfos) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.remotes[name]
	return ok
}

func (r *RemoteInfos) TryGet(name string) (model.RemoteInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.remotes[name]
	if !ok {
		return model.RemoteInfo{}, false
	}
	return info.Clone(), true
}

func (r *RemoteInfos) AddOrUpdate(info model.RemoteInfo) *RemoteInfos {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remotes[info.Name] = info.Clone()
	r.dirty = true
	return r
}

func (r *RemoteInfos) Remove(name string) *RemoteInfos {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.remotes[name]; ok {
		delete(r.remotes, name)
		r.dirty = true
	}
	return r
}

// Names returns the remote names in sorted order.
func (r *RemoteInfos) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.remotes))
}

func (r *RemoteInfos) GetAll() model.RemoteInfos {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.remotes.Clone()
}

func (r *RemoteInfos) Set(remotes model.RemoteInfos) *RemoteInfos {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remotes = remotes.Clone()
	if r.remotes == nil {
		r.remotes = make(model.RemoteInfos)
	}
	r.dirty = true
	return r
}

func (r *RemoteInfos) Dirty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dirty
}

func (r *RemoteInfos) Commit(st storage.Storage) error {
	return Commit(st, r)
}

func (r *RemoteInfos) Key() string {
	return storage.KeyRemotes
}

func (r *RemoteInfos) snapshot() any {
	return r.GetAll()
}

func (r *RemoteInfos) markClean() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = false
}
