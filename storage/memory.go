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

package storage

import (
	"encoding/json"
	"maps"
	"sync"
)

// Memory keeps encoded values in process memory.
type Memory struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]json.RawMessage)}
}

func (m *Memory) Get(key string, out any) (bool, error) {
	m.mu.RLock()
	data, ok := m.values[NamespacedKey(key)]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, decode(key, data, out)
}

func (m *Memory) Set(key string, value any) error {
	return m.SetAll(map[string]any{key: value})
}

// SetAll encodes everything before touching the map, so a value that fails
// to serialize leaves the storage unchanged.
func (m *Memory) SetAll(values map[string]any) error {
	encoded, err := encodeAll(values)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	maps.Copy(m.values, encoded)
	return nil
}

func (m *Memory) Clear(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, NamespacedKey(key))
	return nil
}
