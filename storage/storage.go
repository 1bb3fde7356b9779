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

// Package storage persists the federation cache as namespaced JSON values.
//
// Every value crosses a JSON boundary on both Set and Get, so callers never
// share a reference with what the storage holds.
package storage

import (
	"encoding/json"

	"bennypowers.dev/nativefed/model"
)

// Namespace prefixes every key written by an adapter.
const Namespace = "__NATIVE_FEDERATION__"

// Keys of the persisted cache aggregate.
const (
	KeySharedExternals = "shared-externals"
	KeyScopedExternals = "scoped-externals"
	KeyRemotes         = "remotes"
)

// Storage is the persistence port used by the stores.
//
//go:generate go run go.uber.org/mock/mockgen -source=storage.go -destination=mocks/mock_storage.go -package=mocks
type Storage interface {
	// Get decodes the value stored under key into out.
	// It reports false when nothing is stored.
	Get(key string, out any) (bool, error)
	Set(key string, value any) error
	// SetAll writes every entry in one logical write.
	SetAll(values map[string]any) error
	Clear(key string) error
}

// NamespacedKey returns key as it appears in the backing store.
func NamespacedKey(key string) string {
	return Namespace + "." + key
}

func encode(key string, value any) (json.RawMessage, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, model.WithAttrs(
			model.Errorf(model.ErrStorage, "cannot serialize %q: %v", key, err),
			"key", key,
		)
	}
	return data, nil
}

func decode(key string, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return model.WithAttrs(
			model.Errorf(model.ErrStorage, "cannot deserialize %q: %v", key, err),
			"key", key,
		)
	}
	return nil
}

func encodeAll(values map[string]any) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(values))
	for key, value := range values {
		data, err := encode(key, value)
		if err != nil {
			return nil, err
		}
		out[NamespacedKey(key)] = data
	}
	return out, nil
}
