//go:build js && wasm

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

package main

import (
	"encoding/json"
	"fmt"
	"syscall/js"

	"bennypowers.dev/nativefed/model"
	"bennypowers.dev/nativefed/storage"
)

// webStorage persists the cache in a Web Storage area such as
// localStorage. Every key is namespaced and stored as JSON text.
type webStorage struct {
	area js.Value
}

func newWebStorage(area js.Value) *webStorage {
	return &webStorage{area: area}
}

func (w *webStorage) Get(key string, out any) (bool, error) {
	var item js.Value
	if err := w.call(key, func() { item = w.area.Call("getItem", storage.NamespacedKey(key)) }); err != nil {
		return false, err
	}
	if item.IsNull() || item.IsUndefined() {
		return false, nil
	}
	if err := json.Unmarshal([]byte(item.String()), out); err != nil {
		return false, storageError(key, err)
	}
	return true, nil
}

func (w *webStorage) Set(key string, value any) error {
	return w.SetAll(map[string]any{key: value})
}

// SetAll encodes every value before writing any, so an unencodable value
// leaves the area untouched.
func (w *webStorage) SetAll(values map[string]any) error {
	encoded := make(map[string]string, len(values))
	for key, value := range values {
		data, err := json.Marshal(value)
		if err != nil {
			return storageError(key, err)
		}
		encoded[key] = string(data)
	}
	for key, data := range encoded {
		if err := w.call(key, func() { w.area.Call("setItem", storage.NamespacedKey(key), data) }); err != nil {
			return err
		}
	}
	return nil
}

func (w *webStorage) Clear(key string) error {
	return w.call(key, func() { w.area.Call("removeItem", storage.NamespacedKey(key)) })
}

// call converts a thrown JS exception, e.g. QuotaExceededError, into an
// error.
func (w *webStorage) call(key string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = storageError(key, fmt.Errorf("%v", r))
		}
	}()
	fn()
	return nil
}

func storageError(key string, err error) error {
	return model.WithAttrs(
		model.Errorf(model.ErrStorage, "cannot store %q: %v", key, err),
		"key", key,
	)
}
