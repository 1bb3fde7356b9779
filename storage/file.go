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
	"errors"
	iofs "io/fs"
	"maps"
	"path/filepath"
	"sync"
	"time"

	"bennypowers.dev/nativefed/fs"
	"bennypowers.dev/nativefed/model"
)

const defaultLockTimeout = 10 * time.Second

// File keeps the whole cache in one JSON document.
// Writes go to a sibling temp file which is then renamed over the document,
// so readers observe either the old or the new state. When a lock path is
// configured, writers in other processes are excluded with an OS file lock.
type File struct {
	fs          fs.FileSystem
	path        string
	lockPath    string
	lockTimeout time.Duration
	mu          sync.Mutex
}

// NewFile stores the document at path on fsys without cross-process locking.
func NewFile(fsys fs.FileSystem, path string) *File {
	return &File{fs: fsys, path: path, lockTimeout: defaultLockTimeout}
}

// OpenFile stores the document at path on the host filesystem, guarded by
// path + ".lock".
func OpenFile(path string) *File {
	return NewFile(fs.NewOSFileSystem(), path).WithLock(path+".lock", defaultLockTimeout)
}

// WithLock returns a copy that takes an OS file lock at lockPath around
// every write, waiting at most timeout for it.
func (f *File) WithLock(lockPath string, timeout time.Duration) *File {
	return &File{fs: f.fs, path: f.path, lockPath: lockPath, lockTimeout: timeout}
}

// Path is the location of the JSON document.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(key string, out any) (bool, error) {
	f.mu.Lock()
	doc, err := f.read()
	f.mu.Unlock()
	if err != nil {
		return false, err
	}
	data, ok := doc[NamespacedKey(key)]
	if !ok {
		return false, nil
	}
	return true, decode(key, data, out)
}

func (f *File) Set(key string, value any) error {
	return f.SetAll(map[string]any{key: value})
}

func (f *File) SetAll(values map[string]any) error {
	encoded, err := encodeAll(values)
	if err != nil {
		return err
	}
	return f.update(func(doc map[string]json.RawMessage) {
		maps.Copy(doc, encoded)
	})
}

func (f *File) Clear(key string) error {
	return f.update(func(doc map[string]json.RawMessage) {
		delete(doc, NamespacedKey(key))
	})
}

// update re-reads the document under the lock so concurrent writers
// touching other keys are not lost.
func (f *File) update(mutate func(map[string]json.RawMessage)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.withLock(func() error {
		doc, err := f.read()
		if err != nil {
			return err
		}
		mutate(doc)
		return f.write(doc)
	})
}

func (f *File) read() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)
	data, err := f.fs.ReadFile(f.path)
	if errors.Is(err, iofs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, f.fileError("read", err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, f.fileError("parse", err)
	}
	return doc, nil
}

func (f *File) write(doc map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return f.fileError("encode", err)
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := f.fs.MkdirAll(dir, 0o755); err != nil {
			return f.fileError("create directory for", err)
		}
	}
	tmp := f.path + ".tmp"
	if err := f.fs.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return f.fileError("write", err)
	}
	if err := f.fs.Rename(tmp, f.path); err != nil {
		_ = f.fs.Remove(tmp)
		return f.fileError("replace", err)
	}
	return nil
}

func (f *File) fileError(op string, err error) error {
	return model.WithAttrs(
		model.Errorf(model.ErrStorage, "cannot %s %s: %v", op, f.path, err),
		"path", f.path,
	)
}
