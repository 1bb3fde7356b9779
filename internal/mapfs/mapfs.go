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

// Package mapfs provides an in-memory FileSystem for tests.
package mapfs

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"testing/fstest"
	"time"
)

// MapFileSystem implements fs.FileSystem on top of fstest.MapFS.
// Paths are stored without a leading slash, so "/a/b" and "a/b" name the
// same file.
type MapFileSystem struct {
	mu      sync.RWMutex
	files   fstest.MapFS
	modTime time.Time
}

func New() *MapFileSystem {
	return &MapFileSystem{
		files:   make(fstest.MapFS),
		modTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// AddFile seeds a file, creating parent directories implicitly.
func (m *MapFileSystem) AddFile(name string, content string, mode fs.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[clean(name)] = &fstest.MapFile{Data: []byte(content), Mode: mode, ModTime: m.modTime}
}

func (m *MapFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = clean(name)
	if err := m.checkParentLocked(name); err != nil {
		return err
	}
	m.files[name] = &fstest.MapFile{
		Data:    append([]byte(nil), data...),
		Mode:    perm,
		ModTime: m.modTime,
	}
	return nil
}

func (m *MapFileSystem) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fs.ReadFile(m.files, clean(name))
}

func (m *MapFileSystem) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = clean(name)
	if _, ok := m.files[name]; !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	delete(m.files, name)
	return nil
}

func (m *MapFileSystem) Rename(oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldpath, newpath = clean(oldpath), clean(newpath)
	f, ok := m.files[oldpath]
	if !ok {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}
	if err := m.checkParentLocked(newpath); err != nil {
		return err
	}
	delete(m.files, oldpath)
	m.files[newpath] = f
	return nil
}

func (m *MapFileSystem) MkdirAll(dir string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir = clean(dir)
	if f, ok := m.files[dir]; ok && !f.Mode.IsDir() {
		return &fs.PathError{Op: "mkdir", Path: dir, Err: fmt.Errorf("not a directory")}
	}
	m.files[dir] = &fstest.MapFile{Mode: fs.ModeDir | perm.Perm(), ModTime: m.modTime}
	return nil
}

func (m *MapFileSystem) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fs.Stat(m.files, clean(name))
}

func (m *MapFileSystem) Exists(name string) bool {
	_, err := m.Stat(name)
	return err == nil
}

func (m *MapFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fs.ReadDir(m.files, clean(name))
}

func (m *MapFileSystem) Open(name string) (fs.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.files.Open(clean(name))
}

// Files lists every regular file path, sorted.
func (m *MapFileSystem) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.files))
	for p, f := range m.files {
		if !f.Mode.IsDir() {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func clean(p string) string {
	p = path.Clean("/" + p)
	if p == "/" {
		return "."
	}
	return strings.TrimPrefix(p, "/")
}

func (m *MapFileSystem) checkParentLocked(name string) error {
	dir := path.Dir(name)
	if dir == "." {
		return nil
	}
	if f, ok := m.files[dir]; ok && !f.Mode.IsDir() {
		return &fs.PathError{Op: "open", Path: name, Err: fmt.Errorf("not a directory")}
	}
	return nil
}
