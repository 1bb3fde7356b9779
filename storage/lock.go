//go:build !js

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
	"path/filepath"

	"github.com/juju/fslock"

	"bennypowers.dev/nativefed/model"
)

func (f *File) withLock(action func() error) (err error) {
	if f.lockPath == "" {
		return action()
	}
	if err := f.fs.MkdirAll(filepath.Dir(f.lockPath), 0o755); err != nil {
		return f.fileError("create lock directory for", err)
	}

	lock := fslock.New(f.lockPath)
	if err := lock.LockWithTimeout(f.lockTimeout); err != nil {
		return model.WithAttrs(
			model.Errorf(model.ErrStorage, "cannot lock %s: %v", f.lockPath, err),
			"path", f.lockPath,
		)
	}
	defer func() {
		if uerr := lock.Unlock(); uerr != nil && err == nil {
			err = f.fileError("unlock", uerr)
		}
	}()

	return action()
}
