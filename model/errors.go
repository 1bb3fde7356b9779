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

package model

import (
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrFetch is returned when a manifest or remote entry cannot be fetched
	// or decoded.
	ErrFetch = zerr.New("fetch failed")

	// ErrInvalidManifest is returned when a manifest is malformed.
	ErrInvalidManifest = zerr.New("invalid manifest")

	// ErrInvalidRemoteEntry is returned when a remote entry is malformed.
	ErrInvalidRemoteEntry = zerr.New("invalid remote entry")

	// ErrInvalidVersion is returned when a version string is not valid semver
	// and strict version checking is enabled.
	ErrInvalidVersion = zerr.New("invalid semver version")

	// ErrIncompatible is returned when strict compatibility checking is
	// enabled and a shared external has no compatible shared version.
	ErrIncompatible = zerr.New("incompatible shared external")

	// ErrStorage is returned when a cache entry cannot be stored or loaded.
	ErrStorage = zerr.New("storage failure")

	// ErrImportMap is returned when the import map cannot be assembled.
	ErrImportMap = zerr.New("import map build failed")

	// ErrRemoteNotFound is returned when loading a module of an unknown remote.
	ErrRemoteNotFound = zerr.New("remote not found")

	// ErrModuleNotExposed is returned when a remote does not expose a module.
	ErrModuleNotExposed = zerr.New("module not exposed")

	// ErrInvalidConfig is returned for unknown profile or strict options.
	ErrInvalidConfig = zerr.New("invalid configuration")
)

// Errorf wraps the sentinel kind with a formatted detail message.
func Errorf(kind error, format string, args ...any) error {
	return zerr.Wrap(kind, fmt.Sprintf(format, args...))
}

// WithAttrs attaches key/value metadata pairs to err.
func WithAttrs(err error, kv ...any) error {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		err = zerr.With(err, key, kv[i+1])
	}
	return err
}
