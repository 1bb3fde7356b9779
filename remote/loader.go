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

package remote

import (
	"context"
	"maps"
	"sync"

	"bennypowers.dev/nativefed/importmap"
	"bennypowers.dev/nativefed/model"
)

// FetchLoader loads modules by fetching their source. It does not evaluate
// them.
type FetchLoader struct {
	fetcher Fetcher

	mu      sync.RWMutex
	imports map[string]string
}

// NewFetchLoader creates a loader that fetches through f.
func NewFetchLoader(f Fetcher) *FetchLoader {
	return &FetchLoader{fetcher: f}
}

// SetImportMap makes the imports of im available to bare specifiers.
func (l *FetchLoader) SetImportMap(im *importmap.ImportMap) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.imports = nil
	if im != nil {
		l.imports = maps.Clone(im.Imports)
	}
}

// ImportModule fetches the module at specifier, resolving bare specifiers
// through the import map first.
func (l *FetchLoader) ImportModule(ctx context.Context, specifier string) (model.Module, error) {
	url := l.resolve(specifier)
	src, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		return model.Module{}, fetchError(err, url, "failed to load module")
	}
	return model.Module{URL: url, Source: src}, nil
}

func (l *FetchLoader) resolve(specifier string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if u, ok := l.imports[specifier]; ok {
		return u
	}
	return specifier
}
