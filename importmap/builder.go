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

package importmap

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"sync"

	"bennypowers.dev/nativefed/model"
	"bennypowers.dev/nativefed/resolve"
)

// SharedReader exposes the shared externals to the Builder.
type SharedReader interface {
	GetAll() model.SharedExternals
	Dirty() bool
}

// ScopedReader exposes the scoped externals to the Builder.
type ScopedReader interface {
	GetAll() model.ScopedExternalsByScope
	Dirty() bool
}

// RemoteReader exposes the known remotes to the Builder.
type RemoteReader interface {
	GetAll() model.RemoteInfos
	Dirty() bool
}

// Builder derives the import map of a federation from its cache stores.
//
// Build must run before the stores are committed: when no store is dirty
// the previously built map is returned.
type Builder struct {
	shared  SharedReader
	scoped  ScopedReader
	remotes RemoteReader
	strict  bool
	logger  resolve.Logger

	mu   sync.Mutex
	last *ImportMap
}

func NewBuilder(shared SharedReader, scoped ScopedReader, remotes RemoteReader) *Builder {
	return &Builder{shared: shared, scoped: scoped, remotes: remotes}
}

// WithStrict returns a new Builder that fails on entries it cannot resolve
// instead of skipping them.
func (b *Builder) WithStrict(strict bool) *Builder {
	return &Builder{shared: b.shared, scoped: b.scoped, remotes: b.remotes, strict: strict, logger: b.logger}
}

// WithLogger returns a new Builder that warns through logger.
func (b *Builder) WithLogger(logger resolve.Logger) *Builder {
	return &Builder{shared: b.shared, scoped: b.scoped, remotes: b.remotes, strict: b.strict, logger: logger}
}

// Build assembles the import map:
//   - imports maps every external with a shared winner to the winner's file,
//     resolved against the scope of the remote that provides it;
//   - scopes maps every scope to its private externals and to the modules
//     its remote exposes, keyed "<remote>/<module>".
func (b *Builder) Build() (*ImportMap, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.last != nil && !b.shared.Dirty() && !b.scoped.Dirty() && !b.remotes.Dirty() {
		return b.last.Clone(), nil
	}

	remotes := b.remotes.GetAll()
	im := &ImportMap{
		Imports: make(map[string]string),
		Scopes:  make(map[string]map[string]string),
	}

	shared := b.shared.GetAll()
	for _, name := range slices.Sorted(maps.Keys(shared)) {
		w, _, ok := shared[name].Winner()
		if !ok {
			continue
		}
		info, ok := remotes[w.Remote]
		if !ok {
			if err := b.skip(name, fmt.Errorf("remote %q providing %s@%s is unknown", w.Remote, name, w.Version)); err != nil {
				return nil, err
			}
			continue
		}
		u, err := ResolveFile(info.ScopeURL, w.File)
		if err != nil {
			if err := b.skip(name, err); err != nil {
				return nil, err
			}
			continue
		}
		im.Imports[name] = u
	}

	scoped := b.scoped.GetAll()
	for _, scope := range slices.Sorted(maps.Keys(scoped)) {
		externals := scoped[scope]
		for _, name := range slices.Sorted(maps.Keys(externals)) {
			u, err := ResolveFile(scope, externals[name].File)
			if err != nil {
				if err := b.skip(name, err); err != nil {
					return nil, err
				}
				continue
			}
			im.addScoped(scope, name, u)
		}
	}

	for _, remote := range slices.Sorted(maps.Keys(remotes)) {
		info := remotes[remote]
		for _, e := range info.Exposes {
			specifier := info.Name + "/" + model.NormalizeExposedKey(e.Key)
			u, err := ResolveFile(info.ScopeURL, e.OutFileName)
			if err != nil {
				if err := b.skip(specifier, err); err != nil {
					return nil, err
				}
				continue
			}
			im.addScoped(info.ScopeURL, specifier, u)
		}
	}

	if len(im.Imports) == 0 {
		im.Imports = nil
	}
	if len(im.Scopes) == 0 {
		im.Scopes = nil
	}
	b.last = im.Clone()
	return im, nil
}

func (im *ImportMap) addScoped(scope, specifier, u string) {
	if im.Scopes[scope] == nil {
		im.Scopes[scope] = make(map[string]string)
	}
	im.Scopes[scope][specifier] = u
}

// skip reports an unresolvable entry: an error in strict mode, a warning
// otherwise.
func (b *Builder) skip(specifier string, cause error) error {
	err := model.WithAttrs(
		model.Errorf(model.ErrImportMap, "cannot map %q: %v", specifier, cause),
		"specifier", specifier,
	)
	if b.strict {
		return err
	}
	if b.logger != nil {
		b.logger.Warn("skipping import map entry", err)
	}
	return nil
}

// ResolveFile resolves file against the scope URL of its remote. Absolute
// URLs are returned unchanged.
func ResolveFile(scope, file string) (string, error) {
	if file == "" {
		return "", fmt.Errorf("no file declared")
	}
	ref, err := url.Parse(file)
	if err != nil {
		return "", fmt.Errorf("invalid file %q: %w", file, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if scope == "" {
		return "", fmt.Errorf("file %q has no scope to resolve against", file)
	}
	base, err := url.Parse(scope)
	if err != nil {
		return "", fmt.Errorf("invalid scope %q: %w", scope, err)
	}
	return base.ResolveReference(ref).String(), nil
}
