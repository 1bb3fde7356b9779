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

package federation

import (
	"context"
	"maps"
	"slices"

	"bennypowers.dev/nativefed/importmap"
	"bennypowers.dev/nativefed/model"
	"bennypowers.dev/nativefed/resolve"
)

// ModuleLoader imports a module by URL or bare specifier.
type ModuleLoader interface {
	ImportModule(ctx context.Context, specifier string) (model.Module, error)
}

// ImportMapSetter is implemented by loaders that resolve bare specifiers
// themselves. They receive the import map after every successful pass.
type ImportMapSetter interface {
	SetImportMap(im *importmap.ImportMap)
}

// Federation is the outcome of a successful pass.
type Federation struct {
	cfg       Config
	importMap *importmap.ImportMap
	remotes   model.RemoteInfos
	loader    ModuleLoader
	results   []*resolve.Result
	skipped   []string
	excluded  map[string]error
}

// ImportMap returns a copy of the import map built by the pass.
func (f *Federation) ImportMap() *importmap.ImportMap {
	return f.importMap.Clone()
}

// Config returns the configuration the pass ran with.
func (f *Federation) Config() Config {
	return f.cfg
}

// Results lists the resolver outcome of every remote classified by the pass,
// the host first.
func (f *Federation) Results() []*resolve.Result {
	return slices.Clone(f.results)
}

// Skipped lists cached remotes the override policy kept as they were.
func (f *Federation) Skipped() []string {
	return slices.Clone(f.skipped)
}

// Excluded maps every remote left out of the pass to its error.
func (f *Federation) Excluded() map[string]error {
	return maps.Clone(f.excluded)
}

// Remotes lists the known remote names.
func (f *Federation) Remotes() []string {
	return slices.Sorted(maps.Keys(f.remotes))
}

// LoadRemoteModule imports the module that remoteName exposes under
// exposedModule. Both "./Component" and "Component" name the same module.
func (f *Federation) LoadRemoteModule(ctx context.Context, remoteName, exposedModule string) (model.Module, error) {
	info, ok := f.remotes[remoteName]
	if !ok {
		return model.Module{}, model.WithAttrs(
			model.Errorf(model.ErrRemoteNotFound, "remote %q is not part of the federation", remoteName),
			"remote", remoteName)
	}
	exposed, ok := info.Exposed(exposedModule)
	if !ok {
		return model.Module{}, model.WithAttrs(
			model.Errorf(model.ErrModuleNotExposed, "remote %q does not expose %q", remoteName, exposedModule),
			"remote", remoteName, "module", exposedModule)
	}

	u, err := importmap.ResolveFile(info.ScopeURL, exposed.OutFileName)
	if err != nil {
		return model.Module{}, model.WithAttrs(
			model.Errorf(model.ErrModuleNotExposed, "invalid module file %q: %v", exposed.OutFileName, err),
			"remote", remoteName, "module", exposedModule)
	}

	mod, err := f.loader.ImportModule(ctx, u)
	if err != nil {
		return model.Module{}, model.WithAttrs(err, "remote", remoteName, "module", exposedModule)
	}
	mod.Remote = remoteName
	mod.Key = model.NormalizeExposedKey(exposed.Key)
	if mod.URL == "" {
		mod.URL = u
	}
	return mod, nil
}
