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

// Package federation runs initialization passes: it fetches the manifest
// and remote entries, classifies shared dependencies, builds the import map
// and commits the cache.
package federation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"bennypowers.dev/nativefed/importmap"
	"bennypowers.dev/nativefed/logging"
	"bennypowers.dev/nativefed/manifest"
	"bennypowers.dev/nativefed/model"
	"bennypowers.dev/nativefed/remote"
	"bennypowers.dev/nativefed/resolve"
	"bennypowers.dev/nativefed/storage"
	"bennypowers.dev/nativefed/store"
	"bennypowers.dev/nativefed/versions"
)

// Metrics records pass outcomes. *metrics.Metrics implements it.
type Metrics interface {
	resolve.Metrics
	ObserveRemoteError(remote string)
	ObservePass(start time.Time, err error, shared int)
}

// Dependencies are the ports a pass runs against. Nil fields get defaults:
// storage from Config.Storage, an HTTP provider and fetch loader, the
// semver comparator and a stderr logger at Config.LogLevel.
type Dependencies struct {
	Storage    storage.Storage
	Manifests  remote.ManifestProvider
	Entries    remote.EntryProvider
	Loader     ModuleLoader
	Comparator versions.Comparator
	Logger     resolve.Logger
	Metrics    Metrics
}

// Initializer runs passes with one configuration.
type Initializer struct {
	cfg  Config
	deps Dependencies
}

// New validates cfg and fills in default dependencies.
func New(cfg Config, deps Dependencies) (*Initializer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if deps.Storage == nil {
		if cfg.Storage != "" {
			deps.Storage = storage.OpenFile(cfg.Storage)
		} else {
			deps.Storage = storage.NewMemory()
		}
	}
	if deps.Manifests == nil || deps.Entries == nil {
		p := remote.NewProvider(remote.NewDefaultFetcher()).
			WithCache(manifest.NewMemoryCache()).
			WithStrict(cfg.Strict.StrictRemoteEntry)
		if deps.Manifests == nil {
			deps.Manifests = p
		}
		if deps.Entries == nil {
			deps.Entries = p
		}
	}
	if deps.Loader == nil {
		deps.Loader = remote.NewFetchLoader(remote.NewDefaultFetcher())
	}
	if deps.Comparator == nil {
		deps.Comparator = versions.NewSemver()
	}
	if deps.Logger == nil {
		level, _ := logging.ParseLevel(cfg.LogLevel)
		deps.Logger = logging.New(os.Stderr, logging.Options{Level: level})
	}

	return &Initializer{cfg: cfg, deps: deps}, nil
}

// Init fetches the manifest at manifestURL and runs a pass over it.
// A manifest that cannot be fetched fails the pass.
func (i *Initializer) Init(ctx context.Context, manifestURL string) (*Federation, error) {
	m, err := i.deps.Manifests.FetchManifest(ctx, manifestURL)
	if err != nil {
		i.observePass(time.Now(), err, nil)
		return nil, err
	}
	return i.InitFromManifest(ctx, m)
}

// InitFromManifest runs a pass over m.
//
// Remote entries are fetched concurrently and classified one at a time in
// manifest order, after the host entry. A remote that fails to fetch or
// validate is logged and left out unless StrictRemoteEntry is set. The
// cache is committed only when the whole pass succeeds.
func (i *Initializer) InitFromManifest(ctx context.Context, m model.Manifest) (*Federation, error) {
	start := time.Now()
	f, err := i.run(ctx, m)
	i.observePass(start, err, f)
	return f, err
}

type fetched struct {
	name  string
	url   string
	entry model.RemoteEntry
	err   error
}

func (i *Initializer) run(ctx context.Context, m model.Manifest) (*Federation, error) {
	stores, err := store.Open(i.deps.Storage)
	if err != nil {
		return nil, err
	}

	resolver := resolve.New(stores.Shared, stores.Scoped, stores.Remotes, i.deps.Comparator).
		WithLogger(i.deps.Logger).
		WithProfile(i.cfg.Profile).
		WithStrict(i.cfg.Strict)
	if i.deps.Metrics != nil {
		resolver = resolver.WithMetrics(i.deps.Metrics)
	}

	f := &Federation{
		cfg:      i.cfg,
		loader:   i.deps.Loader,
		excluded: make(map[string]error),
	}

	if i.cfg.HostRemoteEntry != "" {
		entry, err := i.deps.Entries.FetchEntry(ctx, i.cfg.HostRemoteEntry)
		if err != nil {
			return nil, model.WithAttrs(err, "remote", "host")
		}
		entry.Host = true
		result, err := resolver.Resolve(entry)
		if err != nil {
			return nil, model.WithAttrs(err, "remote", entry.Name)
		}
		f.results = append(f.results, result)
	}

	var pending []*fetched
	for _, e := range m.Entries() {
		if !resolver.ShouldResolve(e.Name, e.URL) {
			f.skipped = append(f.skipped, e.Name)
			continue
		}
		pending = append(pending, &fetched{name: e.Name, url: e.URL})
	}

	if err := i.fetchAll(ctx, pending); err != nil {
		return nil, err
	}

	for _, p := range pending {
		if p.err == nil {
			if p.entry.Name != "" && p.entry.Name != p.name {
				i.warn(fmt.Sprintf("remote entry %s is named %q, using manifest name %q", p.url, p.entry.Name, p.name), nil)
				p.entry.Name = p.name
			}
			var result *resolve.Result
			result, p.err = resolver.Resolve(p.entry)
			if p.err == nil {
				f.results = append(f.results, result)
				continue
			}
			if errors.Is(p.err, model.ErrIncompatible) {
				return nil, model.WithAttrs(p.err, "remote", p.name)
			}
		}
		if err := i.exclude(f, resolver, p); err != nil {
			return nil, err
		}
	}

	builder := importmap.NewBuilder(stores.Shared, stores.Scoped, stores.Remotes).
		WithStrict(i.cfg.Strict.StrictImportMap).
		WithLogger(i.deps.Logger)
	im, err := builder.Build()
	if err != nil {
		return nil, err
	}

	if err := stores.Commit(); err != nil {
		return nil, err
	}

	f.importMap = im
	f.remotes = stores.Remotes.GetAll()
	if setter, ok := f.loader.(ImportMapSetter); ok {
		setter.SetImportMap(im.Clone())
	}
	return f, nil
}

// fetchAll fills in every pending entry. Under StrictRemoteEntry the first
// failure cancels the remaining fetches and is returned.
func (i *Initializer) fetchAll(ctx context.Context, pending []*fetched) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.cfg.concurrency())

	for _, p := range pending {
		g.Go(func() error {
			p.entry, p.err = i.deps.Entries.FetchEntry(gctx, p.url)
			if p.err != nil && i.cfg.Strict.StrictRemoteEntry {
				return model.WithAttrs(p.err, "remote", p.name)
			}
			return nil
		})
	}
	return g.Wait()
}

// exclude records a failed remote, or fails the pass under
// StrictRemoteEntry. A remote known from an earlier pass is forgotten so
// that none of its cached versions, scope or exposes reach the import map.
func (i *Initializer) exclude(f *Federation, resolver *resolve.Resolver, p *fetched) error {
	err := model.WithAttrs(p.err, "remote", p.name)
	if i.cfg.Strict.StrictRemoteEntry {
		return err
	}
	i.deps.Logger.Error(fmt.Sprintf("excluding remote %q", p.name), err)
	if resolver.Forget(p.name) {
		i.deps.Logger.Debug(fmt.Sprintf("dropped cached resolution of remote %q", p.name), nil)
	}
	if i.deps.Metrics != nil {
		i.deps.Metrics.ObserveRemoteError(p.name)
	}
	f.excluded[p.name] = err
	return nil
}

func (i *Initializer) warn(msg string, err error) {
	i.deps.Logger.Warn(msg, err)
}

func (i *Initializer) observePass(start time.Time, err error, f *Federation) {
	if i.deps.Metrics == nil {
		return
	}
	shared := 0
	if f != nil && f.importMap != nil {
		shared = len(f.importMap.Imports)
	}
	i.deps.Metrics.ObservePass(start, err, shared)
}
