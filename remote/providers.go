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
	"errors"

	"bennypowers.dev/nativefed/manifest"
	"bennypowers.dev/nativefed/model"
)

//go:generate go run go.uber.org/mock/mockgen -source=providers.go -destination=mocks/mock_providers.go -package=mocks

// ManifestProvider fetches the federation manifest.
type ManifestProvider interface {
	FetchManifest(ctx context.Context, url string) (model.Manifest, error)
}

// EntryProvider fetches remote entries.
type EntryProvider interface {
	FetchEntry(ctx context.Context, url string) (model.RemoteEntry, error)
}

// Provider implements ManifestProvider and EntryProvider on top of a Fetcher.
type Provider struct {
	fetcher Fetcher
	cache   manifest.Cache
	opts    manifest.Options
}

// NewProvider creates a provider that fetches through f.
func NewProvider(f Fetcher) *Provider {
	return &Provider{fetcher: f}
}

// WithCache returns a new provider that reuses decoded entries from cache.
func (p *Provider) WithCache(cache manifest.Cache) *Provider {
	clone := *p
	clone.cache = cache
	return &clone
}

// WithStrict returns a new provider that validates documents against the
// manifest and remote entry schemas.
func (p *Provider) WithStrict(strict bool) *Provider {
	clone := *p
	clone.opts.Strict = strict
	return &clone
}

// FetchManifest fetches and decodes the manifest at url. Relative entry
// URLs are resolved against url.
func (p *Provider) FetchManifest(ctx context.Context, url string) (model.Manifest, error) {
	data, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return model.Manifest{}, fetchError(err, url, "failed to fetch manifest")
	}
	return manifest.ParseManifest(data, url, &p.opts)
}

// FetchEntry fetches and decodes the remote entry at url.
func (p *Provider) FetchEntry(ctx context.Context, url string) (model.RemoteEntry, error) {
	load := func() (model.RemoteEntry, error) {
		data, err := p.fetcher.Fetch(ctx, url)
		if err != nil {
			return model.RemoteEntry{}, fetchError(err, url, "failed to fetch remote entry")
		}
		return manifest.ParseEntry(data, url, &p.opts)
	}
	if p.cache == nil {
		return load()
	}
	return p.cache.GetOrLoad(url, load)
}

// Invalidate drops a cached entry so that the next FetchEntry refetches it.
func (p *Provider) Invalidate(url string) {
	if p.cache != nil {
		p.cache.Invalidate(url)
	}
}

func fetchError(err error, url, msg string) error {
	wrapped := model.WithAttrs(model.Errorf(model.ErrFetch, "%s: %v", msg, err), "url", url)
	var fe *FetchError
	if errors.As(err, &fe) && fe.StatusCode > 0 {
		wrapped = model.WithAttrs(wrapped, "status", fe.StatusCode)
	}
	return wrapped
}
