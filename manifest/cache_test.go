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
package manifest_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"bennypowers.dev/nativefed/manifest"
	"bennypowers.dev/nativefed/model"
)

const entryURL = "http://localhost:4201/remoteEntry.json"

func TestMemoryCacheGet(t *testing.T) {
	cache := manifest.NewMemoryCache()

	if _, ok := cache.Get(entryURL); ok {
		t.Error("Expected cache miss for unknown url")
	}

	cache.Set(entryURL, model.RemoteEntry{Name: "mfe1"})
	got, ok := cache.Get(entryURL)
	if !ok {
		t.Fatal("Expected cache hit after Set")
	}
	if got.Name != "mfe1" {
		t.Errorf("Expected name 'mfe1', got %q", got.Name)
	}
}

func TestMemoryCacheInvalidate(t *testing.T) {
	cache := manifest.NewMemoryCache()
	cache.Set(entryURL, model.RemoteEntry{Name: "mfe1"})

	cache.Invalidate(entryURL)

	if _, ok := cache.Get(entryURL); ok {
		t.Error("Expected cache miss after invalidation")
	}

	// Should not panic when invalidating an unknown url
	cache.Invalidate("http://nowhere/remoteEntry.json")
}

func TestMemoryCacheGetOrLoadConcurrency(t *testing.T) {
	cache := manifest.NewMemoryCache()
	var loads atomic.Int32

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			entry, err := cache.GetOrLoad(entryURL, func() (model.RemoteEntry, error) {
				loads.Add(1)
				return model.RemoteEntry{Name: "mfe1"}, nil
			})
			if err != nil {
				t.Errorf("GetOrLoad failed: %v", err)
			}
			if entry.Name != "mfe1" {
				t.Errorf("Expected mfe1, got %q", entry.Name)
			}
		})
	}
	wg.Wait()

	if n := loads.Load(); n != 1 {
		t.Errorf("Expected loader to run once, ran %d times", n)
	}
}

func TestMemoryCacheGetOrLoadRetriesAfterError(t *testing.T) {
	cache := manifest.NewMemoryCache()
	boom := errors.New("boom")

	_, err := cache.GetOrLoad(entryURL, func() (model.RemoteEntry, error) {
		return model.RemoteEntry{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected loader error, got %v", err)
	}

	entry, err := cache.GetOrLoad(entryURL, func() (model.RemoteEntry, error) {
		return model.RemoteEntry{Name: "mfe1"}, nil
	})
	if err != nil {
		t.Fatalf("Expected retry to succeed: %v", err)
	}
	if entry.Name != "mfe1" {
		t.Errorf("Expected mfe1, got %q", entry.Name)
	}
}
