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

// Package remote fetches federation manifests, remote entries and exposed
// modules over HTTP or from a local filesystem.
package remote

import (
	"context"
	"fmt"
	"strings"

	"bennypowers.dev/nativefed/fs"
	"github.com/tinywasm/fetch"
)

//go:generate go run go.uber.org/mock/mockgen -source=fetcher.go -destination=mocks/mock_fetcher.go -package=mocks

// Fetcher provides an abstraction over HTTP fetching.
type Fetcher interface {
	// Fetch retrieves content from the given URL.
	// Returns the response body bytes or an error if the request fails.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher implements Fetcher using tinywasm/fetch.
// Works in both native and WASM builds with minimal binary size.
type HTTPFetcher struct{}

// NewHTTPFetcher creates a new HTTP fetcher.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{}
}

// Fetch retrieves content from the given URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	type result struct {
		body []byte
		err  error
	}
	done := make(chan result, 1)

	fetch.Get(url).Send(func(resp *fetch.Response, err error) {
		if err != nil {
			done <- result{nil, &FetchError{URL: url, Message: err.Error()}}
			return
		}
		if resp.Status < 200 || resp.Status > 299 {
			done <- result{nil, &FetchError{
				URL:        url,
				StatusCode: resp.Status,
				Message:    fmt.Sprintf("HTTP %d", resp.Status),
			}}
			return
		}
		done <- result{resp.Body(), nil}
	})

	select {
	case r := <-done:
		return r.body, r.err
	case <-ctx.Done():
		return nil, &FetchError{URL: url, Message: ctx.Err().Error()}
	}
}

// FSFetcher reads URLs as paths on a filesystem. A "file://" prefix is
// stripped. A missing file reports status 404 so that callers treat it the
// same way as a missing HTTP resource.
type FSFetcher struct {
	fs fs.FileSystem
}

// NewFSFetcher creates a fetcher reading from fsys.
func NewFSFetcher(fsys fs.FileSystem) *FSFetcher {
	return &FSFetcher{fs: fsys}
}

// Fetch reads the file named by url.
func (f *FSFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: url, Message: err.Error()}
	}
	path := strings.TrimPrefix(url, "file://")
	if !f.fs.Exists(path) {
		return nil, &FetchError{URL: url, StatusCode: 404, Message: "Not Found"}
	}
	data, err := f.fs.ReadFile(path)
	if err != nil {
		return nil, &FetchError{URL: url, Message: err.Error()}
	}
	return data, nil
}

// SchemeFetcher sends http and https URLs to HTTP and everything else to
// Local.
type SchemeFetcher struct {
	HTTP  Fetcher
	Local Fetcher
}

// NewDefaultFetcher fetches http(s) URLs over the network and other URLs
// from the OS filesystem.
func NewDefaultFetcher() *SchemeFetcher {
	return &SchemeFetcher{
		HTTP:  NewHTTPFetcher(),
		Local: NewFSFetcher(fs.NewOSFileSystem()),
	}
}

// Fetch dispatches on the URL scheme.
func (f *SchemeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if IsHTTP(url) {
		return f.HTTP.Fetch(ctx, url)
	}
	return f.Local.Fetch(ctx, url)
}

// IsHTTP reports whether url has an http or https scheme.
func IsHTTP(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// FetchError represents an HTTP fetch error with status information.
type FetchError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

// IsNotFound returns true if the error represents a 404 Not Found response.
func (e *FetchError) IsNotFound() bool {
	return e.StatusCode == 404
}
