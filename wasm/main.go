//go:build js && wasm

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

// Package main provides the WASM entry point for nativefed.
package main

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"syscall/js"

	"bennypowers.dev/nativefed/federation"
	"bennypowers.dev/nativefed/internal/version"
	"bennypowers.dev/nativefed/logging"
	"bennypowers.dev/nativefed/manifest"
	"bennypowers.dev/nativefed/model"
	"bennypowers.dev/nativefed/storage"
)

func main() {
	nativeFederation := make(map[string]any)
	nativeFederation["initFederation"] = js.FuncOf(initFederation)
	nativeFederation["version"] = version.GetVersion()

	js.Global().Set("nativeFederation", js.ValueOf(nativeFederation))

	// Keep the program running
	select {}
}

// initFederation runs one initialization pass.
// Arguments:
//   - manifestOrUrl: string | object - The manifest URL, or the manifest
//     itself as an object mapping remote names to remoteEntry.json URLs
//   - config: object (optional) - Federation options
//   - strict: { strictRemoteEntry, strictExternalCompatibility,
//     strictExternalVersion, strictImportMap }
//   - profile: { latestSharedExternal, overrideCachedRemotes,
//     overrideCachedRemotesIfURLMatches }
//   - hostRemoteEntry: string - URL of the host's remoteEntry.json
//   - logLevel: string - "debug", "warn" or "error"
//   - storage: string - "localStorage", "sessionStorage" or "" for memory
//
// Returns a Promise that resolves to an object with importMap, remotes,
// excluded and a loadRemoteModule(remote, exposedModule) function.
func initFederation(this js.Value, args []js.Value) any {
	return newPromise(func() (any, error) {
		return doInit(args)
	})
}

func doInit(args []js.Value) (any, error) {
	if len(args) < 1 || args[0].IsUndefined() || args[0].IsNull() {
		return nil, &jsError{message: "initFederation requires a manifest or manifest URL"}
	}

	cfg, err := parseConfig(args)
	if err != nil {
		return nil, err
	}
	st, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}
	cfg.Storage = ""
	if cfg.HostRemoteEntry != "" {
		cfg.HostRemoteEntry = absolute(cfg.HostRemoteEntry)
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	loader := newLoader()
	initializer, err := federation.New(cfg, federation.Dependencies{
		Storage: st,
		Loader:  loader,
		Logger:  logging.New(os.Stderr, logging.Options{Level: level, NoColor: true}),
	})
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	var fed *federation.Federation
	if args[0].Type() == js.TypeString {
		fed, err = initializer.Init(ctx, absolute(args[0].String()))
	} else {
		var m model.Manifest
		m, err = parseManifest(args[0])
		if err == nil {
			fed, err = initializer.InitFromManifest(ctx, m)
		}
	}
	if err != nil {
		return nil, err
	}
	return federationObject(fed)
}

func parseManifest(v js.Value) (model.Manifest, error) {
	data := js.Global().Get("JSON").Call("stringify", v).String()
	return manifest.ParseManifest([]byte(data), baseURL(), nil)
}

// parseConfig decodes the optional config object through its JSON form.
func parseConfig(args []js.Value) (federation.Config, error) {
	cfg := federation.DefaultConfig()
	if len(args) < 2 || args[1].IsUndefined() || args[1].IsNull() {
		return cfg, nil
	}
	data := js.Global().Get("JSON").Call("stringify", args[1]).String()
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return cfg, &jsError{message: "invalid config: " + err.Error()}
	}
	return cfg, nil
}

func openStorage(name string) (storage.Storage, error) {
	switch name {
	case "":
		return storage.NewMemory(), nil
	case "localStorage", "sessionStorage":
		area := js.Global().Get(name)
		if area.IsUndefined() || area.IsNull() {
			return nil, &jsError{message: name + " is not available"}
		}
		return newWebStorage(area), nil
	default:
		return nil, &jsError{message: "unknown storage " + name + " (expected localStorage or sessionStorage)"}
	}
}

func federationObject(fed *federation.Federation) (any, error) {
	imports := js.Global().Get("JSON").Call("parse", fed.ImportMap().Format("json"))

	remotes := make([]any, 0)
	for _, name := range fed.Remotes() {
		remotes = append(remotes, name)
	}
	excluded := make(map[string]any)
	for name, err := range fed.Excluded() {
		excluded[name] = err.Error()
	}

	result := js.ValueOf(map[string]any{
		"remotes":  remotes,
		"excluded": excluded,
	})
	result.Set("importMap", imports)
	result.Set("loadRemoteModule", js.FuncOf(func(this js.Value, args []js.Value) any {
		return newPromise(func() (any, error) {
			if len(args) < 2 {
				return nil, &jsError{message: "loadRemoteModule requires a remote name and an exposed module"}
			}
			mod, err := fed.LoadRemoteModule(context.Background(), args[0].String(), args[1].String())
			if err != nil {
				return nil, err
			}
			return mod.Exports, nil
		})
	}))
	return result, nil
}

// baseURL is the document URL relative manifests and entries resolve against.
func baseURL() string {
	if doc := js.Global().Get("document"); !doc.IsUndefined() && !doc.IsNull() {
		return doc.Get("baseURI").String()
	}
	if loc := js.Global().Get("location"); !loc.IsUndefined() && !loc.IsNull() {
		return loc.Get("href").String()
	}
	return ""
}

func absolute(ref string) string {
	base, err := url.Parse(baseURL())
	if err != nil || base.String() == "" {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}

// newPromise runs fn on a goroutine and settles a JS Promise with its
// result.
func newPromise(fn func() (any, error)) js.Value {
	handler := js.FuncOf(func(this js.Value, promiseArgs []js.Value) any {
		resolve := promiseArgs[0]
		reject := promiseArgs[1]

		go func() {
			result, err := fn()
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(result)
		}()

		return nil
	})

	promise := js.Global().Get("Promise").New(handler)
	handler.Release()
	return promise
}

// jsError represents an error to be returned to JavaScript.
type jsError struct {
	message string
}

func (e *jsError) Error() string {
	return e.message
}
