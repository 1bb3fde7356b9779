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

package main

import (
	"context"
	"fmt"
	"sync"
	"syscall/js"

	"bennypowers.dev/nativefed/importmap"
	"bennypowers.dev/nativefed/model"
)

// loader imports remote modules through the page's module loader:
// es-module-shims when present, then SystemJS, then native import().
type loader struct {
	mu        sync.Mutex
	installed bool
}

func newLoader() *loader {
	return &loader{}
}

// SetImportMap hands the import map to es-module-shims, or appends it to
// the document as a script element. Browsers honor only the first native
// import map, so later passes are ignored without the shim.
func (l *loader) SetImportMap(im *importmap.ImportMap) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data := im.Format("json")
	if shim := js.Global().Get("importShim"); shim.Type() == js.TypeFunction {
		if add := shim.Get("addImportMap"); add.Type() == js.TypeFunction {
			shim.Call("addImportMap", js.Global().Get("JSON").Call("parse", data))
			return
		}
	}
	if l.installed {
		return
	}
	doc := js.Global().Get("document")
	if doc.IsUndefined() || doc.IsNull() {
		return
	}
	script := doc.Call("createElement", "script")
	script.Set("type", "importmap")
	script.Set("textContent", data)
	doc.Get("head").Call("appendChild", script)
	l.installed = true
}

// ImportModule loads the module at url and returns its namespace object as
// the module's exports.
func (l *loader) ImportModule(ctx context.Context, url string) (model.Module, error) {
	promise, err := importer().Call(url)
	if err != nil {
		return model.Module{}, err
	}
	ns, err := await(ctx, promise)
	if err != nil {
		return model.Module{}, fmt.Errorf("import %s: %w", url, err)
	}
	return model.Module{URL: url, Exports: ns}, nil
}

type jsImporter struct {
	fn   js.Value
	this js.Value
	name string
}

func (i jsImporter) Call(url string) (p js.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s(%q): %v", i.name, url, r)
		}
	}()
	return i.fn.Call("call", i.this, url), nil
}

func importer() jsImporter {
	global := js.Global()
	if shim := global.Get("importShim"); shim.Type() == js.TypeFunction {
		return jsImporter{fn: shim, this: global, name: "importShim"}
	}
	if system := global.Get("System"); system.Type() == js.TypeObject {
		if imp := system.Get("import"); imp.Type() == js.TypeFunction {
			return jsImporter{fn: imp, this: system, name: "System.import"}
		}
	}
	dynamic := global.Get("Function").New("u", "return import(u)")
	return jsImporter{fn: dynamic, this: global, name: "import"}
}

// await blocks until promise settles or ctx is done.
func await(ctx context.Context, promise js.Value) (js.Value, error) {
	type settled struct {
		value js.Value
		err   error
	}
	done := make(chan settled, 1)

	onResolve := js.FuncOf(func(this js.Value, args []js.Value) any {
		v := js.Undefined()
		if len(args) > 0 {
			v = args[0]
		}
		done <- settled{value: v}
		return nil
	})
	onReject := js.FuncOf(func(this js.Value, args []js.Value) any {
		msg := "rejected"
		if len(args) > 0 {
			msg = args[0].Call("toString").String()
		}
		done <- settled{err: &jsError{message: msg}}
		return nil
	})
	promise.Call("then", onResolve, onReject)

	select {
	case s := <-done:
		onResolve.Release()
		onReject.Release()
		return s.value, s.err
	case <-ctx.Done():
		// the callbacks stay registered until the promise settles
		return js.Undefined(), ctx.Err()
	}
}
