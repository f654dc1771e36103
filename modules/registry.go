// Package modules holds the registry of extension modules installed into the
// interpreter at startup, along with the built-in modules.
package modules

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

var ErrModuleInstall = errors.New("cannot install module")

// Entry pairs a module name with the loader that builds it. A loader pushes
// the module value and returns 1, like any Lua module opener.
type Entry struct {
	Name string
	Open lua.LGFunction
}

// Registry is an ordered list of modules. It is filled once at startup and
// only read afterwards.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// NewRegistry creates a registry holding the given entries in order.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{index: make(map[string]int)}
	for _, e := range entries {
		r.Register(e.Name, e.Open)
	}
	return r
}

// Register appends a module. Registering a name again replaces the loader but
// keeps the original position.
func (r *Registry) Register(name string, open lua.LGFunction) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[name]; ok {
		r.entries[i].Open = open
		return
	}
	r.index[name] = len(r.entries)
	r.entries = append(r.entries, Entry{Name: name, Open: open})
}

// Names returns the registered module names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Install loads every module into L in order. Each module is preloaded,
// required, and bound to a global of the same name.
func (r *Registry) Install(L *lua.LState) error {
	for _, e := range r.entries {
		if err := install(L, e); err != nil {
			return err
		}
	}
	return nil
}

func install(L *lua.LState, e Entry) error {
	if e.Open == nil {
		return fmt.Errorf("%w %q: nil loader", ErrModuleInstall, e.Name)
	}
	L.PreloadModule(e.Name, e.Open)

	err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal("require"),
		NRet:    1,
		Protect: true,
	}, lua.LString(e.Name))
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrModuleInstall, e.Name, err)
	}

	mod := L.Get(-1)
	L.Pop(1)
	L.SetGlobal(e.Name, mod)
	return nil
}

// Default returns a registry with the built-in modules.
func Default() *Registry {
	return NewRegistry(
		Entry{Name: "fs", Open: OpenFS},
		Entry{Name: "ps", Open: OpenPS},
		Entry{Name: "sys", Open: OpenSys},
		Entry{Name: "crypto", Open: OpenCrypto},
		Entry{Name: "cbor", Open: OpenCBOR},
		Entry{Name: "sqlite", Open: OpenSQLite},
		Entry{Name: "readline", Open: OpenReadline},
	)
}
