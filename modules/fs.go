package modules

import (
	"os"

	lua "github.com/yuin/gopher-lua"
)

var fsFuncs = map[string]lua.LGFunction{
	"read":   fsRead,
	"write":  fsWrite,
	"exists": fsExists,
	"list":   fsList,
	"mkdir":  fsMkdir,
	"remove": fsRemove,
	"stat":   fsStat,
}

// OpenFS loads the fs module.
func OpenFS(L *lua.LState) int {
	L.Push(L.SetFuncs(L.NewTable(), fsFuncs))
	return 1
}

// pushError pushes the nil, message pair Lua code expects from a failed call.
func pushError(L *lua.LState, err error) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}

func fsRead(L *lua.LState) int {
	data, err := os.ReadFile(L.CheckString(1))
	if err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LString(data))
	return 1
}

func fsWrite(L *lua.LState) int {
	path := L.CheckString(1)
	data := L.CheckString(2)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

func fsExists(L *lua.LState) int {
	_, err := os.Stat(L.CheckString(1))
	L.Push(lua.LBool(err == nil))
	return 1
}

func fsList(L *lua.LState) int {
	entries, err := os.ReadDir(L.CheckString(1))
	if err != nil {
		return pushError(L, err)
	}
	t := L.CreateTable(len(entries), 0)
	for _, e := range entries {
		t.Append(lua.LString(e.Name()))
	}
	L.Push(t)
	return 1
}

func fsMkdir(L *lua.LState) int {
	if err := os.MkdirAll(L.CheckString(1), 0755); err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

func fsRemove(L *lua.LState) int {
	if err := os.RemoveAll(L.CheckString(1)); err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

func fsStat(L *lua.LState) int {
	info, err := os.Stat(L.CheckString(1))
	if err != nil {
		return pushError(L, err)
	}
	t := L.NewTable()
	t.RawSetString("name", lua.LString(info.Name()))
	t.RawSetString("size", lua.LNumber(info.Size()))
	t.RawSetString("mode", lua.LString(info.Mode().String()))
	t.RawSetString("isdir", lua.LBool(info.IsDir()))
	t.RawSetString("modtime", lua.LNumber(info.ModTime().Unix()))
	L.Push(t)
	return 1
}
