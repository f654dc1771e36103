package modules

import (
	"os"
	"runtime"

	lua "github.com/yuin/gopher-lua"
)

// abi names the C ABI family the launcher is published for. Go binaries do
// not link a libc, so release builds set it with
//
//	-ldflags "-X github.com/chazu/luastow/modules.abi=musl"
var abi = ""

// osName maps GOOS to the names scripts test against.
func osName(goos string) string {
	switch goos {
	case "darwin":
		return "macos"
	default:
		return goos
	}
}

// archName maps GOARCH to the names scripts test against.
func archName(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	case "arm64":
		return "aarch64"
	default:
		return goarch
	}
}

// abiName returns the configured ABI, or the usual one for the platform.
func abiName(goos string) string {
	if abi != "" {
		return abi
	}
	switch goos {
	case "darwin":
		return "none"
	default:
		return "gnu"
	}
}

// OpenSys loads the sys module.
func OpenSys(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"hostname": sysHostname,
		"uname":    sysUname,
		"pid":      sysPid,
		"getenv":   sysGetenv,
	})
	mod.RawSetString("os", lua.LString(osName(runtime.GOOS)))
	mod.RawSetString("arch", lua.LString(archName(runtime.GOARCH)))
	mod.RawSetString("abi", lua.LString(abiName(runtime.GOOS)))
	mod.RawSetString("cpus", lua.LNumber(runtime.NumCPU()))
	L.Push(mod)
	return 1
}

func sysHostname(L *lua.LState) int {
	name, err := os.Hostname()
	if err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LString(name))
	return 1
}

func sysPid(L *lua.LState) int {
	L.Push(lua.LNumber(os.Getpid()))
	return 1
}

func sysGetenv(L *lua.LState) int {
	v, ok := os.LookupEnv(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(v))
	return 1
}
