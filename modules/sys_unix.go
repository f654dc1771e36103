//go:build linux || darwin || freebsd || netbsd || openbsd

package modules

import (
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/sys/unix"
)

func sysUname(L *lua.LState) int {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return pushError(L, err)
	}
	t := L.NewTable()
	t.RawSetString("sysname", lua.LString(unix.ByteSliceToString(u.Sysname[:])))
	t.RawSetString("nodename", lua.LString(unix.ByteSliceToString(u.Nodename[:])))
	t.RawSetString("release", lua.LString(unix.ByteSliceToString(u.Release[:])))
	t.RawSetString("version", lua.LString(unix.ByteSliceToString(u.Version[:])))
	t.RawSetString("machine", lua.LString(unix.ByteSliceToString(u.Machine[:])))
	L.Push(t)
	return 1
}
