//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package modules

import (
	"errors"

	lua "github.com/yuin/gopher-lua"
)

func sysUname(L *lua.LState) int {
	return pushError(L, errors.New("uname: not supported on this platform"))
}
