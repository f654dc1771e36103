package modules

import (
	"time"

	lua "github.com/yuin/gopher-lua"
)

// start anchors ps.clock.
var start = time.Now()

// OpenPS loads the ps module: process timing helpers.
func OpenPS(L *lua.LState) int {
	L.Push(L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"sleep": psSleep,
		"time":  psTime,
		"clock": psClock,
	}))
	return 1
}

// psSleep pauses for the given number of seconds, fractions allowed.
func psSleep(L *lua.LState) int {
	secs := float64(L.CheckNumber(1))
	if secs > 0 {
		time.Sleep(time.Duration(secs * float64(time.Second)))
	}
	return 0
}

// psTime returns the wall clock time in seconds since the epoch.
func psTime(L *lua.LState) int {
	L.Push(lua.LNumber(float64(time.Now().UnixNano()) / 1e9))
	return 1
}

// psClock returns the seconds elapsed since the process started.
func psClock(L *lua.LState) int {
	L.Push(lua.LNumber(time.Since(start).Seconds()))
	return 1
}
