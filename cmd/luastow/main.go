// luastow launcher - runs the Lua application appended to this executable
package main

import (
	"os"

	"github.com/chazu/luastow/launcher"
)

func main() {
	launcher.ConfigureLogging()

	l := launcher.New(launcher.Options{})
	os.Exit(l.Run(os.Args))
}
