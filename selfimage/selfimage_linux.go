//go:build linux

package selfimage

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const procSelfExe = "/proc/self/exe"

// platformLocator reads the /proc/self/exe link, falling back to
// os.Executable when /proc is not mounted.
type platformLocator struct{}

func (platformLocator) Locate() (string, error) {
	path, err := readlink(procSelfExe)
	if err != nil {
		p, ferr := executableLocator{}.Locate()
		if ferr != nil {
			return "", fmt.Errorf("%w: readlink %s: %v", ErrSelfLocate, procSelfExe, err)
		}
		return p, nil
	}
	return absolute(path)
}

func readlink(name string) (string, error) {
	for size := 256; ; size *= 2 {
		buf := make([]byte, size)
		n, err := unix.Readlink(name, buf)
		if err != nil {
			return "", err
		}
		if n < size {
			return string(buf[:n]), nil
		}
	}
}
