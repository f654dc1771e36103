//go:build !linux

package selfimage

// platformLocator defers to os.Executable, which uses the native facility on
// each platform (_NSGetExecutablePath, GetModuleFileName, sysctl).
type platformLocator struct {
	executableLocator
}
