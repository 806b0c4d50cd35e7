package update

import (
	"runtime"
	"strings"
)

// Detect returns the current platform (OS and architecture)
func Detect() Platform {
	return Platform{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
}

// ExecutableName returns the file name of an executable on this platform
// e.g., "Launcher.exe" on windows, "Launcher" elsewhere
func (p Platform) ExecutableName(base string) string {
	if p.OS == "windows" && !strings.HasSuffix(strings.ToLower(base), ".exe") {
		return base + ".exe"
	}
	return base
}

// IsWindows returns true on windows
func (p Platform) IsWindows() bool {
	return p.OS == "windows"
}
