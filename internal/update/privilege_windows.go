//go:build windows

package update

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/windows"
)

type windowsPrivilege struct{}

// NewPrivilegeChecker returns the checker for this platform.
func NewPrivilegeChecker() PrivilegeChecker {
	return windowsPrivilege{}
}

// HasElevatedRights reports whether the process token is elevated.
func (windowsPrivilege) HasElevatedRights() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}

// RelaunchElevated starts a copy of this process through the UAC "runas"
// verb with the same arguments and working directory. On success the caller
// should exit and let the elevated copy continue.
func (windowsPrivilege) RelaunchElevated() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	verb, err := windows.UTF16PtrFromString("runas")
	if err != nil {
		return err
	}
	file, err := windows.UTF16PtrFromString(exe)
	if err != nil {
		return err
	}
	args, err := windows.UTF16PtrFromString(quoteArgs(os.Args[1:]))
	if err != nil {
		return err
	}
	dir, err := windows.UTF16PtrFromString(cwd)
	if err != nil {
		return err
	}

	if err := windows.ShellExecute(0, verb, file, args, dir, windows.SW_NORMAL); err != nil {
		return fmt.Errorf("elevation request failed: %w", err)
	}
	return nil
}

func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = windows.EscapeArg(a)
	}
	return strings.Join(quoted, " ")
}
