//go:build unix

package update

import "golang.org/x/sys/unix"

type unixPrivilege struct{}

// NewPrivilegeChecker returns the checker for this platform.
func NewPrivilegeChecker() PrivilegeChecker {
	return unixPrivilege{}
}

// HasElevatedRights reports whether the effective user is root.
func (unixPrivilege) HasElevatedRights() bool {
	return unix.Geteuid() == 0
}

// RelaunchElevated is unsupported; use sudo or the service manager instead.
func (unixPrivilege) RelaunchElevated() error {
	return ErrElevationUnsupported
}
