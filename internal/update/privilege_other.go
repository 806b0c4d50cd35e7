//go:build !unix && !windows

package update

type noPrivilege struct{}

// NewPrivilegeChecker returns the checker for this platform.
func NewPrivilegeChecker() PrivilegeChecker {
	return noPrivilege{}
}

func (noPrivilege) HasElevatedRights() bool { return false }

func (noPrivilege) RelaunchElevated() error { return ErrElevationUnsupported }
