package update

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var versionRegex = regexp.MustCompile(`^v?\d+(?:\.\d+)*$`)

// Version is a dotted-numeric version such as "1.0.0.6".
type Version struct {
	Parts []int
}

// ParseVersion parses a dotted-numeric version string.
// Supports formats like "1.2", "v1.2.10", "1.0.0.6"
func ParseVersion(s string) (*Version, error) {
	s = strings.TrimSpace(s)
	if !versionRegex.MatchString(s) {
		return nil, fmt.Errorf("invalid version format: %s", s)
	}

	fields := strings.Split(NormalizeVersion(s), ".")
	parts := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid version component %q: %w", f, err)
		}
		parts[i] = n
	}

	return &Version{Parts: parts}, nil
}

// String returns the string representation
func (v *Version) String() string {
	fields := make([]string, len(v.Parts))
	for i, p := range v.Parts {
		fields[i] = strconv.Itoa(p)
	}
	return strings.Join(fields, ".")
}

// Compare compares two versions component by component. Missing trailing
// components count as zero, so "1.2" equals "1.2.0".
// Returns:
//   - 1 if v > other
//   - 0 if v == other
//   - -1 if v < other
func (v *Version) Compare(other *Version) int {
	n := len(v.Parts)
	if len(other.Parts) > n {
		n = len(other.Parts)
	}

	for i := 0; i < n; i++ {
		a, b := v.part(i), other.part(i)
		if a != b {
			if a > b {
				return 1
			}
			return -1
		}
	}

	return 0
}

func (v *Version) part(i int) int {
	if i < len(v.Parts) {
		return v.Parts[i]
	}
	return 0
}

// IsGreaterThan returns true if v > other
func (v *Version) IsGreaterThan(other *Version) bool {
	return v.Compare(other) > 0
}

// IsEqual returns true if v == other
func (v *Version) IsEqual(other *Version) bool {
	return v.Compare(other) == 0
}

// CompareVersions compares two version strings
// Returns:
//   - 1 if v1 > v2
//   - 0 if v1 == v2
//   - -1 if v1 < v2
//   - error if either version is invalid
func CompareVersions(v1, v2 string) (int, error) {
	ver1, err := ParseVersion(v1)
	if err != nil {
		return 0, fmt.Errorf("invalid version v1: %w", err)
	}

	ver2, err := ParseVersion(v2)
	if err != nil {
		return 0, fmt.Errorf("invalid version v2: %w", err)
	}

	return ver1.Compare(ver2), nil
}

// NormalizeVersion removes the 'v' prefix if present
func NormalizeVersion(s string) string {
	return strings.TrimPrefix(s, "v")
}
