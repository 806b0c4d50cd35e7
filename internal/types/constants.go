// Package types provides type-safe constants for the updater configuration
// and persisted state.
//
// This package centralizes the enumerated values that appear in config files
// and in the Version_Check state directory, replacing magic strings with typed
// constants that provide validation methods.
package types

import (
	"fmt"
	"strings"
)

// UpdateMode selects what an update run installs.
type UpdateMode string

const (
	// ModeFull replaces the whole installation and bumps the recorded version.
	ModeFull UpdateMode = "Full"
	// ModeResources refreshes the resources directory without a version change.
	ModeResources UpdateMode = "Resources"
)

// AllUpdateModes returns all valid update modes.
func AllUpdateModes() []UpdateMode {
	return []UpdateMode{ModeFull, ModeResources}
}

// Validate checks if the UpdateMode is a valid value.
func (m UpdateMode) Validate() error {
	switch m {
	case ModeFull, ModeResources:
		return nil
	case "":
		return fmt.Errorf("update mode is required")
	default:
		return fmt.Errorf("invalid update mode '%s' (must be Full or Resources)", string(m))
	}
}

// String returns the string representation of the UpdateMode.
func (m UpdateMode) String() string {
	return string(m)
}

// IsFull returns true if the mode is a full update.
func (m UpdateMode) IsFull() bool {
	return m == ModeFull
}

// IsResources returns true if the mode only refreshes resources.
func (m UpdateMode) IsResources() bool {
	return m == ModeResources
}

// Label returns the human-readable name shown when an update starts.
func (m UpdateMode) Label() string {
	switch m {
	case ModeFull:
		return "full update"
	case ModeResources:
		return "resources refresh"
	default:
		return string(m)
	}
}

// ParseUpdateMode parses user input into an UpdateMode.
// Matching is case-insensitive; surrounding whitespace is ignored.
func ParseUpdateMode(s string) (UpdateMode, error) {
	trimmed := strings.TrimSpace(s)
	for _, m := range AllUpdateModes() {
		if strings.EqualFold(trimmed, string(m)) {
			return m, nil
		}
	}
	m := UpdateMode(trimmed)
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

// PayloadFormat is the shape of the remote descriptor payload.
type PayloadFormat string

const (
	// PayloadAuto sniffs the payload: a leading '{' means JSON, anything else text.
	PayloadAuto PayloadFormat = "auto"
	// PayloadJSON is an object with version_downloader, url_downloader and url_resource.
	PayloadJSON PayloadFormat = "json"
	// PayloadText is a plain-text body containing "<version>|<url>".
	PayloadText PayloadFormat = "text"
)

// AllPayloadFormats returns all valid payload formats.
func AllPayloadFormats() []PayloadFormat {
	return []PayloadFormat{PayloadAuto, PayloadJSON, PayloadText}
}

// Validate checks if the PayloadFormat is a valid value.
// Empty is valid and means auto.
func (f PayloadFormat) Validate() error {
	if f == "" {
		return nil
	}
	names := make([]string, 0, 3)
	for _, valid := range AllPayloadFormats() {
		if f == valid {
			return nil
		}
		names = append(names, string(valid))
	}
	return fmt.Errorf("invalid descriptor format '%s' (must be one of: %s)", string(f), strings.Join(names, ", "))
}

// String returns the string representation of the PayloadFormat.
func (f PayloadFormat) String() string {
	return string(f)
}

// Default returns auto if empty, otherwise the format itself.
func (f PayloadFormat) Default() PayloadFormat {
	if f == "" {
		return PayloadAuto
	}
	return f
}

// ParsePayloadFormat parses a string into a PayloadFormat.
func ParsePayloadFormat(s string) (PayloadFormat, error) {
	pf := PayloadFormat(strings.ToLower(strings.TrimSpace(s)))
	if err := pf.Validate(); err != nil {
		return "", err
	}
	return pf.Default(), nil
}
