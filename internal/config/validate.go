package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the config for required fields and valid values.
func Validate(c *Config) error {
	var errors []string

	if err := validateDescriptorURL(c.DescriptorURL); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.DescriptorFormat.Validate(); err != nil {
		errors = append(errors, ValidationError{Field: "descriptor_format", Message: err.Error()}.Error())
	}

	if err := validateRelative("state_dir", c.StateDir, true); err != nil {
		errors = append(errors, err.Error())
	}

	for i, dir := range c.CleanDirs {
		if err := validateRelative(fmt.Sprintf("clean_dirs[%d]", i), dir, true); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if strings.TrimSpace(c.Launcher) == "" {
		errors = append(errors, ValidationError{Field: "launcher", Message: "launcher name is required"}.Error())
	} else if strings.ContainsAny(c.Launcher, `/\`) {
		errors = append(errors, ValidationError{Field: "launcher", Message: "must be a file name in the installation root"}.Error())
	}

	if c.ChunkSize <= 0 {
		errors = append(errors, ValidationError{Field: "chunk_size", Message: "must be positive"}.Error())
	}

	if d, err := time.ParseDuration(c.Timeout); err != nil {
		errors = append(errors, ValidationError{Field: "timeout", Message: fmt.Sprintf("invalid duration %q", c.Timeout)}.Error())
	} else if d <= 0 {
		errors = append(errors, ValidationError{Field: "timeout", Message: "must be positive"}.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateDescriptorURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ValidationError{Field: "descriptor_url", Message: "descriptor url is required"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ValidationError{Field: "descriptor_url", Message: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ValidationError{Field: "descriptor_url", Message: fmt.Sprintf("unsupported scheme '%s' (must be http or https)", u.Scheme)}
	}
	return nil
}

// validateRelative rejects paths that would resolve outside the
// installation root or onto the root itself.
func validateRelative(field, p string, required bool) error {
	if strings.TrimSpace(p) == "" {
		if required {
			return ValidationError{Field: field, Message: "path is required"}
		}
		return nil
	}
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return ValidationError{Field: field, Message: fmt.Sprintf("'%s' must be relative to the installation root", p)}
	}
	clean := filepath.Clean(filepath.FromSlash(p))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return ValidationError{Field: field, Message: fmt.Sprintf("'%s' must name a directory inside the installation root", p)}
	}
	return nil
}
