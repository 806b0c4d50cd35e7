// Package templates provides embedded config file templates for bcupdater init.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed *.yaml *.toml
var templatesFS embed.FS

// Template represents a config template with metadata.
type Template struct {
	Name        string
	Format      string // "yaml" or "toml"
	Description string
	Content     []byte
}

// FileName is the config file name the template is written as.
func (t *Template) FileName() string {
	return "bcupdater." + t.Format
}

// Available templates with their descriptions.
var templateDescriptions = map[string]string{
	"standard": "Default endpoint, cleans Resources before extracting",
	"elevated": "Standard plus administrator rights (Windows installs under Program Files)",
}

// List returns all available template names sorted alphabetically.
func List() []string {
	entries, err := templatesFS.ReadDir(".")
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names
}

// Formats returns the formats a template is available in, sorted.
func Formats(name string) []string {
	var formats []string
	for _, ext := range []string{"toml", "yaml"} {
		if _, err := fs.Stat(templatesFS, name+"."+ext); err == nil {
			formats = append(formats, ext)
		}
	}
	return formats
}

// Get returns a template by name and format ("yml" is accepted for "yaml").
func Get(name, format string) (*Template, error) {
	format = strings.ToLower(format)
	if format == "" || format == "yml" {
		format = "yaml"
	}

	filename := name + "." + format
	content, err := templatesFS.ReadFile(filename)
	if err != nil {
		if pathErr, ok := err.(*fs.PathError); ok {
			return nil, fmt.Errorf("template '%s' not found in %s format: %w", name, format, pathErr)
		}
		return nil, fmt.Errorf("failed to read template '%s': %w", name, err)
	}

	return &Template{
		Name:        name,
		Format:      format,
		Description: templateDescriptions[name],
		Content:     content,
	}, nil
}

// GetDescription returns the description for a template.
func GetDescription(name string) string {
	if desc, ok := templateDescriptions[name]; ok {
		return desc
	}
	return "Custom template"
}
