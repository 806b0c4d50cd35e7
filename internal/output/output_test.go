package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
)

type report struct {
	Version string `json:"version" yaml:"version"`
	URL     string `json:"url" yaml:"url"`
}

func (r report) RenderText(w io.Writer) error {
	Field(w, "Version", r.Version)
	Field(w, "Download URL", r.URL)
	return nil
}

type named string

func (n named) String() string { return "name=" + string(n) }

func TestWriterFormats(t *testing.T) {
	r := report{Version: "1.0.0.7", URL: "https://e/full.zip"}

	tests := []struct {
		format Format
		value  interface{}
		want   string
	}{
		{FormatJSON, r, "{\n  \"version\": \"1.0.0.7\",\n  \"url\": \"https://e/full.zip\"\n}\n"},
		{FormatYAML, r, "version: 1.0.0.7\nurl: https://e/full.zip\n"},
		{FormatText, r, "Version:         1.0.0.7\nDownload URL:    https://e/full.zip\n"},
		{FormatText, named("x"), "name=x\n"},
		{FormatText, 42, "42\n"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%T", tt.format, tt.value), func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewWriter(&buf, tt.format).Write(tt.value); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("Write() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestFieldSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	Field(&buf, "Version", "")
	if buf.Len() != 0 {
		t.Errorf("Field wrote %q for an empty value", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":     FormatText,
		"text": FormatText,
		"JSON": FormatJSON,
		"yml":  FormatYAML,
		"yaml": FormatYAML,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseFormat("xml"); err == nil || !strings.Contains(err.Error(), "xml") {
		t.Errorf("ParseFormat(xml) error = %v", err)
	}
}
