package types

import (
	"strings"
	"testing"
)

func TestUpdateModeValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       UpdateMode
		wantErr bool
	}{
		{"full valid", ModeFull, false},
		{"resources valid", ModeResources, false},
		{"empty invalid", "", true},
		{"lowercase invalid", "full", true},
		{"bogus invalid", "Bogus", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("UpdateMode.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateModeHelpers(t *testing.T) {
	if !ModeFull.IsFull() {
		t.Error("Full.IsFull() should be true")
	}
	if ModeFull.IsResources() {
		t.Error("Full.IsResources() should be false")
	}
	if !ModeResources.IsResources() {
		t.Error("Resources.IsResources() should be true")
	}
	if got := ModeFull.Label(); got != "full update" {
		t.Errorf("Full.Label() = %q, want %q", got, "full update")
	}
	if got := ModeResources.Label(); got != "resources refresh" {
		t.Errorf("Resources.Label() = %q, want %q", got, "resources refresh")
	}
}

func TestParseUpdateMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    UpdateMode
		wantErr bool
	}{
		{"full", "Full", ModeFull, false},
		{"full lowercase", "full", ModeFull, false},
		{"resources with whitespace", "  Resources\n", ModeResources, false},
		{"bogus", "Bogus", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUpdateMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseUpdateMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseUpdateMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePayloadFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    PayloadFormat
		wantErr bool
	}{
		{"", PayloadAuto, false},
		{"auto", PayloadAuto, false},
		{"JSON", PayloadJSON, false},
		{"text", PayloadText, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePayloadFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePayloadFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePayloadFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPayloadFormatValidateListsChoices(t *testing.T) {
	for _, f := range append(AllPayloadFormats(), "") {
		if err := f.Validate(); err != nil {
			t.Errorf("Validate(%q) = %v", f, err)
		}
	}

	err := PayloadFormat("xml").Validate()
	if err == nil {
		t.Fatal("Validate(xml) should fail")
	}
	if want := "must be one of: auto, json, text"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want it to contain %q", err, want)
	}
}
