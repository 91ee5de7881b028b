package errors

import (
	"strings"
	"testing"
)

func TestValidateLabelText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple suffix", "A", false},
		{"empty", "", false},
		{"spaces and digits", "10-25 series B", false},
		{"unicode", "Ø 5µm", false},

		{"newline", "A\nB", true},
		{"tab", "A\tB", true},
		{"null byte", "A\x00", true},
		{"too long", strings.Repeat("x", 256), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLabelText(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLabelText(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLayerName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"holes", "holes", false},
		{"border", "border", false},
		{"with dash", "ref-square", false},
		{"with underscore", "cut_2", false},

		{"empty", "", true},
		{"space", "my layer", true},
		{"slash", "a/b", true},
		{"too long", strings.Repeat("l", 32), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLayerName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLayerName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative file", "out.dxf", false},
		{"nested", "build/series-a.svg", false},
		{"absolute", "/tmp/out.dxf", false},

		{"empty", "", true},
		{"directory", "build/", true},
		{"null byte", "out\x00.dxf", true},
		{"newline", "out\n.dxf", true},
		{"too long", strings.Repeat("a", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}
