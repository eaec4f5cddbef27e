package errors

import (
	"strings"
	"testing"
)

func TestValidateLanes(t *testing.T) {
	tests := []struct {
		name    string
		lanes   int
		wantErr bool
	}{
		{"one lane", 1, false},
		{"three lanes", 3, false},
		{"max lanes", MaxLanes, false},
		{"zero", 0, true},
		{"negative", -2, true},
		{"too many", MaxLanes + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLanes(tt.lanes)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLanes(%d) error = %v, wantErr %v", tt.lanes, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidLaneCount) {
				t.Errorf("ValidateLanes(%d) code = %v, want %v", tt.lanes, GetCode(err), ErrCodeInvalidLaneCount)
			}
		})
	}
}

func TestValidateSpan(t *testing.T) {
	tests := []struct {
		name    string
		cross   int
		main    int
		lanes   int
		wantErr bool
	}{
		{"unit", 1, 1, 3, false},
		{"full width", 3, 1, 3, false},
		{"tall", 1, 40, 3, false},
		{"zero cross", 0, 1, 3, true},
		{"too wide", 4, 1, 3, true},
		{"zero main", 1, 0, 3, true},
		{"max main", 1, MaxSpan, 3, false},
		{"main past max", 1, MaxSpan + 1, 3, true},
		{"main at int32 max", 1, 1<<31 - 1, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSpan(tt.cross, tt.main, tt.lanes)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSpan(%d, %d, %d) error = %v, wantErr %v", tt.cross, tt.main, tt.lanes, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidSpanSize) {
				t.Errorf("ValidateSpan() code = %v, want %v", GetCode(err), ErrCodeInvalidSpanSize)
			}
		})
	}
}

func TestValidateViewport(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		wantErr bool
	}{
		{"typical", 1080, 1920, false},
		{"unmeasured", 0, 0, false},
		{"negative width", -1, 10, true},
		{"huge", 1 << 21, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateViewport(tt.w, tt.h)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateViewport(%d, %d) error = %v, wantErr %v", tt.w, tt.h, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePadding(t *testing.T) {
	if err := ValidatePadding(0, 4, 8); err != nil {
		t.Errorf("ValidatePadding() error = %v, want nil", err)
	}
	if err := ValidatePadding(0, -1); !Is(err, ErrCodeInvalidViewport) {
		t.Errorf("ValidatePadding(-1) code = %v, want %v", GetCode(err), ErrCodeInvalidViewport)
	}
}

func TestValidateAnchorID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "2f1c8a4e-8f6b-4f0e-9b7a-1d2c3e4f5a6b", false},
		{"hash prefix", "sha256:ab12", false},
		{"dotted", "demo.v1", false},

		{"empty", "", true},
		{"traversal", "a..b", true},
		{"slash", "a/b", true},
		{"leading dot", ".hidden", true},
		{"too long", strings.Repeat("a", 200), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnchorID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAnchorID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
