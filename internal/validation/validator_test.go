package validation

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Name string  `json:"name" validate:"notblank,max=8"`
	Lat  float64 `json:"latitude" validate:"latitude"`
	Mode string  `koanf:"mode" validate:"oneof=a b"`
}

func TestStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{"valid", sample{Name: "pothole", Lat: 60.1, Mode: "a"}, ""},
		{"blank name", sample{Name: "   ", Mode: "a"}, "name must not be blank"},
		{"long name", sample{Name: "streetlight", Mode: "b"}, "name must be at most 8 characters"},
		{"bad latitude", sample{Name: "x", Lat: 91, Mode: "a"}, "latitude must be between -90 and 90"},
		{"bad mode", sample{Name: "x", Mode: "c"}, "mode must be one of [a b]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Struct(&tt.in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Struct() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Struct() = nil, want %q", tt.wantErr)
			}
			var verrs Errors
			if !errors.As(err, &verrs) {
				t.Fatalf("Struct() error type = %T, want Errors", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Struct() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
