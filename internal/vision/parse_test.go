package vision

import (
	"errors"
	"testing"

	"github.com/blackmichael/spotreport/internal/domain"
)

func TestStripFence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"```json{\"a\":1}```", `{"a":1}`},
		{"  \n```json\n{\"a\":1}```  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripFence(tt.in); got != tt.want {
			t.Errorf("stripFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseAnnotation_TrimsFields(t *testing.T) {
	t.Parallel()

	got, err := ParseAnnotation(`{"text": " Rikki ", "title": "Lamppu\n", "kind": " lamp"}`)
	if err != nil {
		t.Fatalf("ParseAnnotation() error = %v", err)
	}
	want := domain.Annotation{Text: "Rikki", Title: "Lamppu", Kind: "lamp"}
	if got != want {
		t.Errorf("ParseAnnotation() = %+v, want %+v", got, want)
	}
}

func TestParseAnnotation_WrongTypes(t *testing.T) {
	t.Parallel()

	_, err := ParseAnnotation(`{"text": 3, "title": [], "kind": null}`)
	if !errors.Is(err, domain.ErrClassifierMalformed) {
		t.Errorf("ParseAnnotation() error = %v, want ErrClassifierMalformed", err)
	}
}

func TestKindList(t *testing.T) {
	t.Parallel()

	if got := kindList(nil); got != "[]" {
		t.Errorf("kindList(nil) = %q", got)
	}
	if got := kindList([]string{"a", `b"c`}); got != `["a", "b\"c"]` {
		t.Errorf("kindList() = %q", got)
	}
}
