package vision

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/goccy/go-json"

	"github.com/blackmichael/spotreport/internal/domain"
)

// ParseVerdict reads a yes/no reply. Case, surrounding whitespace and
// trailing punctuation are ignored.
func ParseVerdict(reply string) (bool, error) {
	s := strings.ToLower(strings.TrimFunc(reply, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}))

	switch s {
	case "":
		return false, fmt.Errorf("%w: blank verdict", domain.ErrClassifierEmpty)
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, fmt.Errorf("%w: verdict %q", domain.ErrClassifierMalformed, truncate([]byte(s), 80))
	}
}

// ParseAnnotation decodes a JSON annotation, optionally wrapped in a
// markdown code fence.
func ParseAnnotation(reply string) (domain.Annotation, error) {
	s := stripFence(reply)
	if s == "" {
		return domain.Annotation{}, fmt.Errorf("%w: blank annotation", domain.ErrClassifierEmpty)
	}

	var ann domain.Annotation
	if err := json.Unmarshal([]byte(s), &ann); err != nil {
		return domain.Annotation{}, fmt.Errorf("%w: %w", domain.ErrClassifierMalformed, err)
	}

	ann.Text = strings.TrimSpace(ann.Text)
	ann.Title = strings.TrimSpace(ann.Title)
	ann.Kind = strings.TrimSpace(ann.Kind)
	if ann == (domain.Annotation{}) {
		return domain.Annotation{}, fmt.Errorf("%w: annotation has no fields", domain.ErrClassifierEmpty)
	}
	return ann, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string, e.g. "json".
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
