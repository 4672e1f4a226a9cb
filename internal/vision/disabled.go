package vision

import (
	"context"
	"fmt"

	"github.com/blackmichael/spotreport/internal/domain"
)

// Disabled is used when no API key is configured. Every call reports the
// classifier as unavailable.
type Disabled struct{}

var _ domain.Classifier = Disabled{}

func (Disabled) Verify(context.Context, string, []byte) (bool, error) {
	return false, fmt.Errorf("%w: no API key configured", domain.ErrClassifierUnavailable)
}

func (Disabled) Annotate(context.Context, []string, []byte) (domain.Annotation, error) {
	return domain.Annotation{}, fmt.Errorf("%w: no API key configured", domain.ErrClassifierUnavailable)
}
