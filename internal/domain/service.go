package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/blackmichael/spotreport/internal/imaging"
	"github.com/blackmichael/spotreport/internal/metrics"
	"github.com/blackmichael/spotreport/internal/validation"
)

// Messages returned to clients for refused submissions.
const (
	MsgKindNotAllowed   = "Kind not allowed!"
	MsgImageNotKind     = "Image does not represent kind."
	MsgInvalidImage     = "File is not a valid image."
	MsgImageRequired    = "An image is required."
	fallbackUnavailable = "unavailable"
	fallbackMalformed   = "malformed"
	fallbackEmpty       = "empty"
	fallbackOther       = "other"
)

// ReportService owns the rules for kinds and posts: which kinds a post may
// use, when the classifier must agree, and what to answer when it cannot.
type ReportService struct {
	posts      PostRepository
	kinds      KindRepository
	classifier Classifier
	logger     *slog.Logger
}

// NewReportService wires the service to its repositories and classifier.
func NewReportService(posts PostRepository, kinds KindRepository, classifier Classifier, logger *slog.Logger) *ReportService {
	return &ReportService{
		posts:      posts,
		kinds:      kinds,
		classifier: classifier,
		logger:     logger,
	}
}

// ListKinds returns every registered kind.
func (s *ReportService) ListKinds(ctx context.Context) ([]Kind, error) {
	kinds, err := s.kinds.ListKinds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list kinds: %w", err)
	}
	return kinds, nil
}

// CreateKind registers a new kind and returns its id. ErrConflict if the
// name is taken.
func (s *ReportService) CreateKind(ctx context.Context, kind Kind) (int64, error) {
	kind.Name = strings.TrimSpace(kind.Name)
	if err := validation.Struct(&kind); err != nil {
		return 0, &ValidationError{Message: err.Error()}
	}

	id, err := s.kinds.CreateKind(ctx, kind)
	if err != nil {
		return 0, fmt.Errorf("create kind %q: %w", kind.Name, err)
	}
	s.logger.InfoContext(ctx, "kind created", "id", id, "name", kind.Name)
	return id, nil
}

// DeleteKind removes a kind by name and returns its id.
func (s *ReportService) DeleteKind(ctx context.Context, name string) (int64, error) {
	id, err := s.kinds.DeleteKind(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("delete kind %q: %w", name, err)
	}
	s.logger.InfoContext(ctx, "kind deleted", "id", id, "name", name)
	return id, nil
}

// SubmitPost stores a new post once its kind is registered and the
// classifier confirms the image shows that kind.
func (s *ReportService) SubmitPost(ctx context.Context, post *NewPost) (int64, error) {
	if len(post.Image) == 0 {
		return 0, s.reject(ctx, "invalid_input", NewValidationError(MsgImageRequired))
	}
	if err := validation.Struct(post); err != nil {
		return 0, s.reject(ctx, "invalid_input", &ValidationError{Message: err.Error()})
	}
	img, err := imaging.Check(post.Image)
	if err != nil {
		return 0, s.reject(ctx, "invalid_image", NewValidationError(MsgInvalidImage))
	}

	kinds, err := s.kinds.ListKinds(ctx)
	if err != nil {
		return 0, fmt.Errorf("list kinds: %w", err)
	}
	if !slices.Contains(kindNames(kinds), post.Kind) {
		return 0, s.reject(ctx, "unknown_kind", NewValidationError(MsgKindNotAllowed))
	}

	ok, err := s.classifier.Verify(ctx, post.Kind, post.Image)
	switch {
	case errors.Is(err, ErrClassifierUnavailable):
		metrics.PostsRejected.WithLabelValues("classifier_unavailable").Inc()
		return 0, fmt.Errorf("verify image: %w", err)
	case err != nil && ctx.Err() != nil:
		return 0, fmt.Errorf("verify image: %w", err)
	case err != nil:
		s.logger.WarnContext(ctx, "classifier verdict unusable", "kind", post.Kind, "error", err)
		return 0, s.reject(ctx, "verification_failed", NewValidationError(MsgImageNotKind))
	case !ok:
		return 0, s.reject(ctx, "verification_failed", NewValidationError(MsgImageNotKind))
	}

	id, err := s.posts.CreatePost(ctx, post)
	if errors.Is(err, ErrUnknownKind) {
		// The kind was deleted between the check above and the insert.
		return 0, s.reject(ctx, "unknown_kind", NewValidationError(MsgKindNotAllowed))
	}
	if err != nil {
		return 0, fmt.Errorf("create post: %w", err)
	}

	metrics.PostsCreated.Inc()
	s.logger.InfoContext(ctx, "post created",
		"id", id,
		"kind", post.Kind,
		"format", img.Format,
		"width", img.Width,
		"height", img.Height,
		"bytes", len(post.Image),
	)
	return id, nil
}

func (s *ReportService) reject(ctx context.Context, reason string, err *ValidationError) error {
	metrics.PostsRejected.WithLabelValues(reason).Inc()
	s.logger.InfoContext(ctx, "post rejected", "reason", reason, "message", err.Message)
	return err
}

// ListPosts returns all post summaries.
func (s *ReportService) ListPosts(ctx context.Context) ([]PostSummary, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// PostImage returns the image bytes stored with a post.
func (s *ReportService) PostImage(ctx context.Context, id int64) ([]byte, error) {
	data, err := s.posts.PostImage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("post %d image: %w", id, err)
	}
	return data, nil
}

// Upvote adds one to a post's score and returns the new score.
func (s *ReportService) Upvote(ctx context.Context, id int64) (int64, error) {
	score, err := s.posts.Upvote(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("upvote post %d: %w", id, err)
	}
	return score, nil
}

// Annotate asks the classifier to describe image. Classifier failures never
// reach the caller: the answer falls back to empty text and title with the
// first registered kind. Only an undecodable image or a repository failure
// returns an error.
func (s *ReportService) Annotate(ctx context.Context, image []byte) (Annotation, error) {
	img, err := imaging.Check(image)
	if err != nil {
		return Annotation{}, NewValidationError(MsgInvalidImage)
	}

	kinds, err := s.kinds.ListKinds(ctx)
	if err != nil {
		return Annotation{}, fmt.Errorf("list kinds: %w", err)
	}
	names := kindNames(kinds)

	fallback := Annotation{}
	if len(names) > 0 {
		fallback.Kind = names[0]
	}

	ann, err := s.classifier.Annotate(ctx, names, image)
	if err != nil {
		reason := fallbackReason(err)
		metrics.AnnotationFallbacks.WithLabelValues(reason).Inc()
		s.logger.WarnContext(ctx, "annotation fell back to default",
			"reason", reason,
			"format", img.Format,
			"error", err,
		)
		return fallback, nil
	}

	if !slices.Contains(names, ann.Kind) {
		s.logger.DebugContext(ctx, "classifier suggested unregistered kind", "kind", ann.Kind)
		ann.Kind = fallback.Kind
	}
	return ann, nil
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrClassifierUnavailable):
		return fallbackUnavailable
	case errors.Is(err, ErrClassifierMalformed):
		return fallbackMalformed
	case errors.Is(err, ErrClassifierEmpty):
		return fallbackEmpty
	default:
		return fallbackOther
	}
}
