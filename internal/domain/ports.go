package domain

import "context"

// PostRepository defines persistence operations for posts. Each call runs in
// its own transaction.
type PostRepository interface {
	// CreatePost inserts a post with a zero score and returns its id.
	CreatePost(ctx context.Context, post *NewPost) (int64, error)

	// ListPosts returns every post without image data.
	ListPosts(ctx context.Context) ([]PostSummary, error)

	// PostImage returns the stored image. ErrNotFound if the post is absent.
	PostImage(ctx context.Context, id int64) ([]byte, error)

	// Upvote increments the score by one and returns the new score.
	// ErrNotFound if the post is absent.
	Upvote(ctx context.Context, id int64) (int64, error)
}

// KindRepository defines persistence operations for kinds.
type KindRepository interface {
	ListKinds(ctx context.Context) ([]Kind, error)

	// CreateKind returns ErrConflict when the name is taken.
	CreateKind(ctx context.Context, kind Kind) (int64, error)

	// DeleteKind returns the deleted row's id, ErrNotFound if absent, or
	// ErrKindInUse while posts still reference it.
	DeleteKind(ctx context.Context, name string) (int64, error)
}

// Classifier is the external vision model.
type Classifier interface {
	// Verify asks whether image depicts kind.
	Verify(ctx context.Context, kind string, image []byte) (bool, error)

	// Annotate asks for a caption, a title and one of kinds for image.
	Annotate(ctx context.Context, kinds []string, image []byte) (Annotation, error)
}
