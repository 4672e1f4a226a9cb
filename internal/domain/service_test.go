package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/blackmichael/spotreport/internal/logging"
)

type storedPost struct {
	PostSummary
	data []byte
}

type memRepo struct {
	mu     sync.Mutex
	kinds  []Kind
	posts  []storedPost
	nextID int64
}

func (r *memRepo) ListKinds(context.Context) ([]Kind, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Kind(nil), r.kinds...), nil
}

func (r *memRepo) CreateKind(_ context.Context, k Kind) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.kinds {
		if existing.Name == k.Name {
			return 0, ErrConflict
		}
	}
	r.nextID++
	k.ID = r.nextID
	r.kinds = append(r.kinds, k)
	return k.ID, nil
}

func (r *memRepo) DeleteKind(_ context.Context, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, k := range r.kinds {
		if k.Name == name {
			r.kinds = append(r.kinds[:i], r.kinds[i+1:]...)
			return k.ID, nil
		}
	}
	return 0, ErrNotFound
}

func (r *memRepo) CreatePost(_ context.Context, p *NewPost) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.posts = append(r.posts, storedPost{
		PostSummary: PostSummary{ID: r.nextID, Kind: p.Kind, Title: p.Title},
		data:        p.Image,
	})
	return r.nextID, nil
}

func (r *memRepo) ListPosts(context.Context) ([]PostSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PostSummary, len(r.posts))
	for i, p := range r.posts {
		out[i] = p.PostSummary
	}
	return out, nil
}

func (r *memRepo) PostImage(_ context.Context, id int64) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.posts {
		if p.ID == id {
			return p.data, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRepo) Upvote(_ context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.posts {
		if r.posts[i].ID == id {
			r.posts[i].Score++
			return r.posts[i].Score, nil
		}
	}
	return 0, ErrNotFound
}

type stubClassifier struct {
	verdict    bool
	verifyErr  error
	annotation Annotation
	annotErr   error
	calls      int
}

func (c *stubClassifier) Verify(context.Context, string, []byte) (bool, error) {
	c.calls++
	return c.verdict, c.verifyErr
}

func (c *stubClassifier) Annotate(context.Context, []string, []byte) (Annotation, error) {
	c.calls++
	return c.annotation, c.annotErr
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func newTestService(t *testing.T, c *stubClassifier, kinds ...string) (*ReportService, *memRepo) {
	t.Helper()
	repo := &memRepo{}
	svc := NewReportService(repo, repo, c, logging.Discard())
	for _, k := range kinds {
		if _, err := svc.CreateKind(context.Background(), Kind{Name: k, Description: k + " description"}); err != nil {
			t.Fatalf("CreateKind(%q): %v", k, err)
		}
	}
	return svc, repo
}

func TestCreateKind_DuplicateConflicts(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, &stubClassifier{}, "pothole")

	_, err := svc.CreateKind(context.Background(), Kind{Name: "pothole", Description: "other"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("CreateKind duplicate error = %v, want ErrConflict", err)
	}

	kinds, _ := svc.ListKinds(context.Background())
	if len(kinds) != 1 || kinds[0].Description != "pothole description" {
		t.Errorf("kinds after duplicate = %+v, want original row untouched", kinds)
	}
}

func TestCreateKind_BlankName(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, &stubClassifier{})
	_, err := svc.CreateKind(context.Background(), Kind{Name: "   "})
	if !IsValidation(err) {
		t.Fatalf("CreateKind blank error = %v, want ValidationError", err)
	}
}

func TestSubmitPost(t *testing.T) {
	t.Parallel()

	img := testJPEG(t)

	tests := []struct {
		name       string
		classifier *stubClassifier
		post       NewPost
		wantMsg    string
		wantErr    error
		wantCalls  int
	}{
		{
			name:       "accepted",
			classifier: &stubClassifier{verdict: true},
			post:       NewPost{Kind: "pothole", Latitude: 60.17, Longitude: 24.94, Image: img},
			wantCalls:  1,
		},
		{
			name:       "unknown kind rejected before classifier",
			classifier: &stubClassifier{verdict: true},
			post:       NewPost{Kind: "graffiti", Image: img},
			wantMsg:    MsgKindNotAllowed,
			wantCalls:  0,
		},
		{
			name:       "classifier says no",
			classifier: &stubClassifier{verdict: false},
			post:       NewPost{Kind: "pothole", Image: img},
			wantMsg:    MsgImageNotKind,
			wantCalls:  1,
		},
		{
			name:       "malformed verdict",
			classifier: &stubClassifier{verifyErr: fmt.Errorf("reply %q: %w", "maybe", ErrClassifierMalformed)},
			post:       NewPost{Kind: "pothole", Image: img},
			wantMsg:    MsgImageNotKind,
			wantCalls:  1,
		},
		{
			name:       "classifier unavailable",
			classifier: &stubClassifier{verifyErr: fmt.Errorf("timeout: %w", ErrClassifierUnavailable)},
			post:       NewPost{Kind: "pothole", Image: img},
			wantErr:    ErrClassifierUnavailable,
			wantCalls:  1,
		},
		{
			name:       "not an image",
			classifier: &stubClassifier{verdict: true},
			post:       NewPost{Kind: "pothole", Image: []byte("hello")},
			wantMsg:    MsgInvalidImage,
		},
		{
			name:       "missing image",
			classifier: &stubClassifier{verdict: true},
			post:       NewPost{Kind: "pothole"},
			wantMsg:    MsgImageRequired,
		},
		{
			name:       "latitude out of range",
			classifier: &stubClassifier{verdict: true},
			post:       NewPost{Kind: "pothole", Latitude: 123, Image: img},
			wantMsg:    "latitude must be between -90 and 90",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, repo := newTestService(t, tt.classifier, "pothole")
			id, err := svc.SubmitPost(context.Background(), &tt.post)

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SubmitPost() error = %v, want %v", err, tt.wantErr)
				}
			case tt.wantMsg != "":
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("SubmitPost() error = %v, want ValidationError", err)
				}
				if ve.Message != tt.wantMsg {
					t.Errorf("message = %q, want %q", ve.Message, tt.wantMsg)
				}
			default:
				if err != nil {
					t.Fatalf("SubmitPost() error = %v", err)
				}
				if id == 0 {
					t.Error("SubmitPost() returned zero id")
				}
			}

			if tt.classifier.calls != tt.wantCalls {
				t.Errorf("classifier calls = %d, want %d", tt.classifier.calls, tt.wantCalls)
			}
			if tt.wantErr != nil || tt.wantMsg != "" {
				if posts, _ := repo.ListPosts(context.Background()); len(posts) != 0 {
					t.Errorf("rejected submission stored %d posts", len(posts))
				}
			}
		})
	}
}

func TestSubmitPost_CallerCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	classifier := &stubClassifier{verifyErr: fmt.Errorf("classifier call abandoned: %w", context.Canceled)}
	svc, repo := newTestService(t, classifier, "pothole")

	_, err := svc.SubmitPost(ctx, &NewPost{Kind: "pothole", Latitude: 60.17, Longitude: 24.94, Image: testJPEG(t)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("SubmitPost() error = %v, want context.Canceled", err)
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		t.Errorf("cancelled submission reported as rejection %q", ve.Message)
	}
	if posts, _ := repo.ListPosts(context.Background()); len(posts) != 0 {
		t.Errorf("cancelled submission stored %d posts", len(posts))
	}
}

func TestSubmitPost_LogsImageInfo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	repo := &memRepo{}
	svc := NewReportService(repo, repo, &stubClassifier{verdict: true}, slog.New(slog.NewJSONHandler(&buf, nil)))
	if _, err := svc.CreateKind(context.Background(), Kind{Name: "pothole"}); err != nil {
		t.Fatalf("CreateKind: %v", err)
	}

	if _, err := svc.SubmitPost(context.Background(), &NewPost{Kind: "pothole", Image: testJPEG(t)}); err != nil {
		t.Fatalf("SubmitPost() error = %v", err)
	}

	logs := buf.String()
	for _, want := range []string{`"msg":"post created"`, `"format":"jpeg"`, `"width":2`, `"height":2`} {
		if !strings.Contains(logs, want) {
			t.Errorf("log output missing %s:\n%s", want, logs)
		}
	}
}

func TestAnnotate(t *testing.T) {
	t.Parallel()

	img := testJPEG(t)

	tests := []struct {
		name       string
		kinds      []string
		classifier *stubClassifier
		want       Annotation
	}{
		{
			name:       "well formed",
			kinds:      []string{"pothole", "graffiti"},
			classifier: &stubClassifier{annotation: Annotation{Text: "kuoppa", Title: "Kuoppa tiessä", Kind: "graffiti"}},
			want:       Annotation{Text: "kuoppa", Title: "Kuoppa tiessä", Kind: "graffiti"},
		},
		{
			name:       "malformed falls back",
			kinds:      []string{"pothole", "graffiti"},
			classifier: &stubClassifier{annotErr: ErrClassifierMalformed},
			want:       Annotation{Kind: "pothole"},
		},
		{
			name:       "empty falls back",
			kinds:      []string{"pothole"},
			classifier: &stubClassifier{annotErr: ErrClassifierEmpty},
			want:       Annotation{Kind: "pothole"},
		},
		{
			name:       "unavailable falls back",
			kinds:      []string{"pothole"},
			classifier: &stubClassifier{annotErr: ErrClassifierUnavailable},
			want:       Annotation{Kind: "pothole"},
		},
		{
			name:       "unregistered kind replaced",
			kinds:      []string{"pothole"},
			classifier: &stubClassifier{annotation: Annotation{Text: "t", Title: "x", Kind: "unicorn"}},
			want:       Annotation{Text: "t", Title: "x", Kind: "pothole"},
		},
		{
			name:       "no kinds registered",
			classifier: &stubClassifier{annotErr: ErrClassifierMalformed},
			want:       Annotation{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newTestService(t, tt.classifier, tt.kinds...)
			got, err := svc.Annotate(context.Background(), img)
			if err != nil {
				t.Fatalf("Annotate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Annotate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAnnotate_NotImageSkipsClassifier(t *testing.T) {
	t.Parallel()

	c := &stubClassifier{}
	svc, _ := newTestService(t, c, "pothole")

	_, err := svc.Annotate(context.Background(), []byte("not an image"))
	if !IsValidation(err) {
		t.Fatalf("Annotate() error = %v, want ValidationError", err)
	}
	if c.calls != 0 {
		t.Errorf("classifier called %d times for a non-image payload", c.calls)
	}
}

func TestUpvote_CountsAndNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, &stubClassifier{verdict: true}, "pothole")
	ctx := context.Background()

	id, err := svc.SubmitPost(ctx, &NewPost{Kind: "pothole", Image: testJPEG(t)})
	if err != nil {
		t.Fatalf("SubmitPost: %v", err)
	}

	const n = 5
	var score int64
	for range n {
		if score, err = svc.Upvote(ctx, id); err != nil {
			t.Fatalf("Upvote: %v", err)
		}
	}
	if score != n {
		t.Errorf("score = %d, want %d", score, n)
	}

	if _, err := svc.Upvote(ctx, id+100); !errors.Is(err, ErrNotFound) {
		t.Errorf("Upvote(missing) error = %v, want ErrNotFound", err)
	}
}
