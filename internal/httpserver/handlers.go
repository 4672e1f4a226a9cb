package httpserver

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/blackmichael/spotreport/internal/domain"
	"github.com/blackmichael/spotreport/internal/imaging"
)

// uploadField is the multipart form field that carries the image.
const uploadField = "file"

func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	kinds, err := s.service.ListKinds(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kinds)
}

func (s *Server) handleCreateKind(w http.ResponseWriter, r *http.Request) {
	var kind domain.Kind
	if err := json.NewDecoder(r.Body).Decode(&kind); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	id, err := s.service.CreateKind(r.Context(), kind)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

func (s *Server) handleDeleteKind(w http.ResponseWriter, r *http.Request) {
	id, err := s.service.DeleteKind(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.service.ListPosts(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handlePostImage(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	data, err := s.service.PostImage(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", imaging.ContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleUpvote(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	score, err := s.service.Upvote(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	post, err := postFromHeaders(r.Header)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	post.Image, err = readUpload(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	id, err := s.service.SubmitPost(r.Context(), post)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	image, err := readUpload(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	ann, err := s.service.Annotate(r.Context(), image)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ann)
}

func postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidID)
		return 0, false
	}
	return id, true
}

// header returns X-name, falling back to the unprefixed name.
func header(h http.Header, name string) string {
	if v := h.Get("X-" + name); v != "" {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(h.Get(name))
}

// postFromHeaders reads post metadata from request headers. Latitude and
// longitude are required; the text fields default to empty.
func postFromHeaders(h http.Header) (*domain.NewPost, error) {
	post := &domain.NewPost{
		Address: header(h, "Address"),
		Title:   header(h, "Title"),
		Text:    header(h, "Text"),
		Kind:    header(h, "Kind"),
	}

	var err error
	if post.Latitude, err = parseCoordinate(h, "Latitude"); err != nil {
		return nil, err
	}
	if post.Longitude, err = parseCoordinate(h, "Longitude"); err != nil {
		return nil, err
	}
	return post, nil
}

func parseCoordinate(h http.Header, name string) (float64, error) {
	v, err := strconv.ParseFloat(header(h, name), 64)
	if err != nil {
		return 0, domain.NewValidationError(msgInvalidCoord, strings.ToLower(name))
	}
	return v, nil
}

// readUpload returns the uploaded image from the multipart field "file" or,
// for any other content type, the raw request body.
func readUpload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return data, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, domain.NewValidationError("Malformed multipart body.")
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, domain.NewValidationError(domain.MsgImageRequired)
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, err
			}
			return nil, domain.NewValidationError("Malformed multipart body.")
		}

		if part.FormName() != uploadField {
			part.Close()
			continue
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		return data, nil
	}
}
