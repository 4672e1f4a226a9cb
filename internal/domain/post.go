package domain

// PostSummary is the client-facing projection of a post. It never carries
// image bytes.
type PostSummary struct {
	ID        int64   `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
	Title     string  `json:"title"`
	Text      string  `json:"text"`
	Kind      string  `json:"kind"`
	Score     int64   `json:"score"`
}

// NewPost is a submission that has not been persisted yet.
type NewPost struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
	Address   string  `json:"address" validate:"max=500"`
	Title     string  `json:"title" validate:"max=200"`
	Text      string  `json:"text" validate:"max=10000"`
	Kind      string  `json:"kind" validate:"notblank"`

	// Image is the raw uploaded file.
	Image []byte `json:"-"`
}

// Annotation is the classifier's suggestion for an uploaded image.
type Annotation struct {
	Text  string `json:"text"`
	Kind  string `json:"kind"`
	Title string `json:"title"`
}
