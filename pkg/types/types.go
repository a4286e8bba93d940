// Package types defines core domain types used throughout the application.
package types

// MediaKind identifies the kind of media a request asks for.
type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
)

// MIMEPrefix returns the MIME type prefix used to match candidate formats.
func (k MediaKind) MIMEPrefix() string {
	if k == KindAudio {
		return "audio/"
	}
	return "video/"
}

// TargetContainer returns the container extension served for this kind.
func (k MediaKind) TargetContainer() string {
	if k == KindAudio {
		return "mp3"
	}
	return "mp4"
}

// MediaRequest describes one inbound retrieval request. Immutable once built.
type MediaRequest struct {
	SourceURL string
	Kind      MediaKind
	FormatID  string // optional explicit itag/format id
}

// VideoMetadata is the resolved description of a video, read-only downstream
// of the resolver that produced it.
type VideoMetadata struct {
	Title           string        `json:"title"`
	Author          string        `json:"author"`
	DurationSeconds int64         `json:"length_seconds"`
	ViewCount       int64         `json:"views"`
	ThumbnailURL    string        `json:"thumbnail_url"`
	Description     string        `json:"description,omitempty"`
	Streams         []StreamBrief `json:"streams,omitempty"`
}

// StreamBrief is the abbreviated per-stream listing exposed on /api/info.
type StreamBrief struct {
	Itag       string `json:"itag"`
	Resolution string `json:"resolution,omitempty"`
	MimeType   string `json:"mime_type"`
	Bitrate    int64  `json:"bitrate,omitempty"`
}

// CandidateFormat is one downloadable variant offered by an upstream or
// mirror. The set is transient and scoped to a single request.
type CandidateFormat struct {
	ID          string
	MimeType    string
	Bitrate     int64
	Resolution  string
	Progressive bool
	URL         string
}

// ExtractedStream is a successful extraction: the artifact on disk and the
// display title resolved alongside it.
type ExtractedStream struct {
	FilePath string
	Title    string
}

// Outcome is a successful retrieval. The file it names is deleted once the
// response that serves it has been written.
type Outcome struct {
	FilePath    string
	DisplayName string
}
