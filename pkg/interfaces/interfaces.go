// Package interfaces defines the core abstractions of the retrieval service.
// The pipeline drives everything through these; nothing calls back up.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"ytgrab-go/pkg/types"
)

// MetadataResolver resolves a canonical video ID into metadata.
// Implementations live in pkg/metadata; the one in use is selected by
// deployment configuration.
type MetadataResolver interface {
	Resolve(ctx context.Context, videoID string) (*types.VideoMetadata, error)
}

// ExtractOptions configures a single logical extraction. The adapter walks
// ClientProfiles in order, so profile order is the fallback order.
type ExtractOptions struct {
	// FormatSelector is an upstream-specific format preference expression,
	// e.g. "bestaudio[ext=m4a]/bestaudio/best".
	FormatSelector string

	// ClientProfiles are extraction-client personas tried in order until one
	// yields a usable stream.
	ClientProfiles []string

	SleepBetweenAttempts time.Duration
	MaxRetries           int
	CookiesFile          string
	UserAgent            string
	Referer              string

	// OutputPath is the unique per-request artifact path. The extractor may
	// end up writing a sibling with a different extension; the pipeline's
	// verification step recovers that.
	OutputPath string
}

// Extractor invokes the generic stream-extraction capability.
type Extractor interface {
	// Metadata runs the extractor in metadata-only mode, no download.
	Metadata(ctx context.Context, url string) (*types.VideoMetadata, error)

	// Extract downloads the media described by url into opts.OutputPath.
	Extract(ctx context.Context, url string, opts ExtractOptions) (*types.ExtractedStream, error)
}

// Transcoder repairs container mismatches after extraction.
type Transcoder interface {
	// EnsureTargetFormat returns a path to the input re-encoded into
	// targetContainer. When the input already matches it is returned as-is;
	// otherwise the original input is deleted best-effort after a successful
	// transcode.
	EnsureTargetFormat(ctx context.Context, inputPath, targetContainer string) (string, error)
}

// HTTPDoer abstracts outbound HTTP for testability.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Retriever is the pipeline surface the HTTP handlers depend on.
type Retriever interface {
	// Info resolves metadata for a raw source URL.
	Info(ctx context.Context, rawURL string) (*types.VideoMetadata, error)

	// Retrieve runs the full resolve/extract/transcode/verify pipeline.
	Retrieve(ctx context.Context, req types.MediaRequest) (*types.Outcome, error)

	// RetrieveFromMirror downloads via the mirror path instead of the
	// extractor.
	RetrieveFromMirror(ctx context.Context, req types.MediaRequest) (*types.Outcome, error)
}
