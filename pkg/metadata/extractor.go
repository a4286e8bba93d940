package metadata

import (
	"context"

	"ytgrab-go/pkg/interfaces"
	"ytgrab-go/pkg/logging"
	"ytgrab-go/pkg/types"
)

// watchURL rebuilds the watch-page URL the extractor expects from a
// canonical video ID.
func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ExtractorResolver resolves metadata by running the stream extractor in
// metadata-only mode. Fields absent from the extractor output stay at their
// zero values.
type ExtractorResolver struct {
	extractor interfaces.Extractor
	log       *logging.Logger
}

// NewExtractorResolver creates a resolver over the extractor capability.
func NewExtractorResolver(extractor interfaces.Extractor, log *logging.Logger) *ExtractorResolver {
	return &ExtractorResolver{
		extractor: extractor,
		log:       log.WithComponent("metadata-extractor"),
	}
}

// Resolve runs a metadata-only extraction, no download.
func (r *ExtractorResolver) Resolve(ctx context.Context, videoID string) (*types.VideoMetadata, error) {
	return r.extractor.Metadata(ctx, watchURL(videoID))
}

// ChainedResolver tries the primary strategy and falls back to the secondary
// on any failure. The primary's failure is logged, not surfaced; when both
// fail the secondary's failure is the one returned.
type ChainedResolver struct {
	primary  interfaces.MetadataResolver
	fallback interfaces.MetadataResolver
	log      *logging.Logger
}

// NewChainedResolver chains primary before fallback.
func NewChainedResolver(primary, fallback interfaces.MetadataResolver, log *logging.Logger) *ChainedResolver {
	return &ChainedResolver{
		primary:  primary,
		fallback: fallback,
		log:      log.WithComponent("metadata-chain"),
	}
}

// Resolve implements the explicit fallback order.
func (r *ChainedResolver) Resolve(ctx context.Context, videoID string) (*types.VideoMetadata, error) {
	meta, err := r.primary.Resolve(ctx, videoID)
	if err == nil {
		return meta, nil
	}
	r.log.WithVideoID(videoID).WithError(err).Warn("primary resolver failed, trying fallback")
	return r.fallback.Resolve(ctx, videoID)
}
