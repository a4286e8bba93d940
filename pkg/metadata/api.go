// Package metadata resolves a canonical video ID into metadata through one
// of two strategies: the structured provider API or the generic extractor.
// A chained resolver tries the first and falls back to the second.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"ytgrab-go/pkg/identity"
	"ytgrab-go/pkg/interfaces"
	"ytgrab-go/pkg/logging"
	"ytgrab-go/pkg/types"
)

// APIResolver resolves metadata through the structured provider API using a
// credential drawn from the pool per call.
type APIResolver struct {
	client interfaces.HTTPDoer
	pool   *identity.CredentialPool
	agents *identity.Rotator
	base   string
	log    *logging.Logger
}

// NewAPIResolver creates a resolver against the given API base URL.
func NewAPIResolver(client interfaces.HTTPDoer, pool *identity.CredentialPool, agents *identity.Rotator, base string, log *logging.Logger) *APIResolver {
	return &APIResolver{
		client: client,
		pool:   pool,
		agents: agents,
		base:   base,
		log:    log.WithComponent("metadata-api"),
	}
}

// videoListResponse models the provider's videos.list payload.
type videoListResponse struct {
	Items []struct {
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Description  string `json:"description"`
			Thumbnails   struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// Resolve fetches metadata for videoID. 403-class responses surface as
// quota_exceeded so callers can fall back to a different strategy rather
// than retrying the same pool.
func (r *APIResolver) Resolve(ctx context.Context, videoID string) (*types.VideoMetadata, error) {
	key, err := r.pool.Acquire()
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/videos?part=snippet,contentDetails,statistics&id=%s&key=%s", r.base, videoID, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.WrapError(types.ErrUpstream, err, "build provider request")
	}
	req.Header.Set("User-Agent", r.agents.Next())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, types.WrapError(types.ErrUpstream, err, "provider request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, types.NewError(types.ErrQuotaExceeded, "provider rejected credential")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, types.NewError(types.ErrUpstream, "provider returned status %d", resp.StatusCode)
	}

	var payload videoListResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.WrapError(types.ErrUpstream, err, "decode provider response")
	}
	if len(payload.Items) == 0 {
		return nil, types.NewError(types.ErrNotFound, "video %s not found", videoID)
	}

	item := payload.Items[0]
	views, _ := strconv.ParseInt(item.Statistics.ViewCount, 10, 64)
	duration, err := ParseISODuration(item.ContentDetails.Duration)
	if err != nil {
		r.log.Warn("unparseable duration", "video_id", videoID, "duration", item.ContentDetails.Duration)
	}

	return &types.VideoMetadata{
		Title:           item.Snippet.Title,
		Author:          item.Snippet.ChannelTitle,
		DurationSeconds: duration,
		ViewCount:       views,
		ThumbnailURL:    item.Snippet.Thumbnails.High.URL,
		Description:     item.Snippet.Description,
	}, nil
}
