// Package mirrors probes alternate content gateways in configured order
// until one returns usable metadata and formats.
package mirrors

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"ytgrab-go/pkg/formats"
	"ytgrab-go/pkg/identity"
	"ytgrab-go/pkg/interfaces"
	"ytgrab-go/pkg/logging"
	"ytgrab-go/pkg/types"
)

// Selector iterates the configured mirror list. The list is pre-ranked by
// assumed reliability, so probing is ordered, not randomized.
type Selector struct {
	client  interfaces.HTTPDoer
	agents  *identity.Rotator
	mirrors []string
	timeout time.Duration
	limiter *rate.Limiter
	log     *logging.Logger
}

// Result is a successful mirror resolution.
type Result struct {
	Metadata *types.VideoMetadata
	Format   types.CandidateFormat
	Formats  []types.CandidateFormat
	Mirror   string
}

// New creates a selector. probeRate bounds how fast public mirrors are hit
// across all concurrent requests.
func New(client interfaces.HTTPDoer, agents *identity.Rotator, mirrors []string, timeout time.Duration, probeRate float64, log *logging.Logger) *Selector {
	if probeRate <= 0 {
		probeRate = 2
	}
	return &Selector{
		client:  client,
		agents:  agents,
		mirrors: mirrors,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(probeRate), 1),
		log:     log.WithComponent("mirrors"),
	}
}

// mirrorVideo models the mirror API payload for a single video.
type mirrorVideo struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	LengthSeconds   int64  `json:"lengthSeconds"`
	ViewCount       int64  `json:"viewCount"`
	Description     string `json:"description"`
	VideoThumbnails []struct {
		Quality string `json:"quality"`
		URL     string `json:"url"`
	} `json:"videoThumbnails"`
	AdaptiveFormats []mirrorFormat `json:"adaptiveFormats"`
	FormatStreams   []mirrorFormat `json:"formatStreams"`
}

type mirrorFormat struct {
	Itag       string `json:"itag"`
	Bitrate    string `json:"bitrate"`
	Type       string `json:"type"`
	URL        string `json:"url"`
	Resolution string `json:"resolution"`
}

// Resolve probes each mirror until one yields a decodable payload. Non-2xx
// and bad payloads are soft failures; a good payload is terminal even when
// it carries zero formats (that is ErrNoFormats, not another probe).
func (s *Selector) Resolve(ctx context.Context, videoID string, kind types.MediaKind) (*Result, error) {
	for _, mirror := range s.mirrors {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, types.WrapError(types.ErrUpstream, err, "mirror probe aborted")
		}

		video, err := s.probe(ctx, mirror, videoID)
		if err != nil {
			s.log.WithMirror(mirror).WithVideoID(videoID).WithError(err).Debug("mirror probe failed")
			continue
		}

		candidates := collectFormats(video)
		best, err := formats.Best(candidates, kind)
		if err != nil {
			return nil, err
		}

		s.log.WithMirror(mirror).WithVideoID(videoID).Info("mirror resolved",
			"formats", len(candidates), "chosen_itag", best.ID)

		return &Result{
			Metadata: toMetadata(video),
			Format:   best,
			Formats:  candidates,
			Mirror:   mirror,
		}, nil
	}

	return nil, types.NewError(types.ErrAllMirrorsExhausted, "all %d mirrors failed for %s", len(s.mirrors), videoID)
}

// probe issues one bounded-timeout request against a single mirror.
func (s *Selector) probe(ctx context.Context, mirror, videoID string) (*mirrorVideo, error) {
	probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	url := mirror + "/api/v1/videos/" + videoID
	req, err := newRequest(probeCtx, url, s.agents.Next())
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, types.NewError(types.ErrUpstream, "mirror returned status %d", resp.StatusCode)
	}

	var video mirrorVideo
	if err := json.NewDecoder(resp.Body).Decode(&video); err != nil {
		return nil, types.WrapError(types.ErrUpstream, err, "decode mirror payload")
	}
	return &video, nil
}

func newRequest(ctx context.Context, url, userAgent string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func collectFormats(video *mirrorVideo) []types.CandidateFormat {
	out := make([]types.CandidateFormat, 0, len(video.AdaptiveFormats)+len(video.FormatStreams))
	for _, f := range video.AdaptiveFormats {
		out = append(out, toCandidate(f, false))
	}
	for _, f := range video.FormatStreams {
		out = append(out, toCandidate(f, true))
	}
	return out
}

func toCandidate(f mirrorFormat, progressive bool) types.CandidateFormat {
	bitrate, _ := strconv.ParseInt(f.Bitrate, 10, 64)
	return types.CandidateFormat{
		ID:          f.Itag,
		MimeType:    f.Type,
		Bitrate:     bitrate,
		Resolution:  f.Resolution,
		Progressive: progressive,
		URL:         f.URL,
	}
}

func toMetadata(video *mirrorVideo) *types.VideoMetadata {
	meta := &types.VideoMetadata{
		Title:           video.Title,
		Author:          video.Author,
		DurationSeconds: video.LengthSeconds,
		ViewCount:       video.ViewCount,
		Description:     video.Description,
	}
	if len(video.VideoThumbnails) > 0 {
		meta.ThumbnailURL = video.VideoThumbnails[0].URL
	}
	return meta
}
