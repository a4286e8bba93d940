// Package ytdlp adapts the yt-dlp extraction capability. Extraction walks an
// ordered list of client profiles so a fingerprint-blocked persona falls
// through to the next one instead of failing the request.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"ytgrab-go/pkg/interfaces"
	"ytgrab-go/pkg/logging"
	"ytgrab-go/pkg/types"
)

// defaultProfiles is the persona fallback order used when the caller
// provides none.
var defaultProfiles = []string{"web_safari", "android", "ios", "tv"}

// runner abstracts subprocess execution for testability.
type runner interface {
	run(ctx context.Context, name string, args []string) ([]byte, error)
}

// execRunner invokes the real binary, returning stdout. Stderr is folded
// into the error.
type execRunner struct{}

func (execRunner) run(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, tail(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

// tail keeps error detail bounded; yt-dlp stderr can run to many kilobytes.
func tail(b []byte) string {
	const max = 400
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		s = "..." + s[len(s)-max:]
	}
	return s
}

// Adapter is the stream extractor implementation backed by yt-dlp.
type Adapter struct {
	path string
	run  runner
	log  *logging.Logger
}

// New creates an adapter invoking the binary at path.
func New(path string, log *logging.Logger) *Adapter {
	return &Adapter{
		path: path,
		run:  execRunner{},
		log:  log.WithComponent("ytdlp"),
	}
}

// extractorJSON models the subset of yt-dlp -J output this service reads.
type extractorJSON struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Uploader    string  `json:"uploader"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	ViewCount   int64   `json:"view_count"`
	Thumbnail   string  `json:"thumbnail"`
	Formats     []struct {
		FormatID   string  `json:"format_id"`
		Ext        string  `json:"ext"`
		VCodec     string  `json:"vcodec"`
		ACodec     string  `json:"acodec"`
		TBR        float64 `json:"tbr"`
		Height     int     `json:"height"`
		FormatNote string  `json:"format_note"`
	} `json:"formats"`
}

// Metadata runs the extractor in metadata-only mode. Fields absent from the
// output stay at their zero values.
func (a *Adapter) Metadata(ctx context.Context, url string) (*types.VideoMetadata, error) {
	args := []string{"-J", "--no-playlist", "--no-warnings", url}
	out, err := a.run.run(ctx, a.path, args)
	if err != nil {
		return nil, types.WrapError(types.ErrExtractionFailed, err, "metadata extraction failed")
	}

	var data extractorJSON
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, types.WrapError(types.ErrExtractionFailed, err, "decode extractor output")
	}

	meta := &types.VideoMetadata{
		Title:           data.Title,
		Author:          data.Uploader,
		DurationSeconds: int64(data.Duration),
		ViewCount:       data.ViewCount,
		ThumbnailURL:    data.Thumbnail,
		Description:     data.Description,
	}
	for _, f := range data.Formats {
		// Progressive formats only, matching what the info endpoint lists.
		if f.VCodec == "none" || f.ACodec == "none" {
			continue
		}
		resolution := f.FormatNote
		if resolution == "" && f.Height > 0 {
			resolution = fmt.Sprintf("%dp", f.Height)
		}
		meta.Streams = append(meta.Streams, types.StreamBrief{
			Itag:       f.FormatID,
			Resolution: resolution,
			MimeType:   "video/" + f.Ext,
			Bitrate:    int64(f.TBR * 1000),
		})
	}
	return meta, nil
}

// Extract downloads url into opts.OutputPath, trying each client profile in
// order. The printed title on stdout becomes the stream's display title.
func (a *Adapter) Extract(ctx context.Context, url string, opts interfaces.ExtractOptions) (*types.ExtractedStream, error) {
	profiles := opts.ClientProfiles
	if len(profiles) == 0 {
		profiles = defaultProfiles
	}

	var lastErr error
	for i, profile := range profiles {
		if i > 0 && opts.SleepBetweenAttempts > 0 {
			select {
			case <-ctx.Done():
				return nil, types.WrapError(types.ErrExtractionFailed, ctx.Err(), "extraction aborted")
			case <-time.After(opts.SleepBetweenAttempts):
			}
		}

		args := buildArgs(url, profile, opts)
		out, err := a.run.run(ctx, a.path, args)
		if err != nil {
			a.log.WithURL(url).WithError(err).Warn("extraction attempt failed", "profile", profile)
			lastErr = err
			continue
		}

		return &types.ExtractedStream{
			FilePath: opts.OutputPath,
			Title:    strings.TrimSpace(string(out)),
		}, nil
	}

	return nil, types.WrapError(types.ErrExtractionFailed, lastErr,
		"all %d client profiles exhausted", len(profiles))
}

// buildArgs assembles the invocation for a single profile attempt.
func buildArgs(url, profile string, opts interfaces.ExtractOptions) []string {
	args := []string{"--no-playlist", "--no-warnings", "--no-progress"}

	if opts.FormatSelector != "" {
		args = append(args, "-f", opts.FormatSelector)
	}
	args = append(args, "--extractor-args", "youtube:player_client="+profile)
	if opts.MaxRetries > 0 {
		args = append(args, "--retries", strconv.Itoa(opts.MaxRetries))
	}
	if opts.CookiesFile != "" {
		args = append(args, "--cookies", opts.CookiesFile)
	}
	if opts.UserAgent != "" {
		args = append(args, "--user-agent", opts.UserAgent)
	}
	if opts.Referer != "" {
		args = append(args, "--referer", opts.Referer)
	}

	// Download and print the resolved title in one invocation.
	args = append(args, "-o", opts.OutputPath, "--no-simulate", "--print", "title", url)
	return args
}
