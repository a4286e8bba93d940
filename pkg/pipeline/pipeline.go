// Package pipeline owns the lifecycle of a single retrieval request:
// normalize, resolve metadata, extract or download, transcode when the
// container mismatches, verify the artifact, and hand back the outcome.
// Failure is terminal per request; callers retry by issuing a new request.
package pipeline

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"ytgrab-go/pkg/config"
	"ytgrab-go/pkg/formats"
	"ytgrab-go/pkg/identity"
	"ytgrab-go/pkg/interfaces"
	"ytgrab-go/pkg/logging"
	"ytgrab-go/pkg/mirrors"
	"ytgrab-go/pkg/types"
	"ytgrab-go/pkg/urlutil"
)

// Pipeline drives all other components; none of them call back into it.
type Pipeline struct {
	cfg        *config.Config
	log        *logging.Logger
	resolver   interfaces.MetadataResolver
	mirrors    *mirrors.Selector
	extractor  interfaces.Extractor
	transcoder interfaces.Transcoder
	agents     *identity.Rotator
	client     interfaces.HTTPDoer
}

// New wires a pipeline from its collaborators.
func New(
	cfg *config.Config,
	log *logging.Logger,
	resolver interfaces.MetadataResolver,
	sel *mirrors.Selector,
	extractor interfaces.Extractor,
	transcoder interfaces.Transcoder,
	agents *identity.Rotator,
	client interfaces.HTTPDoer,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		log:        log.WithComponent("pipeline"),
		resolver:   resolver,
		mirrors:    sel,
		extractor:  extractor,
		transcoder: transcoder,
		agents:     agents,
		client:     client,
	}
}

// Info resolves metadata for a raw source URL. Metadata failure is fatal
// here, unlike on the download paths.
func (p *Pipeline) Info(ctx context.Context, rawURL string) (*types.VideoMetadata, error) {
	videoID, err := urlutil.ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}
	return p.resolver.Resolve(ctx, videoID)
}

// Retrieve runs the full extraction pipeline for one request.
func (p *Pipeline) Retrieve(ctx context.Context, req types.MediaRequest) (*types.Outcome, error) {
	videoID, err := urlutil.ExtractVideoID(req.SourceURL)
	if err != nil {
		return nil, err
	}
	log := p.log.WithVideoID(videoID)

	// Metadata failure must not sink a download-only request.
	var metaTitle string
	if meta, err := p.resolver.Resolve(ctx, videoID); err != nil {
		log.WithError(err).Warn("metadata resolution failed, continuing with download")
	} else {
		metaTitle = meta.Title
	}

	token := newToken()
	workExt := "mp4"
	if req.Kind == types.KindAudio {
		workExt = "m4a"
	}
	outPath := filepath.Join(p.cfg.DownloadDir, token+"."+workExt)

	stream, err := p.extractor.Extract(ctx, req.SourceURL, interfaces.ExtractOptions{
		FormatSelector:       formatSelector(req),
		ClientProfiles:       p.cfg.ClientProfiles,
		SleepBetweenAttempts: p.cfg.SleepBetweenAttempts,
		MaxRetries:           p.cfg.MaxRetries,
		CookiesFile:          p.cfg.CookiesFile,
		UserAgent:            p.agents.Next(),
		Referer:              "https://www.youtube.com/",
		OutputPath:           outPath,
	})
	if err != nil {
		return nil, err
	}

	// The extractor may have written a sibling with a drifted extension;
	// locate the real artifact before deciding whether to transcode.
	artifact, err := p.verifyOutput(stream.FilePath, token)
	if err != nil {
		return nil, err
	}

	target := req.Kind.TargetContainer()
	if req.Kind == types.KindAudio && strings.TrimPrefix(filepath.Ext(artifact), ".") != target {
		artifact, err = p.transcoder.EnsureTargetFormat(ctx, artifact, target)
		if err != nil {
			return nil, err
		}
		if artifact, err = p.verifyOutput(artifact, token); err != nil {
			return nil, err
		}
	}

	title := stream.Title
	if title == "" {
		title = metaTitle
	}
	if title == "" {
		title = videoID
	}

	return &types.Outcome{
		FilePath:    artifact,
		DisplayName: urlutil.SanitizeFilename(title) + filepath.Ext(artifact),
	}, nil
}

// RetrieveFromMirror resolves via the mirror list and downloads the chosen
// format URL directly instead of going through the extractor.
func (p *Pipeline) RetrieveFromMirror(ctx context.Context, req types.MediaRequest) (*types.Outcome, error) {
	videoID, err := urlutil.ExtractVideoID(req.SourceURL)
	if err != nil {
		return nil, err
	}

	res, err := p.mirrors.Resolve(ctx, videoID, req.Kind)
	if err != nil {
		return nil, err
	}

	chosen := res.Format
	if req.FormatID != "" {
		if f, err := formats.ByID(res.Formats, req.FormatID); err == nil {
			chosen = f
		}
	}

	token := newToken()
	path := filepath.Join(p.cfg.DownloadDir, token+"."+extFromMime(chosen.MimeType, req.Kind))
	if err := p.download(ctx, chosen.URL, path); err != nil {
		return nil, err
	}

	if req.Kind == types.KindAudio {
		if path, err = p.transcoder.EnsureTargetFormat(ctx, path, req.Kind.TargetContainer()); err != nil {
			return nil, err
		}
	}

	artifact, err := p.verifyOutput(path, token)
	if err != nil {
		return nil, err
	}

	title := res.Metadata.Title
	if title == "" {
		title = videoID
	}

	return &types.Outcome{
		FilePath:    artifact,
		DisplayName: urlutil.SanitizeFilename(title) + filepath.Ext(artifact),
	}, nil
}

// download streams a format URL to a temp file.
func (p *Pipeline) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.WrapError(types.ErrUpstream, err, "build download request")
	}
	req.Header.Set("User-Agent", p.agents.Next())

	resp, err := p.client.Do(req)
	if err != nil {
		return types.WrapError(types.ErrUpstream, err, "download request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.NewError(types.ErrUpstream, "download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return types.WrapError(types.ErrUpstream, err, "create artifact file")
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return types.WrapError(types.ErrUpstream, err, "write artifact file")
	}
	return f.Close()
}

// verifyOutput confirms the expected artifact exists. When it does not, a
// bounded search for siblings sharing the request token but differing in
// extension recovers from extractor/transcoder extension drift.
func (p *Pipeline) verifyOutput(expected, token string) (string, error) {
	if _, err := os.Stat(expected); err == nil {
		return expected, nil
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(expected), token+".*"))
	if len(matches) > 0 {
		p.log.Info("recovered artifact with drifted extension",
			"expected", expected, "found", matches[0])
		return matches[0], nil
	}

	return "", types.NewError(types.ErrOutputMissing, "no artifact on disk for %s", token)
}

// newToken returns a fresh unique artifact identifier. Concurrent requests
// share the working directory, so the token namespaces every file a request
// may produce.
func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// formatSelector maps a request onto the extractor's format expression. An
// explicit format ID wins outright.
func formatSelector(req types.MediaRequest) string {
	if req.FormatID != "" {
		return req.FormatID
	}
	if req.Kind == types.KindAudio {
		return "bestaudio[ext=m4a]/bestaudio/best"
	}
	return "best[ext=mp4]/best"
}

// extFromMime derives a file extension from a mirror format's MIME type,
// e.g. "video/mp4; codecs=..." yields "mp4".
func extFromMime(mimeType string, kind types.MediaKind) string {
	s := mimeType
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '/'); i >= 0 && i+1 < len(s) {
		return strings.TrimSpace(s[i+1:])
	}
	if kind == types.KindAudio {
		return "m4a"
	}
	return "mp4"
}
