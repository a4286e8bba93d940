// Package ffmpeg repairs container mismatches after extraction by invoking
// the external transcoder with fixed parameters per target container.
package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"ytgrab-go/pkg/logging"
	"ytgrab-go/pkg/types"
)

// encodeArgs are the fixed parameters per target container. Fixed so the
// output is consistent regardless of the input encoding.
var encodeArgs = map[string][]string{
	"mp3": {"-vn", "-ar", "44100", "-ac", "2", "-b:a", "192k"},
	"m4a": {"-vn", "-c:a", "aac", "-ar", "44100", "-ac", "2", "-b:a", "192k"},
	"mp4": {"-c:v", "libx264", "-preset", "fast", "-crf", "23", "-pix_fmt", "yuv420p", "-c:a", "aac", "-b:a", "128k", "-movflags", "+faststart"},
}

// runner abstracts subprocess execution for testability.
type runner interface {
	run(ctx context.Context, name string, args []string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) run(ctx context.Context, name string, args []string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Transcoder invokes the external ffmpeg binary.
type Transcoder struct {
	path string
	run  runner
	log  *logging.Logger
}

// New creates a transcoder invoking the binary at path.
func New(path string, log *logging.Logger) *Transcoder {
	return &Transcoder{
		path: path,
		run:  execRunner{},
		log:  log.WithComponent("ffmpeg"),
	}
}

// EnsureTargetFormat re-encodes inputPath into targetContainer unless it
// already matches. On success the original input is deleted best-effort.
func (t *Transcoder) EnsureTargetFormat(ctx context.Context, inputPath, targetContainer string) (string, error) {
	ext := filepath.Ext(inputPath)
	if strings.TrimPrefix(ext, ".") == targetContainer {
		return inputPath, nil
	}

	outputPath := strings.TrimSuffix(inputPath, ext) + "." + targetContainer
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", inputPath}
	args = append(args, encodeArgs[targetContainer]...)
	args = append(args, outputPath)

	t.log.Info("transcoding", "input", inputPath, "target", targetContainer)

	out, err := t.run.run(ctx, t.path, args)
	if err != nil {
		return "", types.WrapError(types.ErrTranscodeFailed, err,
			"transcode to %s failed: %s", targetContainer, strings.TrimSpace(string(out)))
	}

	if err := os.Remove(inputPath); err != nil {
		t.log.Warn("failed to remove transcode input", "path", inputPath, "error", err)
	}
	return outputPath, nil
}
