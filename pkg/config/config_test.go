package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))

	cfg := Load()
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "downloads", cfg.DownloadDir)
	assert.Equal(t, "chained", cfg.MetadataStrategy)
	assert.Equal(t, "yt-dlp", cfg.YtdlpPath)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, defaultMirrors, cfg.Mirrors)
	assert.Equal(t, defaultClientProfiles, cfg.ClientProfiles)
	assert.Equal(t, defaultUserAgents, cfg.UserAgents)
	assert.Empty(t, cfg.YouTubeAPIKeys)
	assert.Equal(t, 10*time.Minute, cfg.CleanupInterval)
	assert.Equal(t, 30*time.Minute, cfg.FileTTL)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))
	t.Setenv("PORT", "8080")
	t.Setenv("DOWNLOAD_DIR", "/var/tmp/media")
	t.Setenv("METADATA_STRATEGY", "extractor")
	t.Setenv("YOUTUBE_API_KEYS", "key1, key2 ,key3")
	t.Setenv("MIRRORS", "https://m1.example,https://m2.example")
	t.Setenv("MIRROR_TIMEOUT", "5")
	t.Setenv("MIRROR_PROBE_RATE", "0.5")
	t.Setenv("SLEEP_BETWEEN_ATTEMPTS", "500ms")
	t.Setenv("LOG_JSON", "true")

	cfg := Load()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "/var/tmp/media", cfg.DownloadDir)
	assert.Equal(t, "extractor", cfg.MetadataStrategy)
	assert.Equal(t, []string{"key1", "key2", "key3"}, cfg.YouTubeAPIKeys)
	assert.Equal(t, []string{"https://m1.example", "https://m2.example"}, cfg.Mirrors)
	assert.Equal(t, 5*time.Second, cfg.MirrorTimeout, "bare numbers are seconds")
	assert.Equal(t, 0.5, cfg.MirrorProbeRate)
	assert.Equal(t, 500*time.Millisecond, cfg.SleepBetweenAttempts)
	assert.True(t, cfg.LogJSON)
}

func TestLoad_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytgrab.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_keys = ["file-key"]
mirrors = ["https://file-mirror.example"]
cookies_file = "/etc/cookies.txt"
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("YOUTUBE_API_KEYS", "env-key")

	cfg := Load()
	assert.Equal(t, []string{"file-key"}, cfg.YouTubeAPIKeys, "file wins over environment")
	assert.Equal(t, []string{"https://file-mirror.example"}, cfg.Mirrors)
	assert.Equal(t, "/etc/cookies.txt", cfg.CookiesFile)
	assert.Equal(t, defaultClientProfiles, cfg.ClientProfiles, "settings absent from the file keep their values")
}
