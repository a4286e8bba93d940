// Package config handles application configuration from environment
// variables, with an optional TOML overlay for the list-valued settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration. It is immutable after Load;
// components receive it by pointer and never write to it.
type Config struct {
	// Server settings
	Port         int
	BaseURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Working directory for per-request artifacts
	DownloadDir string

	// Metadata resolution
	// Strategy is one of "api", "extractor", "chained" (default).
	MetadataStrategy string
	YouTubeAPIKeys   []string
	YouTubeAPIBase   string

	// Outbound identity
	UserAgents []string
	Proxy      string

	// Content mirrors, probed in configured order
	Mirrors         []string
	MirrorTimeout   time.Duration
	MirrorProbeRate float64 // probes per second across all requests

	// Extractor settings
	YtdlpPath            string
	ClientProfiles       []string
	SleepBetweenAttempts time.Duration
	MaxRetries           int
	CookiesFile          string

	// Transcoder settings
	FFmpegPath string

	// Artifact cleanup sweep
	CleanupInterval time.Duration
	FileTTL         time.Duration

	// Logging
	LogLevel string
	LogJSON  bool
}

// defaultUserAgents is the built-in outbound identity list; overridable via
// USER_AGENTS or the config file.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// defaultMirrors are pre-ranked by assumed reliability; order is the probe
// order.
var defaultMirrors = []string{
	"https://yewtu.be",
	"https://inv.nadeko.net",
	"https://invidious.nerdvpn.de",
}

// defaultClientProfiles is the extraction-persona fallback order.
var defaultClientProfiles = []string{"web_safari", "android", "ios", "tv"}

// Load reads configuration from environment variables, then overlays the
// optional TOML file named by CONFIG_FILE (default ytgrab.toml if present).
func Load() *Config {
	port := getEnvInt("PORT", 5000)
	cfg := &Config{
		Port:                 port,
		BaseURL:              getEnvString("BASE_URL", fmt.Sprintf("http://localhost:%d", port)),
		ReadTimeout:          getEnvDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:         getEnvDuration("WRITE_TIMEOUT", 300*time.Second),
		IdleTimeout:          getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		DownloadDir:          getEnvString("DOWNLOAD_DIR", "downloads"),
		MetadataStrategy:     getEnvString("METADATA_STRATEGY", "chained"),
		YouTubeAPIKeys:       getEnvStringSlice("YOUTUBE_API_KEYS", nil),
		YouTubeAPIBase:       getEnvString("YOUTUBE_API_BASE", "https://www.googleapis.com/youtube/v3"),
		UserAgents:           getEnvStringSlice("USER_AGENTS", defaultUserAgents),
		Proxy:                os.Getenv("PROXY"),
		Mirrors:              getEnvStringSlice("MIRRORS", defaultMirrors),
		MirrorTimeout:        getEnvDuration("MIRROR_TIMEOUT", 10*time.Second),
		MirrorProbeRate:      getEnvFloat("MIRROR_PROBE_RATE", 2),
		YtdlpPath:            getEnvString("YTDLP_PATH", "yt-dlp"),
		ClientProfiles:       getEnvStringSlice("CLIENT_PROFILES", defaultClientProfiles),
		SleepBetweenAttempts: getEnvDuration("SLEEP_BETWEEN_ATTEMPTS", 2*time.Second),
		MaxRetries:           getEnvInt("MAX_RETRIES", 3),
		CookiesFile:          os.Getenv("COOKIES_FILE"),
		FFmpegPath:           getEnvString("FFMPEG_PATH", "ffmpeg"),
		CleanupInterval:      getEnvDuration("CLEANUP_INTERVAL", 10*time.Minute),
		FileTTL:              getEnvDuration("FILE_TTL", 30*time.Minute),
		LogLevel:             getEnvString("LOG_LEVEL", "info"),
		LogJSON:              getEnvBool("LOG_JSON", false),
	}

	path := getEnvString("CONFIG_FILE", "ytgrab.toml")
	if _, err := os.Stat(path); err == nil {
		_ = cfg.overlayFile(path)
	}

	return cfg
}

// fileConfig mirrors the settings the TOML overlay may provide. Only the
// fields actually present in the file override the environment.
type fileConfig struct {
	APIKeys        []string `toml:"api_keys"`
	UserAgents     []string `toml:"user_agents"`
	Mirrors        []string `toml:"mirrors"`
	ClientProfiles []string `toml:"client_profiles"`
	CookiesFile    string   `toml:"cookies_file"`
	Proxy          string   `toml:"proxy"`
}

func (c *Config) overlayFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if len(fc.APIKeys) > 0 {
		c.YouTubeAPIKeys = fc.APIKeys
	}
	if len(fc.UserAgents) > 0 {
		c.UserAgents = fc.UserAgents
	}
	if len(fc.Mirrors) > 0 {
		c.Mirrors = fc.Mirrors
	}
	if len(fc.ClientProfiles) > 0 {
		c.ClientProfiles = fc.ClientProfiles
	}
	if fc.CookiesFile != "" {
		c.CookiesFile = fc.CookiesFile
	}
	if fc.Proxy != "" {
		c.Proxy = fc.Proxy
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return strings.ToLower(val) == "true" || val == "1"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		// Bare numbers are seconds
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultVal
}
