// Package app provides the main application setup and dependency wiring.
package app

import (
	"context"
	"fmt"
	"os"

	"ytgrab-go/pkg/config"
	"ytgrab-go/pkg/ffmpeg"
	"ytgrab-go/pkg/handlers/api"
	"ytgrab-go/pkg/httpclient"
	"ytgrab-go/pkg/identity"
	"ytgrab-go/pkg/interfaces"
	"ytgrab-go/pkg/logging"
	"ytgrab-go/pkg/metadata"
	"ytgrab-go/pkg/mirrors"
	"ytgrab-go/pkg/pipeline"
	"ytgrab-go/pkg/server"
	"ytgrab-go/pkg/ytdlp"
)

// App is the main application container.
type App struct {
	Config   *config.Config
	Log      *logging.Logger
	Server   *server.Server
	Pipeline *pipeline.Pipeline

	cancelJanitor context.CancelFunc
}

// New creates and initializes the application.
func New() (*App, error) {
	cfg := config.Load()

	log := logging.New(cfg.LogLevel, cfg.LogJSON, nil)
	log.Info("initializing ytgrab",
		"port", cfg.Port,
		"metadata_strategy", cfg.MetadataStrategy,
		"mirrors", len(cfg.Mirrors),
		"api_keys", len(cfg.YouTubeAPIKeys),
	)

	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download directory: %w", err)
	}

	client := httpclient.New(cfg, log)
	pool := identity.NewCredentialPool(cfg.YouTubeAPIKeys)
	agents := identity.NewRotator(cfg.UserAgents)

	extractor := ytdlp.New(cfg.YtdlpPath, log)
	transcoder := ffmpeg.New(cfg.FFmpegPath, log)
	resolver := buildResolver(cfg, client, pool, agents, extractor, log)
	selector := mirrors.New(client, agents, cfg.Mirrors, cfg.MirrorTimeout, cfg.MirrorProbeRate, log)

	pl := pipeline.New(cfg, log, resolver, selector, extractor, transcoder, agents, client)

	janitorCtx, cancel := context.WithCancel(context.Background())
	pl.StartJanitor(janitorCtx)

	srv := server.New(cfg, log)
	api.NewHandlers(pl, log).RegisterRoutes(srv.Router())

	return &App{
		Config:        cfg,
		Log:           log,
		Server:        srv,
		Pipeline:      pl,
		cancelJanitor: cancel,
	}, nil
}

// buildResolver selects the metadata strategy from configuration. The
// chained default tries the structured provider first and falls back to the
// extractor; "api" and "extractor" pin a single strategy.
func buildResolver(
	cfg *config.Config,
	client interfaces.HTTPDoer,
	pool *identity.CredentialPool,
	agents *identity.Rotator,
	extractor interfaces.Extractor,
	log *logging.Logger,
) interfaces.MetadataResolver {
	apiResolver := metadata.NewAPIResolver(client, pool, agents, cfg.YouTubeAPIBase, log)
	extractorResolver := metadata.NewExtractorResolver(extractor, log)

	switch cfg.MetadataStrategy {
	case "api":
		return apiResolver
	case "extractor":
		return extractorResolver
	default:
		return metadata.NewChainedResolver(apiResolver, extractorResolver, log)
	}
}

// Run starts the application.
func (a *App) Run() error {
	return a.Server.Start()
}

// Shutdown stops background work.
func (a *App) Shutdown() {
	a.Log.Info("shutting down application")
	a.cancelJanitor()
}
