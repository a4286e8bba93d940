package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// StartJanitor launches the periodic sweep that removes artifacts abandoned
// by requests that timed out at the HTTP layer. Every artifact is named by
// its request token, so anything older than the TTL is orphaned.
func (p *Pipeline) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := p.sweep(time.Now()); err != nil {
					p.log.WithError(err).Warn("cleanup sweep failed")
				} else if n > 0 {
					p.log.Info("cleanup sweep removed orphaned artifacts", "count", n)
				}
			}
		}
	}()
}

// sweep removes files in the working directory older than the configured TTL
// and returns how many it removed.
func (p *Pipeline) sweep(now time.Time) (int, error) {
	entries, err := os.ReadDir(p.cfg.DownloadDir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > p.cfg.FileTTL {
			path := filepath.Join(p.cfg.DownloadDir, entry.Name())
			if err := os.Remove(path); err != nil {
				p.log.Warn("failed to remove orphaned artifact", "path", path, "error", err)
				continue
			}
			removed++
		}
	}
	return removed, nil
}
