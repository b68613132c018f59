package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/scanner"
	"github.com/inkwellapp/inkwell-server/internal/watcher"
)

// FileWatcherHandle wraps the file watcher with shutdown capability.
// The watcher may be nil when watching is disabled.
type FileWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *FileWatcherHandle) Shutdown() error {
	if h.cancel != nil {
		h.cancel()
	}
	return nil
}

// ProvideFileWatcher provides the filesystem watcher that rescans the
// library when files change.
func ProvideFileWatcher(i do.Injector) (*FileWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sc := do.MustInvoke[*scanner.Scanner](i)

	if cfg.Library.EbookPath == "" || !cfg.Library.Watch {
		log.Info("Library watching disabled")
		return &FileWatcherHandle{}, nil
	}

	onChange := func() {
		result, err := sc.Scan(context.Background(), cfg.Library.EbookPath, scanner.ScanOptions{
			Workers: cfg.Scanner.Workers,
		})
		if err != nil {
			log.Error("Rescan after library change failed", "error", err)
			return
		}
		log.Info("Rescan after library change finished",
			"added", result.Added,
			"updated", result.Updated,
			"removed", result.Removed,
		)
	}

	w, err := watcher.New(cfg.Library.EbookPath, watcher.DefaultDebounce, onChange, log.Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("File watcher error", "error", err)
		}
	}()

	log.Info("File watcher started", "path", cfg.Library.EbookPath)

	return &FileWatcherHandle{Watcher: w, cancel: cancel}, nil
}
