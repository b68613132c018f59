// Package scanner walks the library directory and keeps the store in sync
// with the ebook files on disk.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/ingest"
	"github.com/inkwellapp/inkwell-server/internal/ratelimit"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

// rateLimitKey is the bucket used to pace file ingestion during a scan.
const rateLimitKey = "scan"

// Scanner orchestrates the library scanning process.
type Scanner struct {
	store    *store.Store
	ingestor *ingest.Ingestor
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger

	walker *Walker

	mu      sync.Mutex
	running bool
}

// NewScanner creates a new scanner instance. limiter may be nil to scan
// at full speed.
func NewScanner(st *store.Store, ingestor *ingest.Ingestor, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Scanner {
	return &Scanner{
		store:    st,
		ingestor: ingestor,
		limiter:  limiter,
		logger:   logger,
		walker:   NewWalker(logger),
	}
}

// Running reports whether a scan is currently in progress.
func (s *Scanner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ScanOptions configures a scan.
type ScanOptions struct {
	Workers int  // Concurrent ingestion workers (defaults to NumCPU)
	Force   bool // Re-ingest files even when size and mtime are unchanged
}

// ScanResult summarizes a completed scan.
type ScanResult struct {
	Added       int       `json:"added"`
	Updated     int       `json:"updated"`
	Removed     int       `json:"removed"`
	Skipped     int       `json:"skipped"`
	Errors      int       `json:"errors"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// ErrScanInProgress is returned when a scan is requested while one is
// already running.
var ErrScanInProgress = errors.New("scan already in progress")

// Scan performs a full library scan of the given folder path: new and
// changed files are ingested, unchanged files are skipped, and books whose
// files disappeared are removed. Only one scan runs at a time.
func (s *Scanner) Scan(ctx context.Context, folderPath string, opts ScanOptions) (*ScanResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrScanInProgress
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if _, err := os.Stat(folderPath); err != nil {
		return nil, fmt.Errorf("folder path not accessible: %w", err)
	}

	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	result := &ScanResult{StartedAt: time.Now()}
	s.logger.Info("starting scan", "path", folderPath, "workers", opts.Workers)

	files := s.walker.Walk(ctx, folderPath)

	var (
		resultMu  sync.Mutex
		seenMu    sync.Mutex
		seenPaths = make(map[string]bool)
		wg        sync.WaitGroup
	)

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for wr := range files {
				if !ingest.Supported(wr.Path) {
					continue
				}

				seenMu.Lock()
				seenPaths[wr.Path] = true
				seenMu.Unlock()

				outcome, err := s.processFile(ctx, wr, opts.Force)

				resultMu.Lock()
				switch {
				case err != nil:
					result.Errors++
				case outcome == outcomeAdded:
					result.Added++
				case outcome == outcomeUpdated:
					result.Updated++
				default:
					result.Skipped++
				}
				resultMu.Unlock()

				if err != nil && !errors.Is(err, context.Canceled) {
					s.logger.Error("failed to ingest file", "path", wr.Path, "error", err)
				}
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	removed, err := s.pruneMissing(ctx, folderPath, seenPaths)
	if err != nil {
		s.logger.Error("failed to prune missing books", "error", err)
		result.Errors++
	}
	result.Removed = removed

	result.CompletedAt = time.Now()
	s.logger.Info("scan complete",
		"duration", result.CompletedAt.Sub(result.StartedAt),
		"added", result.Added,
		"updated", result.Updated,
		"removed", result.Removed,
		"skipped", result.Skipped,
		"errors", result.Errors,
	)
	return result, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeAdded
	outcomeUpdated
)

// processFile ingests one discovered file, creating or updating its book.
// Unchanged files (same size and mtime) are skipped unless force is set.
func (s *Scanner) processFile(ctx context.Context, wr WalkResult, force bool) (outcome, error) {
	existing, err := s.store.GetBookByPath(ctx, wr.Path)
	if err != nil && !errors.Is(err, store.ErrBookNotFound) {
		return outcomeSkipped, err
	}

	if existing != nil && !force && existing.Size == wr.Size && existing.ModTime == wr.ModTime {
		return outcomeSkipped, nil
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, rateLimitKey); err != nil {
			return outcomeSkipped, err
		}
	}

	book, err := s.ingestor.Ingest(ctx, wr.Path)
	if err != nil {
		return outcomeSkipped, err
	}

	if existing != nil {
		// Keep the stable identity of the already-known book.
		book.ID = existing.ID
		book.CreatedAt = existing.CreatedAt
		if err := s.store.UpdateBook(ctx, book); err != nil {
			return outcomeSkipped, err
		}
		return outcomeUpdated, nil
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		return outcomeSkipped, err
	}
	return outcomeAdded, nil
}

// pruneMissing removes books under root whose files were not seen during
// the walk.
func (s *Scanner) pruneMissing(ctx context.Context, root string, seen map[string]bool) (int, error) {
	paths, err := s.store.AllBookPaths(ctx)
	if err != nil {
		return 0, err
	}

	prefix := strings.TrimSuffix(root, "/") + "/"
	removed := 0
	for bookID, path := range paths {
		if !strings.HasPrefix(path, prefix) || seen[path] {
			continue
		}
		if err := s.store.DeleteBook(ctx, bookID); err != nil {
			s.logger.Error("failed to remove book", "id", bookID, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
