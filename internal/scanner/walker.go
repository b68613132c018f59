package scanner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Walker traverses the filesystem and discovers ebook files.
type Walker struct {
	logger *slog.Logger
}

// NewWalker creates a new walker.
func NewWalker(logger *slog.Logger) *Walker {
	return &Walker{
		logger: logger,
	}
}

// WalkResult represents a file discovered during walking.
type WalkResult struct {
	Path    string
	RelPath string
	Size    int64
	ModTime int64
}

// Walk traverses a directory and streams discovered files.
// Hidden files and directories are skipped. The channel closes when the
// walk is complete or the context is canceled.
func (w *Walker) Walk(ctx context.Context, rootPath string) <-chan WalkResult {
	results := make(chan WalkResult, 100) // Buffered channel for better performance

	go func() {
		defer close(results)

		err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				w.logger.Error("walk error", "path", path, "error", err)
				// Continue walking despite errors.
				return nil
			}

			// Skip hidden files/directories.
			if d.Name() != "." && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				w.logger.Error("failed to get file info", "path", path, "error", err)
				return nil
			}

			relPath, err := filepath.Rel(rootPath, path)
			if err != nil {
				w.logger.Error("failed to compute relative path", "path", path, "error", err)
				relPath = path
			}

			result := WalkResult{
				Path:    path,
				RelPath: relPath,
				Size:    info.Size(),
				ModTime: info.ModTime().Unix(),
			}

			select {
			case results <- result:
			case <-ctx.Done():
				return ctx.Err()
			}

			return nil
		})

		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("walk failed", "root", rootPath, "error", err)
		}
	}()

	return results
}
