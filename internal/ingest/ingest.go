// Package ingest turns ebook files on disk into domain books.
//
// Two formats are supported: EPUB files are unpacked through the archive
// and epub packages, plain text files are decoded and segmented into
// chapters by heading detection.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/inkwellapp/inkwell-server/internal/errors"

	"github.com/inkwellapp/inkwell-server/internal/chapters"
	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/epub"
	"github.com/inkwellapp/inkwell-server/internal/id"
	"github.com/inkwellapp/inkwell-server/internal/media/covers"
	"github.com/inkwellapp/inkwell-server/internal/metadata"
	"github.com/inkwellapp/inkwell-server/internal/textenc"
)

// Ingestor builds domain books from files on disk.
type Ingestor struct {
	coverProc *covers.Processor
	logger    *slog.Logger
}

// New creates an Ingestor. coverProc may be nil, in which case EPUB covers
// are skipped.
func New(coverProc *covers.Processor, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		coverProc: coverProc,
		logger:    logger,
	}
}

// Supported reports whether the file extension is an ingestible format.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".epub", ".txt":
		return true
	}
	return false
}

// Ingest reads the file at path and produces a fully populated book with a
// fresh ID. The caller is responsible for persisting it.
func (ing *Ingestor) Ingest(ctx context.Context, path string) (*domain.Book, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, err
	}

	book := &domain.Book{
		ID:        bookID,
		Path:      path,
		Size:      info.Size(),
		ModTime:   info.ModTime().Unix(),
		ScannedAt: time.Now().UTC(),
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".epub":
		err = ing.ingestEPUB(ctx, path, book)
	case ".txt":
		err = ing.ingestText(path, book)
	default:
		return nil, apperrors.UnsupportedFormatf("unsupported file type: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	ing.logger.Info("ingested book",
		"id", book.ID,
		"title", book.Title,
		"format", book.Format,
		"chapters", book.ChapterCount(),
	)
	return book, nil
}

// ingestEPUB extracts metadata, chapters, and the cover from an EPUB file.
func (ing *Ingestor) ingestEPUB(ctx context.Context, path string, book *domain.Book) error {
	eb, err := epub.Open(path)
	if err != nil {
		if errors.Is(err, epub.ErrInvalidEPUB) {
			return apperrors.Wrapf(err, apperrors.CodeUnsupportedFormat, "not a valid epub: %s", path)
		}
		return err
	}
	defer eb.Close()

	md := eb.Metadata()
	book.Format = domain.FormatEPUB
	book.Title = md.Title
	book.Author = md.Author
	book.Description = md.Description
	book.Language = md.Language
	if book.Title == "" {
		book.Title = titleFromFilename(path)
	}

	book.Chapters, err = eb.Chapters()
	if err != nil {
		return apperrors.Wrapf(err, apperrors.CodeUnsupportedFormat, "no readable content: %s", path)
	}

	ing.attachCover(ctx, eb, book)
	return nil
}

// attachCover locates and stores the EPUB cover. A missing or broken cover
// never fails ingestion.
func (ing *Ingestor) attachCover(ctx context.Context, eb *epub.Book, book *domain.Book) {
	if ing.coverProc == nil {
		return
	}

	cover, err := eb.Cover()
	if err != nil {
		if !errors.Is(err, epub.ErrNoCover) {
			ing.logger.Warn("failed to read cover", "id", book.ID, "error", err)
		}
		return
	}

	coverPath, blurHash, err := ing.coverProc.Process(ctx, book.ID, cover.Data)
	if err != nil {
		ing.logger.Warn("failed to process cover", "id", book.ID, "error", err)
		return
	}
	book.CoverPath = coverPath
	book.BlurHash = blurHash
}

// ingestText decodes a plain text file and segments it into chapters.
func (ing *Ingestor) ingestText(path string, book *domain.Book) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	decoded, err := textenc.Decode(data)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.CodeUnsupportedFormat, "undecodable text file: %s", path)
	}

	book.Format = domain.FormatText
	book.Encoding = decoded.Encoding

	segments := chapters.Segment(decoded.Text)
	book.Chapters = make([]domain.Chapter, len(segments))
	for i, seg := range segments {
		book.Chapters[i] = domain.Chapter{
			Title:     seg.Title,
			Content:   seg.Content,
			StartLine: seg.StartLine,
		}
	}

	analysis := chapters.Analyze(segments)
	ing.logger.Debug("chapter structure",
		"path", path,
		"chapters", analysis.Total,
		"generic_titles", analysis.GenericCount,
		"generic_percent", analysis.GenericPercent,
	)

	book.Title, book.Author = metadata.Infer(path, decoded.Text)
	return nil
}

// titleFromFilename is the last-resort title: the base name without extension.
func titleFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
