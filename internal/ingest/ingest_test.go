package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/inkwellapp/inkwell-server/internal/errors"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/media/covers"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestIngestor(t *testing.T) *Ingestor {
	t.Helper()

	storage, err := covers.NewStorage(t.TempDir())
	require.NoError(t, err)
	return New(covers.NewProcessor(storage, testLogger()), testLogger())
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("/lib/book.epub"))
	assert.True(t, Supported("/lib/book.TXT"))
	assert.False(t, Supported("/lib/book.pdf"))
	assert.False(t, Supported("/lib/book"))
}

func TestIngest_TextFile(t *testing.T) {
	content := strings.Join([]string{
		"小说集",
		"作者: 李明",
		"",
		"第一章 开端",
		"这是第一章的内容。",
		"第二章 转折",
		"这是第二章的内容。",
	}, "\n")

	path := filepath.Join(t.TempDir(), "stories.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ing := newTestIngestor(t)
	book, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(book.ID, "book-"))
	assert.Equal(t, domain.FormatText, book.Format)
	assert.Equal(t, "utf-8", book.Encoding)
	assert.Equal(t, "小说集", book.Title)
	assert.Equal(t, "李明", book.Author)
	assert.Equal(t, path, book.Path)
	assert.Greater(t, book.Size, int64(0))

	require.Len(t, book.Chapters, 2)
	assert.Equal(t, "第一章 开端", book.Chapters[0].Title)
	assert.Equal(t, "第二章 转折", book.Chapters[1].Title)
}

func TestIngest_TextFileWithoutHeadings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just some lines\nno structure here\n"), 0o644))

	ing := newTestIngestor(t)
	book, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, book.Chapters, 1)
	assert.Equal(t, "Full Text", book.Chapters[0].Title)
	assert.Equal(t, "just some lines", book.Title, "first line is used as title")
}

func TestIngest_LogsChapterStructure(t *testing.T) {
	content := strings.Join([]string{
		"Chapter 1",
		"An unnamed opening.",
		"Chapter 2 The Storm",
		"A named continuation.",
	}, "\n")

	path := filepath.Join(t.TempDir(), "mixed.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ing := New(nil, logger)
	book, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, book.Chapters, 2)

	// Title quality of the segmented chapters shows up in the debug log:
	// "Chapter 1" is a bare placeholder, "Chapter 2 The Storm" is not.
	logs := logBuf.String()
	assert.Contains(t, logs, "chapter structure")
	assert.Contains(t, logs, "chapters=2")
	assert.Contains(t, logs, "generic_titles=1")
}

func TestIngest_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	ing := newTestIngestor(t)
	_, err := ing.Ingest(context.Background(), path)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
}

func TestIngest_MissingFile(t *testing.T) {
	ing := newTestIngestor(t)
	_, err := ing.Ingest(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestIngest_EPUB(t *testing.T) {
	path := writeIngestTestEPUB(t)

	ing := newTestIngestor(t)
	book, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, domain.FormatEPUB, book.Format)
	assert.Equal(t, "Night Watch", book.Title)
	assert.Equal(t, "A. Writer", book.Author)
	assert.Equal(t, "en", book.Language)

	require.Len(t, book.Chapters, 1)
	assert.Contains(t, book.Chapters[0].Content, "The bell struck midnight.")

	assert.NotEmpty(t, book.CoverPath)
	assert.NotEmpty(t, book.BlurHash)
	_, statErr := os.Stat(book.CoverPath)
	assert.NoError(t, statErr)
}

func TestIngest_CorruptEPUB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.epub")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a zip"), 0o644))

	ing := newTestIngestor(t)
	_, err := ing.Ingest(context.Background(), path)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
}

// writeIngestTestEPUB builds a one-chapter EPUB with a PNG cover.
func writeIngestTestEPUB(t *testing.T) string {
	t.Helper()

	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Night Watch</dc:title>
    <dc:creator>A. Writer</dc:creator>
    <dc:language>en</dc:language>
    <meta name="cover" content="cov"/>
  </metadata>
  <manifest>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="cov" href="cover.png" media-type="image/png"/>
  </manifest>
  <spine>
    <itemref idref="ch1"/>
  </spine>
</package>`

	container := `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

	chapter := `<html><body><h1>One</h1><p>The bell struck midnight.</p></body></html>`

	img := image.NewRGBA(image.Rect(0, 0, 40, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 4), B: 200, A: 255})
		}
	}
	var imgBuf bytes.Buffer
	require.NoError(t, png.Encode(&imgBuf, img))

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range map[string][]byte{
		"mimetype":               []byte("application/epub+zip"),
		"META-INF/container.xml": []byte(container),
		"content.opf":            []byte(opf),
		"ch1.xhtml":              []byte(chapter),
		"cover.png":              imgBuf.Bytes(),
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "night-watch.epub")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}
