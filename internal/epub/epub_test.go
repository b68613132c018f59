package epub

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>The Voyage Out</dc:title>
    <dc:creator>Virginia Woolf</dc:creator>
    <dc:language>en</dc:language>
    <dc:description>&lt;p&gt;A ship sails to &lt;b&gt;South America&lt;/b&gt;.&lt;/p&gt;</dc:description>
    <meta name="cover" content="cover-img"/>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="ch1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="text/ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="cover-img" href="images/cover.jpg" media-type="image/jpeg"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
</package>`

const testNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="n1" playOrder="1">
      <navLabel><text>The Departure</text></navLabel>
      <content src="text/ch1.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

const testCh1 = `<html><head><title>ignored</title></head>
<body><h1>Chapter One</h1><p>The ship left the harbour.</p><p>Rain fell all night.</p></body></html>`

const testCh2 = `<html><body><h2>Santa Marina</h2><p>They arrived at last.</p></body></html>`

var testCoverData = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

// writeTestEPUB assembles a minimal EPUB on disk and returns its path.
func writeTestEPUB(t *testing.T, files map[string][]byte) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	write := func(name string, data []byte) {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}

	write("mimetype", []byte("application/epub+zip"))
	for name, data := range files {
		write(name, data)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "book.epub")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func defaultTestFiles() map[string][]byte {
	return map[string][]byte{
		"META-INF/container.xml": []byte(testContainer),
		"OEBPS/content.opf":      []byte(testOPF),
		"OEBPS/toc.ncx":          []byte(testNCX),
		"OEBPS/text/ch1.xhtml":   []byte(testCh1),
		"OEBPS/text/ch2.xhtml":   []byte(testCh2),
		"OEBPS/images/cover.jpg": testCoverData,
	}
}

func TestOpen_Metadata(t *testing.T) {
	path := writeTestEPUB(t, defaultTestFiles())

	book, err := Open(path)
	require.NoError(t, err)
	defer book.Close()

	md := book.Metadata()
	assert.Equal(t, "The Voyage Out", md.Title)
	assert.Equal(t, "Virginia Woolf", md.Author)
	assert.Equal(t, "en", md.Language)
	assert.Contains(t, md.Description, "A ship sails to")
	assert.NotContains(t, md.Description, "<p>", "HTML should be converted to Markdown")
	assert.Contains(t, md.Description, "**South America**")
}

func TestChapters_TitlesAndOrder(t *testing.T) {
	path := writeTestEPUB(t, defaultTestFiles())

	book, err := Open(path)
	require.NoError(t, err)
	defer book.Close()

	chapters, err := book.Chapters()
	require.NoError(t, err)
	require.Len(t, chapters, 2)

	// First chapter titled from the NCX.
	assert.Equal(t, "The Departure", chapters[0].Title)
	assert.Contains(t, chapters[0].Content, "The ship left the harbour.")
	assert.Contains(t, chapters[0].Content, "Rain fell all night.")
	assert.Equal(t, 0, chapters[0].StartLine)

	// Second chapter has no NCX entry; falls back to the first heading.
	assert.Equal(t, "Santa Marina", chapters[1].Title)
	assert.Contains(t, chapters[1].Content, "They arrived at last.")
	assert.Greater(t, chapters[1].StartLine, 0)
}

func TestChapters_BlockElementsBreakLines(t *testing.T) {
	path := writeTestEPUB(t, defaultTestFiles())

	book, err := Open(path)
	require.NoError(t, err)
	defer book.Close()

	chapters, err := book.Chapters()
	require.NoError(t, err)

	// h1 and each p are separate lines.
	assert.Equal(t, "Chapter One\nThe ship left the harbour.\nRain fell all night.", chapters[0].Content)
}

func TestCover_FromMetaCover(t *testing.T) {
	path := writeTestEPUB(t, defaultTestFiles())

	book, err := Open(path)
	require.NoError(t, err)
	defer book.Close()

	cover, err := book.Cover()
	require.NoError(t, err)
	assert.Equal(t, "OEBPS/images/cover.jpg", cover.Path)
	assert.Equal(t, "image/jpeg", cover.MediaType)
	assert.Equal(t, testCoverData, cover.Data)
}

func TestCover_NoCover(t *testing.T) {
	files := defaultTestFiles()
	opf := bytes.ReplaceAll(files["OEBPS/content.opf"], []byte(`<meta name="cover" content="cover-img"/>`), nil)
	opf = bytes.ReplaceAll(opf, []byte(`<item id="cover-img" href="images/cover.jpg" media-type="image/jpeg"/>`), nil)
	files["OEBPS/content.opf"] = opf
	delete(files, "OEBPS/images/cover.jpg")
	path := writeTestEPUB(t, files)

	book, err := Open(path)
	require.NoError(t, err)
	defer book.Close()

	_, err = book.Cover()
	assert.ErrorIs(t, err, ErrNoCover)
}

func TestOpen_MissingContainerFallsBackToOPFScan(t *testing.T) {
	files := defaultTestFiles()
	delete(files, "META-INF/container.xml")
	path := writeTestEPUB(t, files)

	book, err := Open(path)
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, "The Voyage Out", book.Metadata().Title)
}

func TestOpen_NotAnEPUB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.epub")
	require.NoError(t, os.WriteFile(path, []byte("just some text, not a zip"), 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrInvalidEPUB)
}

func TestOpen_NoOPF(t *testing.T) {
	path := writeTestEPUB(t, map[string][]byte{
		"random.txt": []byte("nothing here"),
	})

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrInvalidEPUB)
}
