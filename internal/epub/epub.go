// Package epub reads EPUB files using the library's own archive reader.
// It extracts metadata, spine-ordered chapter text, and the cover image.
package epub

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/inkwellapp/inkwell-server/internal/archive"
	"github.com/inkwellapp/inkwell-server/internal/domain"
)

var (
	// ErrInvalidEPUB indicates the file is not a usable EPUB container.
	ErrInvalidEPUB = errors.New("invalid epub file")

	// ErrNoCover indicates no cover image could be located.
	ErrNoCover = errors.New("no cover image found")
)

const containerPath = "META-INF/container.xml"

// Metadata holds the fields extracted from the OPF package document.
type Metadata struct {
	Title       string
	Author      string
	Description string // Markdown; HTML descriptions are converted
	Language    string
}

// CoverImage is a cover located inside the EPUB.
type CoverImage struct {
	Path      string
	MediaType string
	Data      []byte
}

// Book is an open EPUB file. Not safe for concurrent use.
type Book struct {
	ar           *archive.Archive
	opfPath      string
	opfDir       string
	pkg          *opfPackage
	manifestByID map[string]manifestItem
	tocTitles    map[string]string // resolved path -> title
}

// Open opens the EPUB at path. The caller must call Close when done.
func Open(filePath string) (*Book, error) {
	ar, err := archive.Open(filePath)
	if err != nil {
		if errors.Is(err, archive.ErrNotArchive) {
			return nil, fmt.Errorf("%s: %w", filePath, ErrInvalidEPUB)
		}
		return nil, err
	}

	b, err := initBook(ar)
	if err != nil {
		ar.Close()
		return nil, err
	}
	return b, nil
}

func initBook(ar *archive.Archive) (*Book, error) {
	b := &Book{ar: ar}

	opfPath, err := b.locateOPF()
	if err != nil {
		return nil, err
	}
	b.opfPath = opfPath
	b.opfDir = path.Dir(opfPath)

	opfData, err := b.readFile(opfPath)
	if err != nil {
		return nil, fmt.Errorf("read OPF %s: %w", opfPath, err)
	}

	pkg, err := parseOPF(opfData)
	if err != nil {
		return nil, err
	}
	b.pkg = pkg

	b.manifestByID = make(map[string]manifestItem, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		b.manifestByID[item.ID] = item
	}

	b.loadTOCTitles()

	return b, nil
}

// Close releases the underlying archive.
func (b *Book) Close() error {
	return b.ar.Close()
}

// locateOPF finds the OPF path via container.xml, falling back to scanning
// the archive for the first .opf entry.
func (b *Book) locateOPF() (string, error) {
	if data, err := b.readFile(containerPath); err == nil {
		return parseContainer(data)
	}

	for _, e := range b.ar.Entries() {
		if strings.HasSuffix(strings.ToLower(e.Path), ".opf") {
			return e.Path, nil
		}
	}
	return "", fmt.Errorf("no OPF file found: %w", ErrInvalidEPUB)
}

// readFile reads an archive entry by path. Exact match first, then a
// case-insensitive scan for sloppy EPUBs.
func (b *Book) readFile(name string) ([]byte, error) {
	entry, ok := b.ar.Lookup(name)
	if !ok {
		lower := strings.ToLower(name)
		for _, e := range b.ar.Entries() {
			if strings.ToLower(e.Path) == lower {
				entry = e
				ok = true
				break
			}
		}
	}
	if !ok {
		return nil, fmt.Errorf("entry not found: %s", name)
	}
	return b.ar.ExtractBytes(entry)
}

// resolvePath resolves an href relative to the OPF directory.
func (b *Book) resolvePath(href string) string {
	if href == "" {
		return ""
	}
	if b.opfDir == "." {
		return href
	}
	return path.Join(b.opfDir, href)
}

// loadTOCTitles parses the NCX named by the spine toc attribute, falling
// back to any manifest item with the NCX media type.
func (b *Book) loadTOCTitles() {
	var ncxItem manifestItem
	if item, ok := b.manifestByID[b.pkg.Spine.Toc]; ok {
		ncxItem = item
	} else {
		for _, item := range b.pkg.Manifest.Items {
			if strings.EqualFold(item.MediaType, "application/x-dtbncx+xml") {
				ncxItem = item
				break
			}
		}
	}
	if ncxItem.Href == "" {
		return
	}

	data, err := b.readFile(b.resolvePath(ncxItem.Href))
	if err != nil {
		return
	}

	relative := parseNCXTitles(data)
	b.tocTitles = make(map[string]string, len(relative))
	for href, title := range relative {
		b.tocTitles[b.resolvePath(href)] = title
	}
}

// Metadata returns the OPF metadata. HTML in the description is converted
// to Markdown.
func (b *Book) Metadata() Metadata {
	md := Metadata{}
	if len(b.pkg.Metadata.Titles) > 0 {
		md.Title = strings.TrimSpace(b.pkg.Metadata.Titles[0])
	}
	if len(b.pkg.Metadata.Creators) > 0 {
		md.Author = strings.TrimSpace(b.pkg.Metadata.Creators[0])
	}
	if len(b.pkg.Metadata.Languages) > 0 {
		md.Language = strings.TrimSpace(b.pkg.Metadata.Languages[0])
	}
	if len(b.pkg.Metadata.Descriptions) > 0 {
		md.Description = htmlToMarkdown(strings.TrimSpace(b.pkg.Metadata.Descriptions[0]))
	}
	return md
}

// Chapters extracts the spine documents in order as plain-text chapters.
// Titles come from the NCX table of contents when present, then the first
// heading in the document, then a positional fallback. Spine items that
// fail to extract or contain no text are skipped.
func (b *Book) Chapters() ([]domain.Chapter, error) {
	chapters := make([]domain.Chapter, 0, len(b.pkg.Spine.ItemRefs))
	line := 0

	for _, ref := range b.pkg.Spine.ItemRefs {
		item, ok := b.manifestByID[ref.IDRef]
		if !ok || item.Href == "" {
			continue
		}

		docPath := b.resolvePath(item.Href)
		data, err := b.readFile(docPath)
		if err != nil {
			continue
		}

		text, err := extractText(data)
		if err != nil || text == "" {
			continue
		}

		title := b.tocTitles[docPath]
		if title == "" {
			title = firstHeading(data)
		}
		if title == "" {
			title = fmt.Sprintf("Chapter %d", len(chapters)+1)
		}

		chapters = append(chapters, domain.Chapter{
			Title:     title,
			Content:   text,
			StartLine: line,
		})
		line += strings.Count(text, "\n") + 1
	}

	if len(chapters) == 0 {
		return nil, fmt.Errorf("no readable spine content: %w", ErrInvalidEPUB)
	}
	return chapters, nil
}

// Cover locates the cover image. Strategies in priority order:
//  1. EPUB 3 manifest item with properties="cover-image"
//  2. EPUB 2 <meta name="cover" content="ID"/> manifest lookup
//  3. Manifest item whose ID or href contains "cover" with an image media type
func (b *Book) Cover() (CoverImage, error) {
	if item := b.coverFromProperties(); item != nil {
		return b.loadCover(*item)
	}
	if item := b.coverFromMeta(); item != nil {
		return b.loadCover(*item)
	}
	if item := b.coverFromHeuristic(); item != nil {
		return b.loadCover(*item)
	}
	return CoverImage{}, ErrNoCover
}

func (b *Book) coverFromProperties() *manifestItem {
	for i, item := range b.pkg.Manifest.Items {
		for _, prop := range strings.Fields(item.Properties) {
			if prop == "cover-image" {
				return &b.pkg.Manifest.Items[i]
			}
		}
	}
	return nil
}

func (b *Book) coverFromMeta() *manifestItem {
	for _, m := range b.pkg.Metadata.Metas {
		if strings.EqualFold(m.Name, "cover") && m.Content != "" {
			if item, ok := b.manifestByID[m.Content]; ok && isImageMediaType(item.MediaType) {
				return &item
			}
		}
	}
	return nil
}

func (b *Book) coverFromHeuristic() *manifestItem {
	for i, item := range b.pkg.Manifest.Items {
		if !isImageMediaType(item.MediaType) {
			continue
		}
		if containsFold(item.ID, "cover") || containsFold(item.Href, "cover") {
			return &b.pkg.Manifest.Items[i]
		}
	}
	return nil
}

func (b *Book) loadCover(item manifestItem) (CoverImage, error) {
	imgPath := b.resolvePath(item.Href)
	data, err := b.readFile(imgPath)
	if err != nil {
		return CoverImage{}, err
	}
	return CoverImage{
		Path:      imgPath,
		MediaType: item.MediaType,
		Data:      data,
	}, nil
}

func isImageMediaType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
