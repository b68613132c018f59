// Package domain contains the core domain models for the Inkwell server.
package domain

import "time"

// Book formats recognized by the library.
const (
	FormatEPUB = "epub"
	FormatText = "txt"
)

// Book is an ingested ebook with its extracted content and metadata.
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language,omitempty"`
	Format      string    `json:"format"`
	Encoding    string    `json:"encoding,omitempty"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ModTime     int64     `json:"modTime"`
	CoverPath   string    `json:"coverPath,omitempty"`
	BlurHash    string    `json:"blurHash,omitempty"`
	Chapters    []Chapter `json:"chapters"`
	ScannedAt   time.Time `json:"scannedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Chapter is one ordered chapter of a book.
type Chapter struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	StartLine int    `json:"startLine"`
}

// Summary returns a copy of the book without chapter contents, for list
// endpoints and search indexing.
func (b *Book) Summary() Book {
	summary := *b
	summary.Chapters = make([]Chapter, len(b.Chapters))
	for i, ch := range b.Chapters {
		summary.Chapters[i] = Chapter{Title: ch.Title, StartLine: ch.StartLine}
	}
	return summary
}

// ChapterCount returns the number of chapters.
func (b *Book) ChapterCount() int {
	return len(b.Chapters)
}
