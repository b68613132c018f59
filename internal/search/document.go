// Package search provides full-text search over the library using Bleve.
// Books are indexed with their title, author, description, and chapter
// titles so readers can find a book by any heading inside it.
package search

import (
	"strings"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

// Document is the structure indexed by Bleve for each book.
//
// Chapter titles are denormalized into one field so a single match query
// covers them. Chapter contents are deliberately excluded: indexing full
// text would balloon the index for libraries of large novels.
type Document struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author,omitempty"`
	Description   string `json:"description,omitempty"`
	Language      string `json:"language,omitempty"`
	Format        string `json:"format"`
	ChapterTitles string `json:"chapter_titles,omitempty"`
	ChapterCount  int    `json:"chapter_count"`
	CreatedAt     int64  `json:"created_at"` // Unix millis
	UpdatedAt     int64  `json:"updated_at"` // Unix millis
}

// DocumentFromBook builds the search document for a book.
func DocumentFromBook(book *domain.Book) *Document {
	titles := make([]string, 0, len(book.Chapters))
	for _, ch := range book.Chapters {
		titles = append(titles, strings.TrimSpace(ch.Title))
	}

	return &Document{
		ID:            book.ID,
		Title:         book.Title,
		Author:        book.Author,
		Description:   book.Description,
		Language:      book.Language,
		Format:        book.Format,
		ChapterTitles: strings.Join(titles, "\n"),
		ChapterCount:  len(book.Chapters),
		CreatedAt:     book.CreatedAt.UnixMilli(),
		UpdatedAt:     book.UpdatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *Document) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":            d.ID,
		"title":         d.Title,
		"format":        d.Format,
		"chapter_count": d.ChapterCount,
		"created_at":    d.CreatedAt,
		"updated_at":    d.UpdatedAt,
	}

	if d.Author != "" {
		m["author"] = d.Author
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Language != "" {
		m["language"] = d.Language
	}
	if d.ChapterTitles != "" {
		m["chapter_titles"] = d.ChapterTitles
	}

	return m
}
