// Command ingest runs the ingestion pipeline on a single ebook file and
// prints what the server would store, without touching any database. Useful
// for debugging chapter detection and metadata extraction.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/ingest"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: ingest <ebook-file>")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	// No cover processor: metadata and chapters only.
	ing := ingest.New(nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	book, err := ing.Ingest(ctx, os.Args[1])
	if err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Title:    %s\n", book.Title)
	fmt.Printf("Author:   %s\n", book.Author)
	fmt.Printf("Language: %s\n", book.Language)
	fmt.Printf("Format:   %s\n", book.Format)
	if book.Encoding != "" {
		fmt.Printf("Encoding: %s\n", book.Encoding)
	}
	fmt.Printf("Chapters: %d\n", len(book.Chapters))
	for i, ch := range book.Chapters {
		fmt.Printf("  [%d] %s (line %d, %d chars)\n", i, ch.Title, ch.StartLine, len(ch.Content))
	}
}
