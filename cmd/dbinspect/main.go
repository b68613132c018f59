// Command dbinspect dumps summary statistics from an Inkwell database.
// Opens the store read-only so it can run against a live server's data.
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		dbPath = filepath.Join(home, "Inkwell", "data", "db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	bookCount := 0
	byFormat := make(map[string]int)
	booksWithCovers := 0
	totalChapters := 0
	shown := 0

	prefix := []byte("book:")
	err = db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(val []byte) error {
				var book domain.Book
				if err := json.Unmarshal(val, &book); err != nil {
					return err
				}

				bookCount++
				byFormat[book.Format]++
				totalChapters += len(book.Chapters)
				if book.CoverPath != "" {
					booksWithCovers++
				}

				if shown < 3 {
					shown++
					fmt.Printf("Book: %s\n", book.Title)
					fmt.Printf("  ID: %s\n", book.ID)
					fmt.Printf("  Author: %s\n", book.Author)
					fmt.Printf("  Format: %s\n", book.Format)
					fmt.Printf("  Path: %s\n", book.Path)
					fmt.Printf("  Chapters: %d\n", len(book.Chapters))
					for i, ch := range book.Chapters {
						if i >= 5 {
							fmt.Printf("    ... and %d more chapters\n", len(book.Chapters)-5)
							break
						}
						fmt.Printf("    [%d] %s (line %d)\n", i, ch.Title, ch.StartLine)
					}
					fmt.Println()
				}

				return nil
			})
			if err != nil {
				log.Printf("Error reading book %s: %v", key, err)
			}
		}
		return nil
	})

	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Total books: %d\n", bookCount)
	for format, count := range byFormat {
		fmt.Printf("  %s: %d\n", format, count)
	}
	fmt.Printf("Books with covers: %d\n", booksWithCovers)
	fmt.Printf("Total chapters: %d\n", totalChapters)
	if bookCount > 0 {
		fmt.Printf("Average chapters per book: %.1f\n", float64(totalChapters)/float64(bookCount))
	}
}
