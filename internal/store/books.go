package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

const (
	bookPrefix       = "book:"
	bookByPathPrefix = "idx:books:path:"
)

var (
	ErrBookNotFound = errors.New("book not found")
	ErrBookExists   = errors.New("book already exists")
)

// Book Operations

// CreateBook creates a new book and its path index atomically.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	key := []byte(bookPrefix + book.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check book exists: %w", err)
	}
	if exists {
		return ErrBookExists
	}

	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now

	err = s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(book)
		if err != nil {
			return fmt.Errorf("marshal book: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		pathKey := []byte(bookByPathPrefix + book.Path)
		return txn.Set(pathKey, []byte(book.ID))
	})
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book created",
			slog.String("id", book.ID),
			slog.String("title", book.Title),
			slog.String("path", book.Path),
			slog.Int("chapters", book.ChapterCount()),
		)
	}

	s.indexAsync(ctx, book)
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	key := []byte(bookPrefix + id)

	var book domain.Book
	err := s.get(key, &book)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &book, nil
}

// GetBookByPath retrieves a book by its file path.
// Used during scanning to detect already-ingested files.
func (s *Store) GetBookByPath(ctx context.Context, path string) (*domain.Book, error) {
	pathKey := []byte(bookByPathPrefix + path)

	var bookID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pathKey)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			bookID = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book by path: %w", err)
	}
	return s.GetBook(ctx, bookID)
}

// UpdateBook updates an existing book and keeps the path index in sync.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	key := []byte(bookPrefix + book.ID)

	oldBook, err := s.GetBook(ctx, book.ID)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		book.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(book)
		if err != nil {
			return fmt.Errorf("marshal book: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		if oldBook.Path != book.Path {
			oldPathKey := []byte(bookByPathPrefix + oldBook.Path)
			if err := txn.Delete(oldPathKey); err != nil {
				return err
			}

			newPathKey := []byte(bookByPathPrefix + book.Path)
			if err := txn.Set(newPathKey, []byte(book.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book updated",
			slog.String("id", book.ID),
			slog.String("title", book.Title),
		)
	}

	s.indexAsync(ctx, book)
	return nil
}

// DeleteBook removes a book and its path index.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(bookPrefix + id)); err != nil {
			return err
		}
		return txn.Delete([]byte(bookByPathPrefix + book.Path))
	})
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book deleted",
			slog.String("id", id),
			slog.String("path", book.Path),
		)
	}

	if s.searchIndexer != nil {
		go func() {
			if err := s.searchIndexer.DeleteBook(context.WithoutCancel(ctx), id); err != nil && s.logger != nil {
				s.logger.Warn("failed to remove book from search index", "id", id, "error", err)
			}
		}()
	}
	return nil
}

// ListBooks returns a page of books ordered by ID.
// Chapter contents are stripped; fetch a single book to read chapters.
func (s *Store) ListBooks(ctx context.Context, params PaginationParams) (*PaginatedResult[domain.Book], error) {
	params.Validate()

	startKey, err := DecodeCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	result := &PaginatedResult[domain.Book]{
		Items: make([]domain.Book, 0, params.Limit),
	}

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(bookPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := []byte(bookPrefix)
		if startKey != "" {
			seek = []byte(startKey)
		}

		var lastKey string
		for it.Seek(seek); it.ValidForPrefix([]byte(bookPrefix)); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Skip the cursor key itself; the cursor points at the last
			// item of the previous page.
			if key == startKey {
				continue
			}

			if len(result.Items) >= params.Limit {
				result.HasMore = true
				result.NextCursor = EncodeCursor(lastKey)
				return nil
			}

			var book domain.Book
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &book)
			}); err != nil {
				return fmt.Errorf("unmarshal book %s: %w", key, err)
			}

			result.Items = append(result.Items, book.Summary())
			lastKey = key
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return result, nil
}

// AllBookPaths returns the file path of every stored book, keyed by book ID.
// Used by the scanner to prune books whose files no longer exist.
func (s *Store) AllBookPaths(ctx context.Context) (map[string]string, error) {
	paths := make(map[string]string)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(bookByPathPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			path := strings.TrimPrefix(string(item.Key()), bookByPathPrefix)
			if err := item.Value(func(val []byte) error {
				paths[string(val)] = path
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list book paths: %w", err)
	}
	return paths, nil
}

// indexAsync updates the search index without blocking the store operation.
func (s *Store) indexAsync(ctx context.Context, book *domain.Book) {
	if s.searchIndexer == nil {
		return
	}
	go func() {
		if err := s.searchIndexer.IndexBook(context.WithoutCancel(ctx), book); err != nil && s.logger != nil {
			s.logger.Warn("failed to index book", "id", book.ID, "error", err)
		}
	}()
}
