package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/search"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index and wires it to the
// store so book writes keep the index in sync.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := search.NewIndex(search.Options{
		DataPath: filepath.Join(cfg.Data.BasePath, "search"),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	storeHandle.SetSearchIndexer(index)

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// TriggerSearchReindexIfNeeded backfills the search index when it is empty
// but the store holds books, which happens after an index rebuild from a
// mapping change. Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	go func() {
		ctx := context.Background()
		params := store.DefaultPaginationParams()
		indexed := 0

		for {
			page, err := storeHandle.ListBooks(ctx, params)
			if err != nil {
				log.Error("Search reindex failed", "error", err)
				return
			}
			if len(page.Items) == 0 {
				break
			}

			books := make([]*domain.Book, len(page.Items))
			for n := range page.Items {
				books[n] = &page.Items[n]
			}
			if err := indexHandle.IndexBooks(ctx, books); err != nil {
				log.Error("Search reindex failed", "error", err)
				return
			}
			indexed += len(books)

			if !page.HasMore {
				break
			}
			params.Cursor = page.NextCursor
		}

		if indexed > 0 {
			log.Info("Search reindex completed", "documents", indexed)
		}
	}()
}
