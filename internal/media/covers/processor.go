package covers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// extensionByFormat maps image.Decode format names to stored file extensions.
var extensionByFormat = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

// Processor validates, stores, and fingerprints cover images.
type Processor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(storage *Storage, logger *slog.Logger) *Processor {
	return &Processor{
		storage: storage,
		logger:  logger,
	}
}

// Process decodes the cover data, stores the original bytes under the book
// ID, and computes a BlurHash placeholder.
// Returns the stored path and the BlurHash.
func (p *Processor) Process(ctx context.Context, bookID string, data []byte) (string, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("decode cover image: %w", err)
	}

	ext, ok := extensionByFormat[format]
	if !ok {
		return "", "", fmt.Errorf("unsupported cover image format: %s", format)
	}

	name := bookID + ext
	if err := p.storage.Save(name, data); err != nil {
		return "", "", fmt.Errorf("save cover: %w", err)
	}

	hash, err := computeBlurHash(img)
	if err != nil {
		// A cover without a placeholder is still a cover.
		p.logger.Warn("failed to compute blurhash",
			"book_id", bookID,
			"error", err,
		)
		hash = ""
	}

	p.logger.Debug("processed cover",
		"book_id", bookID,
		"format", format,
		"size", len(data),
	)

	return p.storage.Path(name), hash, nil
}
