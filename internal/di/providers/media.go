package providers

import (
	"github.com/samber/do/v2"

	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/media/covers"
)

// ProvideCoverStorage provides the cover image file store.
func ProvideCoverStorage(i do.Injector) (*covers.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := covers.NewStorage(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	log.Info("Cover storage initialized", "path", storage.Path(""))

	return storage, nil
}

// ProvideCoverProcessor provides the cover image processor.
func ProvideCoverProcessor(i do.Injector) (*covers.Processor, error) {
	storage := do.MustInvoke[*covers.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return covers.NewProcessor(storage, log.Logger), nil
}
