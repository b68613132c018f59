package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/ingest"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/media/covers"
	"github.com/inkwellapp/inkwell-server/internal/ratelimit"
	"github.com/inkwellapp/inkwell-server/internal/scanner"
)

// ProvideIngestor provides the file ingestor.
func ProvideIngestor(i do.Injector) (*ingest.Ingestor, error) {
	coverProc := do.MustInvoke[*covers.Processor](i)
	log := do.MustInvoke[*logger.Logger](i)

	return ingest.New(coverProc, log.Logger), nil
}

// ProvideScanner provides the library scanner. Scans run at full speed;
// the HTTP layer throttles how often they can be triggered.
func ProvideScanner(i do.Injector) (*scanner.Scanner, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	ingestor := do.MustInvoke[*ingest.Ingestor](i)
	log := do.MustInvoke[*logger.Logger](i)

	return scanner.NewScanner(storeHandle.Store, ingestor, nil, log.Logger), nil
}

// ProvideScanLimiter provides the per-client limiter for scan triggers.
func ProvideScanLimiter(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return ratelimit.New(cfg.Scanner.ScanRPS, cfg.Scanner.ScanBurst), nil
}

// RunStartupScan kicks off a background library scan so books added or
// removed while the server was down are picked up. No-op when no library
// path is configured.
func RunStartupScan(i do.Injector) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.Library.EbookPath == "" {
		return
	}

	sc := do.MustInvoke[*scanner.Scanner](i)
	log := do.MustInvoke[*logger.Logger](i)

	go func() {
		result, err := sc.Scan(context.Background(), cfg.Library.EbookPath, scanner.ScanOptions{
			Workers: cfg.Scanner.Workers,
		})
		if err != nil {
			log.Error("Startup scan failed", "error", err)
			return
		}
		log.Info("Startup scan finished",
			"added", result.Added,
			"updated", result.Updated,
			"removed", result.Removed,
			"skipped", result.Skipped,
		)
	}()
}
