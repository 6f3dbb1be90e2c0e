package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/poimap/internal/adapters/postgres"
	"github.com/samirrijal/poimap/internal/core/domain"
	"github.com/samirrijal/poimap/internal/core/usecases"
	"github.com/samirrijal/poimap/internal/pkg/config"
	"github.com/samirrijal/poimap/internal/pkg/logging"
	"github.com/samirrijal/poimap/internal/pkg/metrics"
)

const (
	maxParallelFiles = 4
	batchSize        = 500
)

// importer is the part of POIService the importer needs.
type importer interface {
	Import(ctx context.Context, pois []domain.PointOfInterest) (stored, rejected int, err error)
}

type result struct {
	files, failed    int
	stored, rejected int64
}

// checkDriver rejects storage drivers the importer cannot write to. Memory
// storage lives inside the API process, so an import into it would vanish.
func checkDriver(driver string) error {
	if driver != config.DriverPostgres {
		return fmt.Errorf("storage.driver %q is not supported by the importer; set it to %q or use -dry-run", driver, config.DriverPostgres)
	}
	return nil
}

func main() {
	dryRun := flag.Bool("dry-run", false, "parse files without writing to the database")
	flag.Usage = func() {
		_, _ = os.Stderr.WriteString("usage: importer [-dry-run] <dir>\n\nEvery .gpx file below dir is imported; its folder name is the category.\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("poimap-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if !*dryRun {
		if err := checkDriver(cfg.Storage.Driver); err != nil {
			log.Fatalf("config: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	files, err := findGPXFiles(flag.Arg(0))
	if err != nil {
		log.Fatalf("scan %s: %v", flag.Arg(0), err)
	}
	slog.Info("GPX importer starting", "dir", flag.Arg(0), "files", len(files), "dry_run", *dryRun)

	var svc importer
	if !*dryRun {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		svc = usecases.NewPOIService(postgres.NewPOIRepo(db), nil, nil)
	}

	res := importFiles(ctx, svc, files)
	slog.Info("import complete",
		"files", res.files,
		"failed", res.failed,
		"stored", res.stored,
		"rejected", res.rejected,
	)
	if res.failed > 0 {
		os.Exit(1)
	}
}

// importFiles parses files with bounded parallelism and stores their points
// of interest in batches. A nil svc only parses. One bad file does not stop
// the others.
func importFiles(ctx context.Context, svc importer, files []string) result {
	var stored, rejected, failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFiles)

	for _, path := range files {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			n, skipped, err := importFile(ctx, svc, path)
			stored.Add(int64(n))
			rejected.Add(int64(skipped))
			if err != nil {
				failed.Add(1)
				metrics.ImportErrors.Inc()
				slog.Error("import failed", "file", path, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return result{
		files:    len(files),
		failed:   int(failed.Load()),
		stored:   stored.Load(),
		rejected: rejected.Load(),
	}
}

func importFile(ctx context.Context, svc importer, path string) (stored, rejected int, err error) {
	pois, err := parseGPXFile(path)
	if err != nil {
		return 0, 0, err
	}
	category := categoryFor(path)
	slog.Info("parsed file", "file", path, "category", category, "waypoints", len(pois))

	if svc == nil {
		metrics.ImportedPOIs.WithLabelValues(category).Add(float64(len(pois)))
		return len(pois), 0, nil
	}

	for start := 0; start < len(pois); start += batchSize {
		end := min(start+batchSize, len(pois))
		n, skipped, err := svc.Import(ctx, pois[start:end])
		stored += n
		rejected += skipped
		metrics.ImportedPOIs.WithLabelValues(category).Add(float64(n))
		if err != nil {
			return stored, rejected, err
		}
	}
	return stored, rejected, nil
}
