package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/poimap/internal/pkg/config"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding NNN_name.{up,down}.sql files")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("usage: migrate [-dir migrations] <up|down>")
	}

	cfg, err := config.Load("poimap-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	files, err := migrationFiles(*dir, flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	if err := run(ctx, pool, files); err != nil {
		log.Fatal(err)
	}
	log.Printf("%d migrations applied (%s)", len(files), flag.Arg(0))
}

// migrationFiles lists the files for direction in apply order:
// ascending for up, descending for down.
func migrationFiles(dir, direction string) ([]string, error) {
	switch direction {
	case "up", "down":
	default:
		return nil, fmt.Errorf("unknown command: %s", direction)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*."+direction+".sql"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s migrations in %s", direction, dir)
	}

	sort.Strings(files)
	if direction == "down" {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}
	return files, nil
}

func run(ctx context.Context, pool *pgxpool.Pool, files []string) error {
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
		fmt.Printf("OK  %s\n", f)
	}
	return nil
}
