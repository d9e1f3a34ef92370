package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"imagestudio/internal/gallery"
	"imagestudio/internal/infra"
	"imagestudio/internal/storage"
)

func main() {
	_ = godotenv.Load()

	var (
		dirFlag     string
		rebuildFlag bool
		pushFlag    bool
	)
	flag.StringVar(&dirFlag, "dir", "", "Generated images directory (defaults to GENERATED_DIR)")
	flag.BoolVar(&rebuildFlag, "rebuild", false, "Rebuild metadata.json from the images on disk")
	flag.BoolVar(&pushFlag, "push", false, "Mirror metadata.json into Postgres (requires DATABASE_URL)")
	flag.Parse()

	if !rebuildFlag && !pushFlag {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -rebuild and/or -push")
		os.Exit(2)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	dir := strings.TrimSpace(dirFlag)
	if dir == "" {
		dir = cfg.GeneratedDir
	}

	logger := infra.NewLogger("cli").With().Str("cmd", "gallerysync").Str("dir", dir).Logger()

	files, err := storage.NewFileStore(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", dir, err)
		os.Exit(1)
	}
	store := gallery.NewStore(files, nil, &logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var entries []gallery.Entry
	if rebuildFlag {
		entries, err = store.Rebuild(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to rebuild metadata: %v\n", err)
			os.Exit(1)
		}
		logger.Info().Int("entries", len(entries)).Msg("metadata rebuilt")
	} else {
		entries = store.List(ctx)
	}

	if !pushFlag {
		return
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required for -push")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	mirror := gallery.NewPostgresMirror(infra.NewSQLRunner(pool, logger))
	if err := mirror.EnsureSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare schema: %v\n", err)
		os.Exit(1)
	}
	if err := mirror.Sync(ctx, entries); err != nil {
		fmt.Fprintf(os.Stderr, "failed to sync gallery: %v\n", err)
		os.Exit(1)
	}
	n, err := mirror.Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to count mirrored rows: %v\n", err)
		os.Exit(1)
	}
	logger.Info().Int64("rows", n).Msg("gallery mirrored")
	fmt.Printf("mirrored %d gallery entries\n", n)
}
