// Command importcases loads a JSON export of cases into the configured store
// without going through the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"costlaw/api/internal/app"
	"costlaw/api/internal/backend"
	"costlaw/api/internal/caselaw"
	"costlaw/api/internal/config"
	"costlaw/api/internal/logging"
	"costlaw/api/internal/store"
)

func main() {
	file := flag.String("file", "", "path to a JSON array of cases (or an object with a \"cases\" array)")
	reset := flag.Bool("reset", false, "delete every existing case before importing")
	verbose := flag.Bool("v", false, "list every warning and rejection")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "importcases: -file is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadStorage()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), cfg, logger, *file, *reset, *verbose); err != nil {
		logger.Error("import failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, file string, reset, verbose bool) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	raws, err := caselaw.ParseRawCases(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}

	dataStore, err := backend.OpenStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := dataStore.Close(); err != nil {
			logger.Warn("store close failed", zap.Error(err))
		}
	}()

	if reset {
		removed, err := deleteAllCases(ctx, dataStore)
		if err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		logger.Info("existing cases removed", zap.Int("count", removed))
	}

	service := app.New(app.Options{Config: cfg, Store: dataStore, Logger: logger})
	report, err := service.ImportCases(ctx, raws)
	if err != nil {
		return err
	}

	fmt.Printf("imported: %d\nskipped:  %d\nrejected: %d\nwarnings: %d\n",
		len(report.Imported), len(report.Skipped), len(report.Rejected), len(report.Warnings))
	if verbose {
		for _, slug := range report.Skipped {
			fmt.Printf("  skipped  %s (slug exists)\n", slug)
		}
		for _, r := range report.Rejected {
			fmt.Printf("  rejected #%d %s: %s\n", r.Index, r.Title, r.Reason)
		}
		for _, w := range report.Warnings {
			fmt.Printf("  warning  #%d %s: %s\n", w.Index, w.Title, w.Message)
		}
	}
	return nil
}

func deleteAllCases(ctx context.Context, st store.Storage) (int, error) {
	cases, err := st.ListCases(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range cases {
		if err := st.DeleteCase(ctx, c.ID); err != nil {
			return 0, fmt.Errorf("delete case %d: %w", c.ID, err)
		}
	}
	return len(cases), nil
}
