// Package backend opens the storage selected by configuration. Both the API
// server and the import command share it.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"costlaw/api/internal/backup"
	"costlaw/api/internal/config"
	"costlaw/api/internal/logging"
	"costlaw/api/internal/store"
)

// OpenStorage returns the configured store. Closing it releases the database
// handle or waits for pending snapshot uploads.
func OpenStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Storage, error) {
	if cfg.StorageDriver == config.DriverMemory {
		return openMemory(ctx, cfg, logger)
	}

	dialect, err := store.DialectFor(cfg.StorageDriver)
	if err != nil {
		return nil, err
	}
	dsn := cfg.DatabaseURL
	if dialect.Name == store.DriverSQLite {
		dsn = cfg.SQLitePath
	}
	logger.Info("opening database",
		zap.String("driver", dialect.Name),
		zap.String("dsn", logging.SanitizeConnectionString(dsn)),
	)

	db, err := store.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := store.ApplyMigrations(ctx, db, dialect, cfg.MigrationsDir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	return store.NewSQLStore(db, dialect), nil
}

func openMemory(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Storage, error) {
	opts := store.SnapshotOptions{
		Path:   cfg.CasesSnapshotPath,
		Logger: logger,
	}
	if cfg.Snapshot.Enabled() && cfg.CasesSnapshotPath != "" {
		sink, err := backup.NewMinioSink(ctx, backup.Config{
			Endpoint:  cfg.Snapshot.Endpoint,
			AccessKey: cfg.Snapshot.AccessKey,
			SecretKey: cfg.Snapshot.SecretKey,
			UseSSL:    cfg.Snapshot.UseSSL,
			Bucket:    cfg.Snapshot.Bucket,
			History:   cfg.Snapshot.History,
		})
		if err != nil {
			return nil, fmt.Errorf("snapshot bucket: %w", err)
		}
		restored, err := backup.RestoreIfMissing(ctx, sink, store.SnapshotName(cfg.CasesSnapshotPath), cfg.CasesSnapshotPath)
		if err != nil {
			logger.Warn("snapshot restore failed", zap.Error(err))
		} else if restored {
			logger.Info("case snapshot restored from bucket", zap.String("bucket", cfg.Snapshot.Bucket))
		}
		opts.Sink = sink
	}
	logger.Info("using in-memory storage", zap.String("snapshot", cfg.CasesSnapshotPath))
	return store.NewMemoryStore(opts), nil
}
