// Package bootstrap assembles a Service from configuration. The server and
// the export CLI share it.
package bootstrap

import (
	"context"
	"fmt"

	"ceassist/internal/approvals"
	"ceassist/internal/config"
	"ceassist/internal/database"
	"ceassist/internal/dataset"
	"ceassist/internal/events"
	"ceassist/internal/export"
	"ceassist/internal/service"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// App is a wired Service and, for SQL approval stores, its database.
type App struct {
	Service *service.Service
	DB      *sqlx.DB
}

// New validates cfg and builds the approval store, event publisher and
// service it describes.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, db, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("approval_store", cfg.ApprovalStore).Msg("Approval store ready")

	svc := service.New(service.Options{
		Source:          dataset.NewFileSource(cfg.DatasetPath, cfg.CRMPath, logger),
		Store:           store,
		Artifact:        export.NewArtifact(cfg.ExportPath),
		Publisher:       newPublisher(cfg, logger),
		Logger:          logger,
		DefaultApprover: cfg.DefaultApprover,
		SnapshotTTL:     cfg.ExportCacheDuration(),
	})
	return &App{Service: svc, DB: db}, nil
}

// Close releases the approval store and publisher.
func (a *App) Close() error {
	return a.Service.Close()
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (approvals.Store, *sqlx.DB, error) {
	switch cfg.ApprovalStore {
	case config.StoreMemory:
		return approvals.NewMemoryStore(), nil, nil
	case config.StoreFile:
		return approvals.NewFileStore(cfg.ApprovalsPath, logger), nil, nil
	case config.StoreSQLite:
		return openSQLStore(ctx, cfg.SQLiteURL(), logger)
	case config.StorePostgres, config.StoreMySQL:
		return openSQLStore(ctx, cfg.DatabaseURL, logger)
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store, err := approvals.NewRedisStore(ctx, client, cfg.RedisKey, logger)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown approval store %q", cfg.ApprovalStore)
	}
}

func openSQLStore(ctx context.Context, url string, logger zerolog.Logger) (approvals.Store, *sqlx.DB, error) {
	db, err := database.New(url)
	if err != nil {
		return nil, nil, err
	}
	store, err := approvals.NewSQLStore(ctx, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

func newPublisher(cfg *config.Config, logger zerolog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NopPublisher{}
	}
	logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("Publishing approval events to Kafka")
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
}
