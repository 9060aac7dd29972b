package storage

import (
	"context"
	"fmt"

	"github.com/project-tktt/go-vacancies/internal/config"
	"github.com/project-tktt/go-vacancies/pkg/logging"
)

// Open builds the backend selected by cfg.Storage.Backend
func Open(ctx context.Context, cfg *config.Config, logger *logging.Logger) (Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Storage.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.Storage.FilePath, logger), nil
	case config.BackendPostgres:
		s, err := NewPostgresStore(ctx, cfg.Postgres.ConnectionString, cfg.Postgres.TableName, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres storage: %w", err)
		}
		return s, nil
	case config.BackendElasticsearch:
		s, err := NewElasticsearchStore(ctx, cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Index, logger)
		if err != nil {
			return nil, fmt.Errorf("elasticsearch storage: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
