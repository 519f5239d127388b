package gorm

import (
	"context"

	"go.uber.org/fx"

	"github.com/tigerroll/layercure/pkg/print/core/config"
	"github.com/tigerroll/layercure/pkg/print/core/domain/repository"
	"github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

// NewHistoryRepositoryProvider opens the configured history database. It yields nil when
// history is disabled.
func NewHistoryRepositoryProvider(lc fx.Lifecycle, cfg *config.Config) (repository.HistoryRepository, error) {
	history := cfg.Host.History
	if !history.Enabled {
		logger.Debugf("Job history is disabled.")
		return nil, nil
	}
	db, err := Open(history.Database, cfg.Host.System.Logging.Level)
	if err != nil {
		return nil, err
	}
	repo, err := NewHistoryRepository(db)
	if err != nil {
		return nil, err
	}
	logger.Infof("Job history is stored in %s database '%s'.", history.Database.Type, history.Database.Database)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return repo.Close()
		},
	})
	return repo, nil
}

// Module provides the job history repository.
var Module = fx.Options(
	fx.Provide(NewHistoryRepositoryProvider),
)
