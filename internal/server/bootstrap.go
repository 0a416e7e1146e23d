package server

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ejg/cestas/internal/config"
	"github.com/ejg/cestas/internal/infra/mq"
	"github.com/ejg/cestas/internal/infra/redis"
	"github.com/ejg/cestas/internal/notify"
	"github.com/ejg/cestas/internal/repository/mysql"
	"github.com/ejg/cestas/internal/storage"
)

// Setup connects the shared infrastructure and wires Deps for a binary.
// Redis and RabbitMQ are optional; MySQL is not. Outside development mode
// the default JWT secret is refused.
func Setup(cfg *config.Config) (*Deps, error) {
	if err := cfg.CheckSecrets(); err != nil {
		if !cfg.Log.Development {
			return nil, err
		}
		zap.L().Warn("signing tokens with an insecure key", zap.Error(err))
	}
	db := mysql.Init(&cfg.MySQL)
	cache := redis.Init(&cfg.Redis)

	var notifier notify.Notifier = notify.LogNotifier{}
	if conn := mq.Init(&cfg.RabbitMQ); conn != nil {
		qn, err := notify.NewQueueNotifier(conn, cfg.Notify.Queue)
		if err != nil {
			zap.L().Warn("notification queue unavailable, logging instead", zap.Error(err))
		} else {
			notifier = qn
		}
	}

	store, err := storage.NewLocalStore(cfg.Storage.Dir, cfg.Storage.BaseURL, cfg.Storage.MaxUploadMB<<20)
	if err != nil {
		return nil, fmt.Errorf("open file store: %w", err)
	}
	return NewDeps(cfg, db, cache, notifier, store), nil
}
