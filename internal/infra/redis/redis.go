package redis

import (
	"sync"

	radix "github.com/mediocregopher/radix/v3"
	"go.uber.org/zap"

	"github.com/ejg/cestas/internal/config"
)

var (
	client radix.Client
	once   sync.Once
)

// Init opens the shared Redis pool. It returns nil when no address is
// configured or the server is unreachable; callers treat nil as "no cache".
func Init(cfg *config.RedisConfig) radix.Client {
	once.Do(func() {
		if cfg.Addr == "" {
			zap.L().Info("redis disabled")
			return
		}
		size := cfg.PoolSize
		if size <= 0 {
			size = 10
		}
		pool, err := radix.NewPool("tcp", cfg.Addr, size)
		if err != nil {
			zap.L().Warn("redis unavailable, caches disabled", zap.String("addr", cfg.Addr), zap.Error(err))
			return
		}
		client = pool
	})
	return client
}
