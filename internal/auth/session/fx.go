package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/taskflow/internal/clock"
	"github.com/smallbiznis/taskflow/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("auth.session",
	fx.Provide(NewManager),
	fx.Provide(NewStateStore),
)

type StateStoreParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       config.Config
	DB        *gorm.DB
	Clock     clock.Clock
	Log       *zap.Logger
}

// NewStateStore selects the session state backend from configuration.
func NewStateStore(p StateStoreParams) StateStore {
	if p.Cfg.SessionStore != config.SessionStoreRedis {
		return NewDBStateStore(p.DB, p.Clock)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     p.Cfg.RedisAddr,
		Password: p.Cfg.RedisPassword,
		DB:       p.Cfg.RedisDB,
	})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				p.Log.Warn("redis session store unreachable", zap.String("addr", p.Cfg.RedisAddr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	ttl := time.Duration(p.Cfg.SessionTTLHours) * time.Hour
	return NewRedisStateStore(client, ttl)
}
