package scheduler

import (
	"context"

	"github.com/autovisite/reportsvc/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(
		NewRedisClient,
		NewLocker,
		NewReminderWorker,
	),
	fx.Invoke(registerLifecycle),
)

// NewRedisClient returns nil when no address is configured; the worker then
// sweeps without a distributed lock.
func NewRedisClient(cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info("redis not configured, reminder sweeps run unlocked")
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
}

func registerLifecycle(lc fx.Lifecycle, w *ReminderWorker, client *redis.Client) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go w.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			if client != nil {
				return client.Close()
			}
			return nil
		},
	})
}
