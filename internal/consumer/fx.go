package consumer

import (
	"context"

	"github.com/autovisite/reportsvc/internal/broker"
	"go.uber.org/fx"
)

var Module = fx.Module("consumer",
	fx.Provide(New),
	fx.Invoke(registerLifecycle),
)

// Subscriptions start after the broker's OnStart hook has connected.
func registerLifecycle(lc fx.Lifecycle, c *Consumer, client *broker.Client) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.Start(client)
			return nil
		},
	})
}
