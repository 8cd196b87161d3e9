package broker

import (
	"context"

	"github.com/autovisite/reportsvc/internal/events"
	"go.uber.org/fx"
)

var Module = fx.Module("broker",
	fx.Provide(
		NewConfig,
		New,
		NewPublisher,
		func(p *Publisher) events.Publisher { return p },
	),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, client *Client) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Connect(ctx)
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
}
