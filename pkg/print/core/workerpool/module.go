package workerpool

import (
	"context"

	"go.uber.org/fx"
)

// NewPoolProvider creates the shared pool and drains it when the application stops.
func NewPoolProvider(lc fx.Lifecycle) *Pool {
	p := NewPool()
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return p.Close(ctx)
		},
	})
	return p
}

// Module provides the shared *Pool.
var Module = fx.Options(
	fx.Provide(NewPoolProvider),
)
