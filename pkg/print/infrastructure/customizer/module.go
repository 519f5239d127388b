package customizer

import (
	"go.uber.org/fx"

	"github.com/tigerroll/layercure/pkg/print/core/application/port"
)

// Module provides the configured customizers. The Store is also exposed for previews.
var Module = fx.Options(
	fx.Provide(NewStoreFromConfig),
	fx.Provide(func(s *Store) port.CustomizerResolver { return s }),
)
