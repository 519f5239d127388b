package lifecycle

import (
	"go.uber.org/fx"

	"github.com/tigerroll/layercure/pkg/print/core/application/port"
)

// Module provides StandardLifecycle as the port.PrintLifecycle.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewStandardLifecycle,
		fx.As(new(port.PrintLifecycle)),
	)),
)
