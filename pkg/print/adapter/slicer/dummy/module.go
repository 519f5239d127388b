package dummy

import (
	"go.uber.org/fx"

	"github.com/tigerroll/layercure/pkg/print/core/application/port"
)

// Module provides the dummy slicer as the port.SlicerFactory.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewFactory,
		fx.As(new(port.SlicerFactory)),
	)),
)
