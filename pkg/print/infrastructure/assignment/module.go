package assignment

import (
	"go.uber.org/fx"

	"github.com/tigerroll/layercure/pkg/print/core/application/port"
)

// Module provides Manager as the port.PrinterAssignment.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewManager,
		fx.As(new(port.PrinterAssignment)),
	)),
)
