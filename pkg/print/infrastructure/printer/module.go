package printer

import (
	"go.uber.org/fx"

	"github.com/tigerroll/layercure/pkg/print/core/application/port"
)

// Module provides the configured printers as the port.PrinterLocator.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewRegistryFromConfig,
		fx.As(new(port.PrinterLocator)),
	)),
)
