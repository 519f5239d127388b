package notification

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/layercure/pkg/print/core/application/port"
)

// Module provides the notifier used by the job manager and the print lifecycle.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewLoggingNotifier,
		fx.As(new(port.Notifier)),
	)),
	fx.Decorate(NewAsyncNotifierWrapper),
)
