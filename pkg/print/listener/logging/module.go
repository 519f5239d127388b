package logging

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/layercure/pkg/print/core/application/port"
)

// Module contributes LoggingJobListener to the job listener group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewLoggingJobListener,
		fx.As(new(port.JobListener)),
		fx.ResultTags(port.JobListenerGroup),
	)),
)
