// Package listener aggregates the job listeners and notification components of the host.
package listener

import (
	"go.uber.org/fx"

	"github.com/tigerroll/layercure/pkg/print/listener/history"
	"github.com/tigerroll/layercure/pkg/print/listener/logging"
	"github.com/tigerroll/layercure/pkg/print/listener/metrics"
	"github.com/tigerroll/layercure/pkg/print/listener/notification"
	"github.com/tigerroll/layercure/pkg/print/listener/tracing"
)

// Module aggregates all listener modules of the print host.
var Module = fx.Options(
	logging.Module,
	metrics.Module,
	tracing.Module,
	notification.Module,
	history.Module,
)
