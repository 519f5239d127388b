package metrics

import "go.uber.org/fx"

// Module makes the provided MetricRecorder asynchronous.
var Module = fx.Options(
	fx.Decorate(NewAsyncMetricRecorderWrapper),
)
