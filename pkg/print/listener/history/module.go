package history

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/layercure/pkg/print/core/application/port"
	repository "github.com/tigerroll/layercure/pkg/print/core/domain/repository"
)

// ListenerParams defines the dependencies of NewHistoryJobListenerProvider.
type ListenerParams struct {
	fx.In
	Repository repository.HistoryRepository `optional:"true"`
}

// NewHistoryJobListenerProvider builds the listener from the Fx graph.
func NewHistoryJobListenerProvider(p ListenerParams) port.JobListener {
	return NewHistoryJobListener(p.Repository)
}

// Module contributes HistoryJobListener to the job listener group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewHistoryJobListenerProvider,
		fx.ResultTags(port.JobListenerGroup),
	)),
)
