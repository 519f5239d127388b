package inmemory

import (
	"go.uber.org/fx"

	"github.com/tigerroll/layercure/pkg/print/core/domain/repository"
)

// Module provides JobRegistry as the repository.JobRegistry.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewJobRegistry,
		fx.As(new(repository.JobRegistry)),
	)),
)
