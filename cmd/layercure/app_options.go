package main

import (
	"context"

	"go.uber.org/fx"

	"github.com/tigerroll/layercure/pkg/print/adapter/slicer/dummy"
	usecase "github.com/tigerroll/layercure/pkg/print/core/application/usecase"
	config "github.com/tigerroll/layercure/pkg/print/core/config"
	"github.com/tigerroll/layercure/pkg/print/core/workerpool"
	"github.com/tigerroll/layercure/pkg/print/engine/lifecycle"
	"github.com/tigerroll/layercure/pkg/print/engine/processor"
	"github.com/tigerroll/layercure/pkg/print/infrastructure/assignment"
	"github.com/tigerroll/layercure/pkg/print/infrastructure/customizer"
	infraMetrics "github.com/tigerroll/layercure/pkg/print/infrastructure/metrics"
	"github.com/tigerroll/layercure/pkg/print/infrastructure/printer"
	gormRepo "github.com/tigerroll/layercure/pkg/print/infrastructure/repository/gorm"
	inmemoryRepo "github.com/tigerroll/layercure/pkg/print/infrastructure/repository/inmemory"
	printlistener "github.com/tigerroll/layercure/pkg/print/listener"
	logger "github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

// GetApplicationOptions builds the fx options of the print host.
func GetApplicationOptions(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig) []fx.Option {
	var options []fx.Option

	options = append(options, fx.Supply(
		embeddedConfig,
		fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
		fx.Annotate(appCtx, fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`)),
	))
	options = append(options, logger.Module)
	options = append(options, config.Module)
	options = append(options, workerpool.Module)
	options = append(options, infraMetrics.Module)
	options = append(options, printlistener.Module)
	options = append(options, gormRepo.Module)
	options = append(options, inmemoryRepo.Module)
	options = append(options, assignment.Module)
	options = append(options, printer.Module)
	options = append(options, customizer.Module)
	options = append(options, dummy.Module)
	options = append(options, lifecycle.Module)
	options = append(options, processor.Module)
	options = append(options, usecase.Module)
	options = append(options, fx.Invoke(fx.Annotate(startPrintJob, fx.ParamTags("", "", "", "", "", `name:"appCtx"`))))

	return options
}
