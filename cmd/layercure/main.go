package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "embed"

	"go.uber.org/fx"

	port "github.com/tigerroll/layercure/pkg/print/core/application/port"
	usecase "github.com/tigerroll/layercure/pkg/print/core/application/usecase"
	config "github.com/tigerroll/layercure/pkg/print/core/config"
	model "github.com/tigerroll/layercure/pkg/print/core/domain/model"
	logger "github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

// embeddedConfig holds the application's YAML configuration.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// cancelGracePeriod is how long a cancelled print may take to reach its finalizer.
const cancelGracePeriod = 30 * time.Second

// startPrintJob submits the configured job file once the application has started.
func startPrintJob(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	manager *usecase.PrintJobManager,
	printers port.PrinterLocator,
	cfg *config.PrintConfig,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: onStartPrintJob(manager, printers, cfg, shutdowner, appCtx),
		OnStop:  onStopApplication(),
	})
}

func onStartPrintJob(
	manager *usecase.PrintJobManager,
	printers port.PrinterLocator,
	cfg *config.PrintConfig,
	shutdowner fx.Shutdowner,
	appCtx context.Context,
) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if cfg.JobFile == "" {
			logger.Warnf("No job file configured (host.print.job_file). Nothing to print.")
			return shutdowner.Shutdown()
		}
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("Panic recovered in print job: %v", r)
				}
				logger.Infof("Requesting application shutdown after print completion.")
				if err := shutdowner.Shutdown(); err != nil {
					logger.Errorf("Failed to shutdown application: %v", err)
				}
			}()

			printer, err := resolvePrinter(printers, cfg.PrinterName)
			if err != nil {
				logger.Errorf("No printer for '%s': %v", cfg.JobFile, err)
				return
			}
			job, err := manager.CreateJob(appCtx, cfg.JobFile, printer, cfg.UseCustomizer)
			if err != nil {
				logger.Errorf("Failed to create print job for '%s': %v", cfg.JobFile, err)
				return
			}
			logger.Infof("Print job %s started on printer '%s'.", job.ID(), printer.Name())

			status, err := manager.AwaitJob(appCtx, job)
			if errors.Is(err, context.Canceled) {
				logger.Warnf("Application cancelled. Cancelling job %s on printer '%s'.", job.ID(), printer.Name())
				printer.SetStatus(model.JobStatusCancelling)
				waitCtx, cancel := context.WithTimeout(context.Background(), cancelGracePeriod)
				defer cancel()
				status, err = manager.AwaitJob(waitCtx, job)
			}
			if err != nil {
				logger.Errorf("Job %s did not finish: %v", job.ID(), err)
				return
			}
			logger.Infof("Job %s finished with status %s (%d/%d slices).", job.ID(), status, job.CurrentSlice(), job.TotalSlices())
		}()
		return nil
	}
}

func resolvePrinter(printers port.PrinterLocator, name string) (model.Printer, error) {
	if name != "" {
		return printers.Printer(name)
	}
	return printers.FirstAvailable()
}

func onStopApplication() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		logger.Infof("Application is shutting down.")
		return nil
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Attempting to stop the print...", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	fxApp := fx.New(GetApplicationOptions(ctx, envFilePath, embeddedConfig)...)
	fxApp.Run()
	if fxApp.Err() != nil {
		logger.Fatalf("Application run failed: %v", fxApp.Err())
	}
	os.Exit(0)
}
