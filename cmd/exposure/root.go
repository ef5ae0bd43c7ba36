package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/rainfall-exposure-etl/internal/adapter/httpserv"
	"github.com/couchcryptid/rainfall-exposure-etl/internal/config"
	"github.com/couchcryptid/rainfall-exposure-etl/internal/observability"
	"github.com/couchcryptid/rainfall-exposure-etl/internal/pipeline"
)

type options struct {
	configFile  string
	inputDir    string
	outputDir   string
	workers     int
	metricsAddr string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:           "exposure",
		Short:         "Compute climate-exposure covariates for DHS mortality tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "path to a YAML config file")
	pf.StringVar(&opts.inputDir, "input-dir", "", "override the input directory")
	pf.StringVar(&opts.outputDir, "output-dir", "", "override the base output directory")
	pf.IntVar(&opts.workers, "workers", 0, "override the worker-pool size")
	pf.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics and health endpoints on this address while running")
	pf.StringVar(&opts.logLevel, "log-level", "", "override the log level")

	descriptions := map[pipeline.Kind]string{
		pipeline.KindExtreme: "Append 99.9th-percentile extreme-precipitation indices",
		pipeline.KindRSD:     "Append standardized rainfall deviations",
		pipeline.KindWetDays: "Append wet-day counts",
	}
	for _, kind := range pipeline.Kinds() {
		root.AddCommand(&cobra.Command{
			Use:   kind.String(),
			Short: descriptions[kind],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runPipelines(cmd.Context(), opts, kind)
			},
		})
	}
	root.AddCommand(&cobra.Command{
		Use:   "all [pipeline...]",
		Short: "Run all exposure pipelines, or only the named ones, in sequence",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := pipeline.Kinds()
			if len(args) > 0 {
				kinds = make([]pipeline.Kind, len(args))
				for i, arg := range args {
					kind, err := pipeline.ParseKind(arg)
					if err != nil {
						return err
					}
					kinds[i] = kind
				}
			}
			return runPipelines(cmd.Context(), opts, kinds...)
		},
	})

	return root
}

func runPipelines(ctx context.Context, opts options, kinds ...pipeline.Kind) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}
	applyOverrides(cfg, opts)

	logger := observability.NewLogger(cfg.Logging).With("run_id", uuid.NewString())
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runners := make([]*pipeline.Runner, len(kinds))
	for i, kind := range kinds {
		runners[i] = pipeline.NewKindRunner(kind, cfg, logger, metrics)
	}

	// Optional metrics endpoint for long runs; off unless an address is set.
	var srv *httpserv.Server
	if cfg.Metrics.Addr != "" {
		progress := func() map[string]httpserv.ProgressSnapshot {
			snapshot := make(map[string]httpserv.ProgressSnapshot, len(kinds))
			for i, kind := range kinds {
				p := runners[i].Progress()
				snapshot[kind.String()] = httpserv.ProgressSnapshot{
					Total: p.Total, Done: p.Done, Failed: p.Failed,
				}
			}
			return snapshot
		}
		srv = httpserv.NewServer(cfg.Metrics.Addr, anyReady(runners), progress, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	var runErr error
	for i, kind := range kinds {
		outDir := filepath.Join(cfg.Paths.OutputDir, kind.OutputSubdir())
		if _, err := runners[i].Run(ctx, cfg.Paths.InputDir, outDir); err != nil {
			logger.Error("pipeline finished with failures", "pipeline", kind.String(), "error", err)
			runErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}

	return runErr
}

func applyOverrides(cfg *config.Config, opts options) {
	if opts.inputDir != "" {
		cfg.Paths.InputDir = opts.inputDir
	}
	if opts.outputDir != "" {
		cfg.Paths.OutputDir = opts.outputDir
	}
	if opts.workers > 0 {
		cfg.Pipeline.Workers = opts.workers
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Addr = opts.metricsAddr
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
}

// anyReady reports readiness as soon as any pipeline runner has completed a
// file.
type anyReady []*pipeline.Runner

func (rs anyReady) CheckReadiness(ctx context.Context) error {
	var err error
	for _, r := range rs {
		if err = r.CheckReadiness(ctx); err == nil {
			return nil
		}
	}
	return err
}
