package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/datascope/pkg/config"
	"github.com/ajitpratap0/datascope/pkg/errors"
	"github.com/ajitpratap0/datascope/pkg/ingest"
	"github.com/ajitpratap0/datascope/pkg/logger"
	"github.com/ajitpratap0/datascope/pkg/metrics"
	"github.com/ajitpratap0/datascope/pkg/observability"
	"github.com/ajitpratap0/datascope/pkg/sqlsource"
)

var version = "0.1.0"

// app holds the state shared by every command of one invocation
type app struct {
	configFile  string
	logLevel    string
	metricsFile string
	trace       bool
	compressed  bool

	viper    *viper.Viper
	cfg      *config.Config
	log      *zap.Logger
	recorder *metrics.Recorder
	shutdown observability.ShutdownFunc
	traceOut io.Writer
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	a := &app{viper: viper.New(), traceOut: os.Stderr}
	root := newRootCmd(a)
	err := root.Execute()
	if closeErr := a.close(context.Background()); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "datascope",
		Short: "Load, validate and profile tabular data files",
		Long: `datascope reads CSV, Excel (.xlsx), JSON and Parquet files, checks them for
emptiness, missing values and duplicate rows, and reports descriptive statistics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			runID := uuid.NewString()
			cmd.SetContext(context.WithValue(cmd.Context(), logger.RunIDKey, runID))
			a.log.Debug("run started", zap.String("run_id", runID), zap.String("command", cmd.CommandPath()))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Path to a YAML configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	flags.BoolVar(&a.trace, "trace", false, "Print OpenTelemetry spans to stderr")
	flags.BoolVar(&a.compressed, "compressed", false, "Accept compressed files such as data.csv.gz")

	root.AddCommand(
		newVersionCmd(),
		newFormatsCmd(),
		newValidateCmd(a),
		newProfileCmd(a),
		newSQLCmd(a),
		newConvertCmd(a),
		newConfigCmd(),
	)
	return root
}

// setup resolves configuration and starts logging, metrics and tracing
func (a *app) setup() error {
	cfg, err := config.LoadViper(a.viper, a.configFile)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to load configuration")
	}
	if a.logLevel != "" {
		cfg.Observability.LogLevel = a.logLevel
	}
	if a.metricsFile != "" {
		cfg.Observability.MetricsFile = a.metricsFile
		cfg.Observability.EnableMetrics = true
	}
	if a.trace {
		cfg.Observability.EnableTracing = true
	}
	a.cfg = cfg

	if err := logger.Init(logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: cfg.Observability.LogEncoding,
	}); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize logger")
	}
	a.log = logger.Component(nil, "cli")

	if cfg.Observability.EnableMetrics {
		a.recorder = metrics.New()
	}

	if cfg.Observability.EnableTracing {
		tc := observability.DefaultTracingConfig()
		tc.ServiceVersion = version
		tc.SamplingRate = cfg.Observability.TracingSampleRate
		tc.Output = a.traceOut
		shutdown, err := observability.InitTracing(tc)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize tracing")
		}
		a.shutdown = shutdown
	}
	return nil
}

// close flushes spans, metrics and logs. Safe to call when setup never ran.
func (a *app) close(ctx context.Context) error {
	var firstErr error
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			firstErr = err
		}
		a.shutdown = nil
	}
	if a.cfg != nil && a.cfg.Observability.MetricsFile != "" {
		if err := a.recorder.WriteTextfile(a.cfg.Observability.MetricsFile); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, errors.ErrorTypeIO, "failed to write metrics file")
		}
	}
	_ = logger.Sync()
	return firstErr
}

// ingestor builds an Ingestor wired to the run's config, logger and metrics
func (a *app) ingestor() *ingest.Ingestor {
	opts := []ingest.Option{
		ingest.WithLogger(a.log),
		ingest.WithMetrics(a.recorder),
		ingest.WithQueryExecutor(sqlsource.NewDBExecutor(a.cfg.SQL, a.log)),
	}
	if a.compressed {
		opts = append(opts, ingest.WithCompressedInputs())
	}
	return ingest.New(a.cfg, opts...)
}
