// Package ingest loads tabular files, validates them and optionally profiles
// them.
//
// The pipeline is linear: DetectFormat picks a Format from the file
// extension, Read dispatches to the reader registered for it, Validate
// rejects empty tables and reports data-quality diagnostics, and
// IngestAndProfile hands the table to the profiler.
//
//	ing := ingest.New(config.NewDefaultConfig())
//	res, err := ing.IngestAndValidate(ctx, "sales.csv")
//	if err != nil {
//	    return err
//	}
//	for _, d := range res.Diagnostics {
//	    fmt.Println(d.Message)
//	}
//
// Diagnostics are returned to the caller and also logged at warn level.
package ingest

import (
	"context"
	stderrors "errors"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/datascope/pkg/config"
	"github.com/ajitpratap0/datascope/pkg/errors"
	"github.com/ajitpratap0/datascope/pkg/formats"
	"github.com/ajitpratap0/datascope/pkg/logger"
	"github.com/ajitpratap0/datascope/pkg/metrics"
	"github.com/ajitpratap0/datascope/pkg/observability"
	"github.com/ajitpratap0/datascope/pkg/profile"
	"github.com/ajitpratap0/datascope/pkg/table"
)

// QueryExecutor runs a query against a database and returns the result set
type QueryExecutor interface {
	Query(ctx context.Context, query, connection string) (*table.Table, error)
}

// Ingestion is the result of IngestAndValidate
type Ingestion struct {
	Path        string
	Format      Format
	Table       *table.Table
	Diagnostics []Diagnostic
}

// ProfiledIngestion is the result of IngestAndProfile
type ProfiledIngestion struct {
	Ingestion
	Profile *profile.Profile
}

// Ingestor reads, validates and profiles files
type Ingestor struct {
	readers  map[Format]formats.Reader
	executor QueryExecutor
	logger   *zap.Logger
	metrics  *metrics.Recorder
	// compressed enables DetectFormatCompressed
	compressed bool
}

// Option configures an Ingestor
type Option func(*Ingestor)

// WithLogger sets the logger; nil keeps the global logger
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingestor) {
		in.logger = logger.Component(l, "ingest")
	}
}

// WithMetrics records ingestion metrics into rec
func WithMetrics(rec *metrics.Recorder) Option {
	return func(in *Ingestor) {
		in.metrics = rec
	}
}

// WithQueryExecutor enables ReadSQL
func WithQueryExecutor(exec QueryExecutor) Option {
	return func(in *Ingestor) {
		in.executor = exec
	}
}

// WithCompressedInputs accepts paths such as data.csv.gz, detecting the
// format under the compression suffix. The readers decompress on the fly.
func WithCompressedInputs() Option {
	return func(in *Ingestor) {
		in.compressed = true
	}
}

// WithReader replaces the reader bound to a supported format
func WithReader(format Format, r formats.Reader) Option {
	return func(in *Ingestor) {
		if format.Supported() {
			in.readers[format] = r
		}
	}
}

// New creates an Ingestor whose readers use cfg. A nil cfg selects
// config.NewDefaultConfig().
func New(cfg *config.Config, opts ...Option) *Ingestor {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	in := &Ingestor{
		readers: make(map[Format]formats.Reader, len(SupportedFormats())),
		logger:  logger.Component(nil, "ingest"),
	}
	for _, f := range SupportedFormats() {
		r, _ := formats.ReaderFor(string(f), cfg)
		in.readers[f] = r
	}

	for _, opt := range opts {
		opt(in)
	}
	return in
}

// DetectFormat returns the format named by path's extension. With
// WithCompressedInputs a trailing compression suffix is skipped.
func (in *Ingestor) DetectFormat(path string) (Format, error) {
	if in.compressed {
		return DetectFormatCompressed(path)
	}
	return DetectFormat(path)
}

// Read parses path with the reader bound to format. Reader failures come
// back as "error reading file" with the reader's kind (io or parse) kept.
func (in *Ingestor) Read(ctx context.Context, path string, format Format) (*table.Table, error) {
	if format == FormatSQL {
		return nil, errors.New(errors.ErrorTypeNotImplemented, "SQL format reading is not implemented; use ReadSQL").
			WithDetail("path", path)
	}
	reader, ok := in.readers[format]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeUnsupportedFormat, "Unsupported file format: %s", format).
			WithDetail("path", path)
	}

	ctx, span := observability.NewSpan(ctx, "ingest.read")
	span.SetAttribute("format", string(format))
	span.SetAttribute("path", path)

	t, err := reader.Read(ctx, path)
	if err != nil {
		err = readError(err, path, format)
		span.Finish(err)
		return nil, err
	}

	span.SetAttribute("rows", t.NumRows())
	span.SetAttribute("columns", t.NumColumns())
	span.Finish(nil)

	in.logger.Debug("file read",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("rows", t.NumRows()),
		zap.Int("columns", t.NumColumns()))
	return t, nil
}

func readError(err error, path string, format Format) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	kind := errors.ErrorTypeParse
	if errors.TypeOf(err) == errors.ErrorTypeIO {
		kind = errors.ErrorTypeIO
	}
	return errors.Wrap(err, kind, "error reading file").
		WithDetail("path", path).
		WithDetail("format", string(format))
}

// Validate checks t and logs each diagnostic at warn level
func (in *Ingestor) Validate(ctx context.Context, t *table.Table) ([]Diagnostic, error) {
	var diags []Diagnostic
	err := observability.Trace(ctx, "ingest.validate", func(_ context.Context, span *observability.Span) error {
		var err error
		diags, err = Validate(t)
		span.SetAttribute("diagnostics", len(diags))
		for _, d := range diags {
			span.AddEvent(d.Code, attribute.Int("count", d.Count))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	log := in.logger.With(logger.ContextFields(ctx)...)
	for _, d := range diags {
		log.Warn(d.Message, zap.String("code", d.Code), zap.Int("count", d.Count))
		in.metrics.ObserveDiagnostic(d.Code)
	}
	return diags, nil
}

// IngestAndValidate detects the format of path, reads it and validates the
// result.
func (in *Ingestor) IngestAndValidate(ctx context.Context, path string) (*Ingestion, error) {
	timer := metrics.NewTimer("ingest")
	ctx = context.WithValue(ctx, logger.PathKey, path)
	log := in.logger.With(logger.ContextFields(ctx)...)
	ctx, span := observability.NewSpan(ctx, "ingest")
	span.SetAttribute("path", path)

	res, err := in.ingest(ctx, path)

	format := "unknown"
	rows := 0
	if res != nil {
		format = string(res.Format)
		if res.Table != nil {
			rows = res.Table.NumRows()
		}
	} else if f, detectErr := in.DetectFormat(path); detectErr == nil {
		format = string(f)
	}
	elapsed := timer.Stop()
	in.metrics.ObserveIngest(format, metrics.Status(err), rows, elapsed)
	observability.RecordDuration(ctx, timer.Name(), format, metrics.Status(err), elapsed)
	span.Finish(err)

	if err != nil {
		log.Error("ingestion failed",
			zap.String("error_type", string(errors.TypeOf(err))),
			zap.Error(err))
		return nil, err
	}

	log.Info("ingestion complete",
		zap.String("format", format),
		zap.Int("rows", rows),
		zap.Int("diagnostics", len(res.Diagnostics)),
		zap.Duration("duration", elapsed))
	return res, nil
}

func (in *Ingestor) ingest(ctx context.Context, path string) (*Ingestion, error) {
	format, err := in.DetectFormat(path)
	if err != nil {
		return nil, err
	}
	t, err := in.Read(ctx, path, format)
	if err != nil {
		return nil, err
	}
	diags, err := in.Validate(ctx, t)
	if err != nil {
		return nil, err
	}
	return &Ingestion{Path: path, Format: format, Table: t, Diagnostics: diags}, nil
}

// IngestAndProfile runs IngestAndValidate and profiles the table
func (in *Ingestor) IngestAndProfile(ctx context.Context, path string) (*ProfiledIngestion, error) {
	res, err := in.IngestAndValidate(ctx, path)
	if err != nil {
		return nil, err
	}

	var prof *profile.Profile
	_ = observability.Trace(ctx, "profile", func(_ context.Context, span *observability.Span) error {
		prof = profile.New(res.Table).WithLogger(in.logger).GenerateProfile()
		span.SetAttribute("numeric_columns", len(prof.SummaryStats))
		return nil
	})

	return &ProfiledIngestion{Ingestion: *res, Profile: prof}, nil
}

// ReadSQL runs query through the configured QueryExecutor. Without one it
// fails with not_implemented; executor failures become "error reading
// from SQL database".
func (in *Ingestor) ReadSQL(ctx context.Context, query, connection string) (*table.Table, error) {
	if in.executor == nil {
		return nil, errors.New(errors.ErrorTypeNotImplemented, "no SQL query executor configured")
	}

	timer := metrics.NewTimer("sql")
	ctx, span := observability.NewSpan(ctx, "ingest.sql")

	t, err := in.executor.Query(ctx, query, connection)
	if err == nil && t == nil {
		err = stderrors.New("query executor returned no table")
	}
	if err != nil {
		err = errors.Wrap(err, errors.ErrorTypeSQL, "error reading from SQL database")
		span.Finish(err)
		elapsed := timer.Stop()
		in.metrics.ObserveIngest(string(FormatSQL), metrics.StatusError, 0, elapsed)
		observability.RecordDuration(ctx, timer.Name(), string(FormatSQL), metrics.StatusError, elapsed)
		in.logger.Error("sql read failed", zap.Error(err))
		return nil, err
	}

	span.SetAttribute("rows", t.NumRows())
	span.Finish(nil)
	elapsed := timer.Stop()
	in.metrics.ObserveIngest(string(FormatSQL), metrics.StatusSuccess, t.NumRows(), elapsed)
	observability.RecordDuration(ctx, timer.Name(), string(FormatSQL), metrics.StatusSuccess, elapsed)
	in.logger.Info("sql read complete", zap.Int("rows", t.NumRows()), zap.Int("columns", t.NumColumns()))
	return t, nil
}
