// Package datascope loads tabular data files, checks them for basic
// structural problems and reports a descriptive profile.
//
// # Architecture
//
// Ingestion is a short synchronous pipeline:
//
//	path -> DetectFormat -> Read -> Validate -> (optional) Profile
//
// The format comes from the file extension. Each format has a reader that
// parses the whole file into an in-memory table. Validation rejects tables
// without rows and reports missing cells and duplicate rows as advisory
// diagnostics. The profiler computes shape, types, missing-value rates,
// cardinality, summary statistics and pairwise numeric correlations.
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/ajitpratap0/datascope/pkg/config"
//	    "github.com/ajitpratap0/datascope/pkg/ingest"
//	)
//
//	ing := ingest.New(config.NewDefaultConfig())
//	res, err := ing.IngestAndProfile(context.Background(), "sales.xlsx")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Profile.BasicInfo.NumRows)
//
// # Key Packages
//
//	pkg/ingest        - Format detection, reading, validation
//	pkg/profile       - Descriptive statistics over a table
//	pkg/table         - Typed, nullable, column-oriented table and type inference
//	pkg/formats       - CSV, XLSX, JSON and Parquet readers and writers
//	pkg/compression   - .gz/.zst/.lz4/.sz/.s2 input and output
//	pkg/sqlsource     - Query execution against PostgreSQL and MySQL
//	pkg/config        - YAML and environment configuration
//	pkg/errors        - Structured errors with a kind per failure class
//	pkg/logger        - Structured logging
//	pkg/metrics       - Prometheus counters for ingestion runs
//	pkg/observability - OpenTelemetry tracing and duration histogram
//
// # Supported Formats
//
//   - csv: delimited text with configurable delimiter, comments and null tokens
//   - xlsx: Excel workbooks, first or configured sheet
//   - json: column, record, split and value layouts plus JSON Lines
//   - parquet: Apache Parquet through Arrow
//
// The format is the last extension, so data.csv.gz is rejected unless
// compressed inputs are enabled (ingest.WithCompressedInputs, or
// --compressed on the command line); it is then read as csv.
//
// # Command Line
//
//	datascope validate data.csv
//	datascope profile --format text data.parquet
//	datascope --compressed convert data.xlsx data.parquet.zst
//	datascope sql --connection "$DATABASE_URL" --query "SELECT * FROM orders" --profile
//
// Configuration is read from --config and DATASCOPE_* environment variables.
// A .env file in the working directory is loaded first.
package datascope
