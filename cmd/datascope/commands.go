package main

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/datascope/pkg/config"
	"github.com/ajitpratap0/datascope/pkg/errors"
	"github.com/ajitpratap0/datascope/pkg/formats"
	"github.com/ajitpratap0/datascope/pkg/ingest"
	"github.com/ajitpratap0/datascope/pkg/json"
	"github.com/ajitpratap0/datascope/pkg/profile"
	"github.com/ajitpratap0/datascope/pkg/table"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "datascope v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported file formats",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Supported formats:")
			for _, f := range ingest.SupportedFormats() {
				fmt.Fprintf(out, "  - %s\n", f)
			}
			fmt.Fprintf(out, "Reserved: %s (use the sql command)\n", ingest.FormatSQL)
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Read a file and report data-quality diagnostics",
		Long: `Read a file, fail if it has no rows, and list missing-value and
duplicate-row diagnostics. Diagnostics do not change the exit status.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.ingestor().IngestAndValidate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printIngestion(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func printIngestion(out io.Writer, res *ingest.Ingestion) {
	fmt.Fprintf(out, "%s (%s): %s\n", res.Path, res.Format, shape(res.Table))
	for _, d := range res.Diagnostics {
		fmt.Fprintf(out, "Warning: %s\n", d.Message)
	}
}

func newProfileCmd(a *app) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "profile <path>",
		Short: "Read, validate and profile a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.ingestor().IngestAndProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeProfile(cmd.OutOrStdout(), outputFormat, res.Diagnostics, res.Profile)
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, text)")
	return cmd
}

// profileReport is the JSON document printed by the profile commands
type profileReport struct {
	Diagnostics []ingest.Diagnostic `json:"diagnostics"`
	Profile     *profile.Profile    `json:"profile"`
}

func writeProfile(out io.Writer, outputFormat string, diags []ingest.Diagnostic, prof *profile.Profile) error {
	switch outputFormat {
	case "json":
		if diags == nil {
			diags = []ingest.Diagnostic{}
		}
		if err := json.MarshalToWriter(out, profileReport{Diagnostics: diags, Profile: prof}, "  "); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode profile")
		}
		return nil
	case "text":
		for _, d := range diags {
			fmt.Fprintf(out, "Warning: %s\n", d.Message)
		}
		return profile.WriteText(out, prof)
	default:
		return errors.Newf(errors.ErrorTypeValidation, "unknown output format %q (want json or text)", outputFormat)
	}
}

func newSQLCmd(a *app) *cobra.Command {
	var (
		connection   string
		query        string
		withProfile  bool
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Run a query and report the result set",
		Long: `Run a query against PostgreSQL or MySQL and print the shape of the result,
or its profile with --profile. The connection may be a postgres:// or mysql://
URL or "driver=<name>;<dsn>"; it defaults to sql.connection from the config.`,
		Example: `  datascope sql --connection "$DATABASE_URL" --query "SELECT * FROM orders" --profile`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if connection == "" {
				connection = a.cfg.SQL.Connection
			}
			t, err := a.ingestor().ReadSQL(cmd.Context(), query, connection)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !withProfile {
				fmt.Fprintf(out, "query: %s\n", shape(t))
				fmt.Fprintf(out, "columns: %s\n", strings.Join(t.ColumnNames(), ", "))
				return nil
			}
			return writeProfile(out, outputFormat, nil, profile.New(t).WithLogger(a.log).GenerateProfile())
		},
	}
	cmd.Flags().StringVarP(&connection, "connection", "c", "", "Database connection string")
	cmd.Flags().StringVarP(&query, "query", "q", "", "SQL query to run (required)")
	cmd.Flags().BoolVar(&withProfile, "profile", false, "Profile the result set")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Profile output format (json, text)")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func newConvertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a file between supported formats",
		Long: `Read and validate <input>, then write it to <output> in the format named by
the output extension. With --compressed either side may end in .gz, .zst,
.lz4, .sz or .s2.`,
		Example: `  datascope convert sales.xlsx sales.parquet
  datascope --compressed convert sales.csv.gz sales.parquet.zst`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ing := a.ingestor()
			outFormat, err := ing.DetectFormat(args[1])
			if err != nil {
				return err
			}
			writer, _ := formats.WriterFor(string(outFormat), a.cfg)

			res, err := ing.IngestAndValidate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := writer.Write(cmd.Context(), args[1], res.Table); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printIngestion(out, res)
			fmt.Fprintf(out, "wrote %s (%s)\n", filepath.Clean(args[1]), outFormat)
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
		// Skip the root setup so a broken config can be replaced
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init <path>",
		Short: "Write the default configuration to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], config.NewDefaultConfig()); err != nil {
				return errors.Wrap(err, errors.ErrorTypeIO, "failed to write configuration")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote default configuration to %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func shape(t *table.Table) string {
	return fmt.Sprintf("%d rows x %d columns", t.NumRows(), t.NumColumns())
}
