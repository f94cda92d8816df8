package profile

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

// WriteText renders the profile as aligned plain-text tables, columns in
// table order.
func WriteText(w io.Writer, p *Profile) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	names := p.BasicInfo.ColumnNames

	fmt.Fprintln(tw, "== basic_info")
	fmt.Fprintf(tw, "num_rows\t%d\n", p.BasicInfo.NumRows)
	fmt.Fprintf(tw, "num_columns\t%d\n", p.BasicInfo.NumColumns)
	fmt.Fprintf(tw, "column_names\t%s\n", strings.Join(names, ", "))
	fmt.Fprintf(tw, "memory_usage\t%d bytes\n", p.BasicInfo.MemoryUsage)

	fmt.Fprintln(tw, "\n== columns")
	fmt.Fprintln(tw, "column\tdtype\tmissing %\tunique")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
			name, p.DataTypes[name], formatFloat(p.MissingValues[name]), p.UniqueValues[name])
	}

	numeric := make([]string, 0, len(p.SummaryStats))
	for _, name := range names {
		if _, ok := p.SummaryStats[name]; ok {
			numeric = append(numeric, name)
		}
	}

	if len(numeric) > 0 {
		fmt.Fprintln(tw, "\n== summary_stats")
		fmt.Fprintln(tw, "column\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax")
		for _, name := range numeric {
			s := p.SummaryStats[name]
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", name,
				formatFloat(s.Count), formatFloat(s.Mean), formatFloat(s.Std), formatFloat(s.Min),
				formatFloat(s.Q25), formatFloat(s.Q50), formatFloat(s.Q75), formatFloat(s.Max))
		}

		fmt.Fprintln(tw, "\n== correlations")
		fmt.Fprintf(tw, "\t%s\n", strings.Join(numeric, "\t"))
		for _, row := range numeric {
			cells := make([]string, len(numeric))
			for i, col := range numeric {
				cells[i] = formatFloat(p.Correlations[row][col])
			}
			fmt.Fprintf(tw, "%s\t%s\n", row, strings.Join(cells, "\t"))
		}
	}

	return tw.Flush()
}

func formatFloat(f Float) string {
	if f.IsNaN() {
		return "NaN"
	}
	return strconv.FormatFloat(float64(f), 'f', 4, 64)
}
