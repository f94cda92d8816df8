// Package profile computes descriptive statistics over a table.
//
// A Profiler borrows a table and never modifies it, so several profilers
// may inspect the same table concurrently. GenerateProfile runs all six
// computations and returns them as one Profile.
package profile

import (
	"math"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/ajitpratap0/datascope/pkg/logger"
	"github.com/ajitpratap0/datascope/pkg/table"
)

// Float is a float64 whose JSON form is null when the value is NaN or
// infinite, as for the standard deviation of a single observation.
type Float float64

// MarshalJSON implements json.Marshaler
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler; null reads as NaN
func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// IsNaN reports whether the value is undefined
func (f Float) IsNaN() bool { return math.IsNaN(float64(f)) }

// BasicInfo holds dataset-level facts
type BasicInfo struct {
	NumRows     int      `json:"num_rows"`
	NumColumns  int      `json:"num_columns"`
	ColumnNames []string `json:"column_names"`
	// MemoryUsage is the deep size in bytes, including string contents
	MemoryUsage int64 `json:"memory_usage"`
}

// Stats summarizes one numeric column
type Stats struct {
	Count Float `json:"count"`
	Mean  Float `json:"mean"`
	Std   Float `json:"std"`
	Min   Float `json:"min"`
	Q25   Float `json:"25%"`
	Q50   Float `json:"50%"`
	Q75   Float `json:"75%"`
	Max   Float `json:"max"`
}

// Profile is the full report. Every map is keyed by column name.
type Profile struct {
	BasicInfo     BasicInfo                   `json:"basic_info"`
	SummaryStats  map[string]Stats            `json:"summary_stats"`
	MissingValues map[string]Float            `json:"missing_values"`
	UniqueValues  map[string]int              `json:"unique_values"`
	DataTypes     map[string]string           `json:"data_types"`
	Correlations  map[string]map[string]Float `json:"correlations"`
}

// Keys lists the top-level sections in report order
func Keys() []string {
	return []string{"basic_info", "summary_stats", "missing_values", "unique_values", "data_types", "correlations"}
}

// Profiler computes statistics over a borrowed table
type Profiler struct {
	table  *table.Table
	logger *zap.Logger
}

// New creates a profiler for t
func New(t *table.Table) *Profiler {
	return &Profiler{
		table:  t,
		logger: logger.Component(nil, "profiler"),
	}
}

// WithLogger replaces the profiler's logger
func (p *Profiler) WithLogger(l *zap.Logger) *Profiler {
	p.logger = logger.Component(l, "profiler")
	return p
}

// BasicInfo returns shape, column order and memory usage
func (p *Profiler) BasicInfo() BasicInfo {
	return BasicInfo{
		NumRows:     p.table.NumRows(),
		NumColumns:  p.table.NumColumns(),
		ColumnNames: p.table.ColumnNames(),
		MemoryUsage: p.table.MemoryUsage(),
	}
}

// SummaryStats describes the int64 and float64 columns. Boolean and object
// columns are left out.
func (p *Profiler) SummaryStats() map[string]Stats {
	out := make(map[string]Stats)
	for _, col := range p.numericColumns() {
		out[col.Name()] = describe(presentValues(col))
	}
	return out
}

// MissingValues returns the percentage of missing cells per column
func (p *Profiler) MissingValues() map[string]Float {
	rows := float64(p.table.NumRows())
	out := make(map[string]Float, p.table.NumColumns())
	for _, col := range p.table.Columns() {
		if rows == 0 {
			out[col.Name()] = Float(math.NaN())
			continue
		}
		out[col.Name()] = Float(float64(col.NullCount()) / rows * 100)
	}
	return out
}

// UniqueValues returns the number of distinct non-missing values per column
func (p *Profiler) UniqueValues() map[string]int {
	out := make(map[string]int, p.table.NumColumns())
	for _, col := range p.table.Columns() {
		out[col.Name()] = col.DistinctCount()
	}
	return out
}

// DataTypes returns each column's type tag
func (p *Profiler) DataTypes() map[string]string {
	out := make(map[string]string, p.table.NumColumns())
	for _, col := range p.table.Columns() {
		out[col.Name()] = string(col.DType())
	}
	return out
}

// Correlations returns the Pearson correlation matrix of the numeric
// columns. Each pair uses the rows where both cells are present; pairs
// with fewer than two such rows or zero variance are NaN.
func (p *Profiler) Correlations() map[string]map[string]Float {
	cols := p.numericColumns()
	out := make(map[string]map[string]Float, len(cols))
	for _, a := range cols {
		out[a.Name()] = make(map[string]Float, len(cols))
	}
	for i, a := range cols {
		for j := i; j < len(cols); j++ {
			b := cols[j]
			r := pearson(a, b)
			if i == j && !math.IsNaN(r) {
				r = 1.0
			}
			out[a.Name()][b.Name()] = Float(r)
			out[b.Name()][a.Name()] = Float(r)
		}
	}
	return out
}

// GenerateProfile runs every computation
func (p *Profiler) GenerateProfile() *Profile {
	prof := &Profile{
		BasicInfo:     p.BasicInfo(),
		SummaryStats:  p.SummaryStats(),
		MissingValues: p.MissingValues(),
		UniqueValues:  p.UniqueValues(),
		DataTypes:     p.DataTypes(),
		Correlations:  p.Correlations(),
	}
	p.logger.Debug("profile generated",
		zap.Int("rows", prof.BasicInfo.NumRows),
		zap.Int("columns", prof.BasicInfo.NumColumns),
		zap.Int("numeric_columns", len(prof.SummaryStats)))
	return prof
}

func (p *Profiler) numericColumns() []*table.Column {
	var cols []*table.Column
	for _, col := range p.table.Columns() {
		if col.DType().IsNumeric() {
			cols = append(cols, col)
		}
	}
	return cols
}

func presentValues(col *table.Column) []float64 {
	values := make([]float64, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if v, ok := col.Float(i); ok {
			values = append(values, v)
		}
	}
	return values
}

func describe(values []float64) Stats {
	nan := Float(math.NaN())
	n := len(values)
	stats := Stats{Count: Float(n), Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan}
	if n == 0 {
		return stats
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	stats.Mean = Float(mean)
	stats.Min = Float(sorted[0])
	stats.Max = Float(sorted[n-1])
	stats.Q25 = Float(quantile(sorted, 0.25))
	stats.Q50 = Float(quantile(sorted, 0.50))
	stats.Q75 = Float(quantile(sorted, 0.75))

	if n > 1 {
		var ss float64
		for _, v := range sorted {
			d := v - mean
			ss += d * d
		}
		stats.Std = Float(math.Sqrt(ss / float64(n-1)))
	}
	return stats
}

// quantile interpolates linearly between the two nearest ranks.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func pearson(a, b *table.Column) float64 {
	var xs, ys []float64
	for i := 0; i < a.Len(); i++ {
		x, okX := a.Float(i)
		y, okY := b.Float(i)
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	n := len(xs)
	if n < 2 {
		return math.NaN()
	}

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)

	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return math.NaN()
	}

	r := cov / math.Sqrt(varX*varY)
	return math.Max(-1, math.Min(1, r))
}
