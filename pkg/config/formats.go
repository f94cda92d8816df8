package config

import "time"

// CSVConfig contains options for delimited text files
type CSVConfig struct {
	Delimiter string `yaml:"delimiter" json:"delimiter" mapstructure:"delimiter"`
	// Comment marks lines to skip; empty disables comments
	Comment    string   `yaml:"comment" json:"comment" mapstructure:"comment"`
	SkipRows   int      `yaml:"skip_rows" json:"skip_rows" mapstructure:"skip_rows"`
	HasHeader  bool     `yaml:"has_header" json:"has_header" mapstructure:"has_header"`
	NullValues []string `yaml:"null_values" json:"null_values" mapstructure:"null_values"`
	TrimSpaces bool     `yaml:"trim_spaces" json:"trim_spaces" mapstructure:"trim_spaces"`
}

// DelimiterRune returns the delimiter as a rune, defaulting to ','
func (c CSVConfig) DelimiterRune() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return ','
}

// CommentRune returns the comment character, 0 when disabled
func (c CSVConfig) CommentRune() rune {
	for _, r := range c.Comment {
		return r
	}
	return 0
}

// ExcelConfig contains options for .xlsx workbooks
type ExcelConfig struct {
	// Sheet selects a worksheet by name; empty reads the first sheet
	Sheet      string   `yaml:"sheet" json:"sheet" mapstructure:"sheet"`
	NullValues []string `yaml:"null_values" json:"null_values" mapstructure:"null_values"`
}

// JSONConfig contains options for JSON documents
type JSONConfig struct {
	// Orient is the document layout: auto, columns, records, split, values or lines
	Orient string `yaml:"orient" json:"orient" mapstructure:"orient"`
}

func (j JSONConfig) validOrient() bool {
	switch j.Orient {
	case "", "auto", "columns", "records", "split", "values", "lines":
		return true
	}
	return false
}

// ParquetConfig contains options for parquet files
type ParquetConfig struct {
	// Compression is used when writing: none, snappy, gzip or zstd
	Compression string `yaml:"compression" json:"compression" mapstructure:"compression"`
}

func (p ParquetConfig) validCompression() bool {
	switch p.Compression {
	case "", "none", "snappy", "gzip", "zstd":
		return true
	}
	return false
}

// SQLConfig contains options for ReadSQL
type SQLConfig struct {
	// Driver overrides driver detection from the connection string
	Driver string `yaml:"driver" json:"driver" mapstructure:"driver"`
	// Connection is the default connection string (use ${VAR} for secrets)
	Connection   string        `yaml:"connection" json:"connection" mapstructure:"connection"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
	MaxOpenConns int           `yaml:"max_open_conns" json:"max_open_conns" mapstructure:"max_open_conns"`
}
