package ingest

import (
	"fmt"

	"github.com/ajitpratap0/datascope/pkg/errors"
	"github.com/ajitpratap0/datascope/pkg/table"
)

// Diagnostic codes
const (
	CodeMissingValues = "missing_values"
	CodeDuplicateRows = "duplicate_rows"
)

// Diagnostic is an advisory data-quality finding. It never blocks ingestion.
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Count is the number of affected cells or rows
	Count int `json:"count"`
}

func (d Diagnostic) String() string { return d.Message }

// Validate checks t. A table without rows is an empty_dataset error;
// missing cells and duplicate rows are returned as diagnostics.
func Validate(t *table.Table) ([]Diagnostic, error) {
	if t == nil || t.Empty() {
		return nil, errors.New(errors.ErrorTypeEmptyDataset, "The DataFrame is empty")
	}

	var diags []Diagnostic
	if nulls := t.NullCount(); nulls > 0 {
		diags = append(diags, Diagnostic{
			Code:    CodeMissingValues,
			Message: "The DataFrame contains missing values",
			Count:   nulls,
		})
	}
	if dups := t.DuplicateRowCount(); dups > 0 {
		diags = append(diags, Diagnostic{
			Code:    CodeDuplicateRows,
			Message: fmt.Sprintf("The DataFrame contains %d duplicate rows", dups),
			Count:   dups,
		})
	}
	return diags, nil
}
