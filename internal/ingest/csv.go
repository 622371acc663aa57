// ABOUTME: CSV ingestion source reader with header mapping
// ABOUTME: Requires component, fault_description, root_cause, corrective_action columns
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harper/faultfinder/internal/models"
)

var requiredColumns = []string{"component", "fault_description", "root_cause", "corrective_action"}

// ReadCSVRows reads ingestion rows from a CSV file. The header row maps
// column names to fields; the model column is optional. Reading problems
// are structural failures, not per-row errors.
func ReadCSVRows(path string) ([]models.IngestRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv source: %w", err)
	}
	defer f.Close()
	return ParseCSVRows(f)
}

// ParseCSVRows reads ingestion rows from CSV content, e.g. an uploaded file.
func ParseCSVRows(r io.Reader) ([]models.IngestRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are rejected per-row at validation

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv source is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := cols[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}
	modelIdx, hasModel := cols["model"]

	var rows []models.IngestRow
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", err)
		}

		row := models.IngestRow{
			Component:        fieldAt(fields, cols["component"]),
			FaultDescription: fieldAt(fields, cols["fault_description"]),
			RootCause:        fieldAt(fields, cols["root_cause"]),
			CorrectiveAction: fieldAt(fields, cols["corrective_action"]),
		}
		if hasModel {
			row.Model = fieldAt(fields, modelIdx)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func fieldAt(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}
