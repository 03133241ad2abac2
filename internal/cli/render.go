package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"logshelf/internal/models"
)

const (
	outputTable = "table"
	outputJSON  = "json"

	displayLayout = "2006-01-02 15:04:05.000"
)

func validateOutput(format string) error {
	switch format {
	case outputTable, outputJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want table or json)", format)
	}
}

// renderRecords writes records as a table or as a JSON array
func renderRecords(w io.Writer, records []models.LogRecord, format string) error {
	if format == outputJSON {
		if records == nil {
			records = []models.LogRecord{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Timestamp", "Severity", "Logger", "Message")
	for i, rec := range records {
		row := []string{
			strconv.Itoa(i + 1),
			rec.Timestamp.UTC().Format(displayLayout),
			rec.Severity,
			rec.Logger,
			rec.Message,
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render record %d: %w", i+1, err)
		}
	}
	return table.Render()
}
