package main

import (
	"encoding/json"
	"os"

	"github.com/pterm/pterm"

	"github.com/mkeats/cadenza/pkg/protocol"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRecordsTable renders records as a table with the given columns; a
// record missing a column leaves the cell empty.
func printRecordsTable(records []protocol.Record, columns []string) error {
	data := make(pterm.TableData, 0, len(records)+1)
	data = append(data, columns)
	for _, rec := range records {
		row := make([]string, 0, len(columns))
		for _, col := range columns {
			row = append(row, rec.Get(col))
		}
		data = append(data, row)
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
