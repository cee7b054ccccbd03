package google

import (
	"fmt"
	"strings"

	"sheetledger/internal/core"
)

// parseRows converts a values matrix (as returned by Sheets API for
// Expenses!A2:C) into entries. Short rows are padded: a missing amount is
// zero and a missing type is an expense. Fully blank rows are skipped.
func parseRows(values [][]interface{}) []core.Entry {
	out := make([]core.Entry, 0, len(values))
	for _, row := range values {
		if isBlank(row) {
			continue
		}
		out = append(out, core.Entry{
			Name:   strings.TrimSpace(cellString(row, 0)),
			Amount: core.CoerceCell(cellAt(row, 1)),
			Type:   core.ParseEntryType(cellString(row, 2)),
		})
	}
	return out
}

func cellAt(row []interface{}, i int) interface{} {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

func cellString(row []interface{}, i int) string {
	v := cellAt(row, i)
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func isBlank(row []interface{}) bool {
	for i := range row {
		if strings.TrimSpace(cellString(row, i)) != "" {
			return false
		}
	}
	return true
}
