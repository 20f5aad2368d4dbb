package google

import (
	"fmt"

	"buraq/internal/core"
)

// parseValues converts a values matrix (as returned by Sheets API) into a
// raw table. The first row is the header; the API trims trailing empty
// cells, so rows may be shorter than the header.
func parseValues(values [][]interface{}) core.RawTable {
	if len(values) == 0 {
		return core.RawTable{}
	}
	headers := make([]string, len(values[0]))
	for i, v := range values[0] {
		headers[i] = cellText(v)
	}
	rows := make([][]core.Cell, 0, len(values)-1)
	for _, in := range values[1:] {
		r := make([]core.Cell, len(in))
		for i, v := range in {
			if v == nil {
				r[i] = core.Null
				continue
			}
			r[i] = core.Text(cellText(v))
		}
		rows = append(rows, r)
	}
	return core.RawTable{Headers: headers, Rows: rows}
}

func cellText(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
