package clients

import "fmt"

// RowsToRecords turns a header row followed by data rows into one object per
// data row. Blank headers become "column_<n>" and short rows are padded with "".
func RowsToRecords(rows [][]string) []map[string]string {
	records := []map[string]string{}
	if len(rows) == 0 {
		return records
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		header[i] = h
	}

	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		record := make(map[string]string, len(header))
		for i, key := range header {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			record[key] = value
		}
		records = append(records, record)
	}
	return records
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
