package report

import (
	"strings"
)

const noDataLabel = "No Data"

// Serialize renders the table as CSV: every field double-quoted with interior
// quotes doubled, comma separated, CRLF line endings, header row first. An
// empty table degrades to a header plus one explanatory row instead of empty
// or malformed output.
func Serialize(t *Table) string {
	var b strings.Builder

	columns := t.Columns
	if len(columns) == 0 {
		columns = []Column{{Name: noDataLabel, Kind: KindLiteral}}
	}

	header := make([]string, 0, len(columns))
	for _, col := range columns {
		header = append(header, col.Name)
	}
	writeRecord(&b, header)

	if len(t.Rows) == 0 {
		placeholder := make([]string, len(columns))
		placeholder[0] = noDataLabel
		writeRecord(&b, placeholder)
		return b.String()
	}

	for _, row := range t.Rows {
		record := make([]string, len(columns))
		copy(record, row)
		writeRecord(&b, record)
	}
	return b.String()
}

func writeRecord(b *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(field, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
}
