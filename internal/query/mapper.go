package query

import "github.com/oshokin/alarm-history/internal/domain/history"

// MapRow converts one backend record into an output row.
func MapRow(record *history.AlarmRecord) history.OutputRow {
	return history.OutputRow{
		ID:        record.Key(),
		Element:   record.ElementName,
		Parameter: record.ParameterName,
		Value:     record.DisplayValue,
		Time:      record.CreationTime.UTC(),
		Severity:  record.Severity,
		Owner:     record.Owner,
	}
}

// MapRows converts records in encounter order, one row per record.
func MapRows(records []history.AlarmRecord) []history.OutputRow {
	rows := make([]history.OutputRow, 0, len(records))

	for i := range records {
		rows = append(rows, MapRow(&records[i]))
	}

	return rows
}
