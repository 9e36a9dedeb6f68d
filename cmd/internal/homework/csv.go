package homework

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DecodeCSV reads records from CSV data with a header row.
//
// Columns are matched by header name, so files with reordered or extra
// columns still load. Empty input yields no records.
func DecodeCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		// Spreadsheet exports sometimes prepend a BOM.
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		idx[h] = i
	}
	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		out = append(out, Record{
			ID:          field(row, "id"),
			Status:      field(row, "status"),
			Teacher:     field(row, "teaNameSurname"),
			Lesson:      field(row, "lesson"),
			StartDate:   field(row, "startDate"),
			EndDate:     field(row, "endDate"),
			Description: field(row, "description"),
		})
	}
}

// EncodeCSV writes the header and every record in Columns order.
func EncodeCSV(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write(r.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalCSV renders records to CSV bytes.
func MarshalCSV(recs []Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, recs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
