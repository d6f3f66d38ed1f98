package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadColumn returns every value of the named column, in file order. The
// first record is the header; column names match case-insensitively.
// Empty cells read as zero, the same fill applied to missing observations.
func ReadColumn(r io.Reader, column string) ([]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), column) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("column %q not in header %v", column, header)
	}

	var values []float64
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if idx >= len(record) {
			return nil, fmt.Errorf("line %d: missing column %q", line, column)
		}

		cell := strings.TrimSpace(record[idx])
		if cell == "" {
			values = append(values, 0)
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse %q: %w", line, cell, err)
		}
		values = append(values, v)
	}
	return values, nil
}
