// Package filereader parses uploaded catalog and requirement files into raw
// string-keyed records for normalization.
package filereader

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions the reader cannot
// parse.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Reader parses CSV and JSON uploads, selected by the filename extension.
// XLSX is recognized as a catalog source but has no parser here, so it is
// rejected explicitly.
type Reader struct{}

func New() *Reader { return &Reader{} }

// ReadCatalog parses a catalog upload into raw records.
func (r *Reader) ReadCatalog(filename string, data []byte) ([]map[string]any, error) {
	return r.read(filename, data)
}

// ReadRequirements parses a requirements upload into raw records.
func (r *Reader) ReadRequirements(filename string, data []byte) ([]map[string]any, error) {
	return r.read(filename, data)
}

func (r *Reader) read(filename string, data []byte) ([]map[string]any, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return readCSV(data)
	case ".json":
		return readJSON(data)
	case ".xlsx":
		return nil, fmt.Errorf("%w: .xlsx", ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func readCSV(data []byte) ([]map[string]any, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	records := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]any, len(header))
		for i, key := range header {
			if i >= len(row) {
				break
			}
			record[key] = cellValue(key, row[i])
		}
		records = append(records, record)
	}
	return records, nil
}

// cellValue decodes an attributes cell holding a JSON object into a mapping;
// every other cell stays a plain string.
func cellValue(key, value string) any {
	if strings.TrimSpace(strings.ToLower(key)) != "attributes" {
		return value
	}
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var attributes map[string]any
	if err := json.Unmarshal([]byte(value), &attributes); err != nil {
		return value
	}
	return attributes
}

func readJSON(data []byte) ([]map[string]any, error) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return records, nil
}
