// Package csvfile reads a UTF-8, comma-delimited CSV with a header row into
// the ordered rows the sync pipeline consumes.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperengineering/pressync/internal/sync"
)

// ErrEmptyFile is returned when the CSV has no header row at all.
var ErrEmptyFile = errors.New("csv file is empty")

// Load reads rows from the CSV file at path.
func Load(path string) ([]sync.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", path, err)
	}
	return rows, nil
}

// Read decodes CSV records into rows. The first record is the header; column
// names are lowercased and trimmed. Records shorter than the header are
// padded with blanks, longer ones keep only the named columns. A file with a
// header but no data rows yields an empty slice.
func Read(r io.Reader) ([]sync.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		// Strip a UTF-8 BOM exported by spreadsheet tools.
		name = strings.TrimPrefix(name, "\ufeff")
		columns[i] = strings.ToLower(strings.TrimSpace(name))
	}

	var rows []sync.Row
	for number := 1; ; number++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", number, err)
		}

		fields := make(map[string]string, len(columns))
		for i, col := range columns {
			if col == "" {
				continue
			}
			if i < len(record) {
				fields[col] = record[i]
			} else {
				fields[col] = ""
			}
		}
		rows = append(rows, sync.Row{Number: number, Fields: fields})
	}

	return rows, nil
}
