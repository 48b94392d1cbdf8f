package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Table is a header-named numeric table. Rows with any unparsable cell are
// dropped and counted.
type Table struct {
	Header  []string
	Rows    [][]float64
	Skipped int
}

// Column returns the values under the named header, matched after trimming
// surrounding whitespace.
func (t Table) Column(name string) ([]float64, error) {
	for i, h := range t.Header {
		if strings.TrimSpace(h) != strings.TrimSpace(name) {
			continue
		}
		out := make([]float64, len(t.Rows))
		for j, row := range t.Rows {
			out[j] = row[i]
		}
		return out, nil
	}
	return nil, errors.Errorf("dataset: no column %q (have %s)", name, strings.Join(t.Header, ", "))
}

func ReadTableFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return ReadTable(f)
}

// ReadTable parses tab-delimited data whose first row names the columns.
func ReadTable(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return Table{}, errors.Wrap(err, "read header")
	}
	t := Table{Header: header}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, errors.Wrap(err, "read row")
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < len(header) {
			t.Skipped++
			continue
		}
		row := make([]float64, len(header))
		ok := true
		for i := range header {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				ok = false
				break
			}
			row[i] = v
		}
		if !ok {
			t.Skipped++
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	if len(t.Rows) == 0 {
		return t, ErrNoData
	}
	return t, nil
}
