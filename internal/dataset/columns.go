// Package dataset reads the plain-text exports produced by the lab
// instruments: two numeric columns, optionally behind a free-form header.
package dataset

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrNoData = errors.New("dataset: no numeric rows")

type Delimiter int

const (
	Whitespace Delimiter = iota
	Tab
)

type Options struct {
	SkipLines int       // leading lines dropped unconditionally
	Marker    string    // when set, data starts on the line after the first line containing it
	Delimiter Delimiter // field separator
	Header    bool      // the first data line names the columns
	XColumn   int
	YColumn   int
}

// Columns holds one x/y series. Skipped counts non-blank lines that did not
// parse as numbers.
type Columns struct {
	Names   [2]string
	X       []float64
	Y       []float64
	Skipped int
}

func (c Columns) Len() int { return len(c.X) }

func ReadColumnsFile(path string, opts Options) (Columns, error) {
	f, err := os.Open(path)
	if err != nil {
		return Columns{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	cols, err := ReadColumns(f, opts)
	if err != nil {
		return Columns{}, errors.Wrap(err, path)
	}
	return cols, nil
}

func ReadColumns(r io.Reader, opts Options) (Columns, error) {
	xc, yc := opts.XColumn, opts.YColumn
	if xc == 0 && yc == 0 {
		yc = 1
	}
	need := xc
	if yc > need {
		need = yc
	}

	var cols Columns
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	started := opts.Marker == ""
	header := opts.Header
	for sc.Scan() {
		line++
		if line <= opts.SkipLines {
			continue
		}
		text := strings.TrimSpace(sc.Text())
		if !started {
			started = strings.Contains(text, opts.Marker)
			continue
		}
		if text == "" {
			continue
		}

		fields := split(text, opts.Delimiter)
		if header {
			header = false
			if len(fields) > need {
				cols.Names = [2]string{fields[xc], fields[yc]}
			}
			continue
		}
		if len(fields) <= need {
			cols.Skipped++
			continue
		}
		x, errX := strconv.ParseFloat(fields[xc], 64)
		y, errY := strconv.ParseFloat(fields[yc], 64)
		if errX != nil || errY != nil {
			cols.Skipped++
			continue
		}
		cols.X = append(cols.X, x)
		cols.Y = append(cols.Y, y)
	}
	if err := sc.Err(); err != nil {
		return Columns{}, errors.Wrap(err, "scan")
	}
	if !started {
		return Columns{}, errors.Errorf("dataset: marker %q not found", opts.Marker)
	}
	if len(cols.X) == 0 {
		return cols, ErrNoData
	}
	return cols, nil
}

func split(line string, d Delimiter) []string {
	if d == Tab {
		parts := strings.Split(line, "\t")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return strings.Fields(line)
}
