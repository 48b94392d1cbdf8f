package sweep

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/chemlab/internal/quench"
)

// Result columns that follow the axis columns in a sweep CSV.
var resultColumns = []string{"Simulated_QY_Ru1", "Simulated_QY_Ru2", "Ru1_Events", "Ru2_Events"}

func Header(axes []string) []string {
	return append(append([]string(nil), axes...), resultColumns...)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func WriteCSV(w io.Writer, res *Results) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(res.Axes)); err != nil {
		return err
	}
	for _, r := range res.Rows {
		rec := make([]string, 0, len(r.Values)+len(resultColumns))
		for _, v := range r.Values {
			rec = append(rec, formatFloat(v))
		}
		rec = append(rec,
			formatFloat(r.QYRu1),
			formatFloat(r.QYRu2),
			strconv.Itoa(r.EventsRu1),
			strconv.Itoa(r.EventsRu2),
		)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV loads a sweep CSV. Every column before the result columns is an
// axis.
func ReadCSV(r io.Reader) (*Results, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read sweep csv")
	}
	if len(records) == 0 {
		return nil, errors.Wrap(ErrNoRows, "empty csv")
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	res := &Results{}
	isResult := make(map[string]bool, len(resultColumns))
	for _, c := range resultColumns {
		isResult[c] = true
		if _, ok := col[c]; !ok {
			return nil, errors.Errorf("sweep csv: missing column %q", c)
		}
	}
	var axisCols []int
	for i, h := range header {
		if !isResult[h] {
			res.Axes = append(res.Axes, h)
			axisCols = append(axisCols, i)
		}
	}

	for n, rec := range records[1:] {
		row := Row{Index: n, Values: make([]float64, len(axisCols))}
		for k, i := range axisCols {
			if row.Values[k], err = strconv.ParseFloat(rec[i], 64); err != nil {
				return nil, errors.Wrapf(err, "row %d column %s", n+1, header[i])
			}
		}
		if row.QYRu1, err = strconv.ParseFloat(rec[col["Simulated_QY_Ru1"]], 64); err != nil {
			return nil, errors.Wrapf(err, "row %d", n+1)
		}
		if row.QYRu2, err = strconv.ParseFloat(rec[col["Simulated_QY_Ru2"]], 64); err != nil {
			return nil, errors.Wrapf(err, "row %d", n+1)
		}
		if row.EventsRu1, err = parseCount(rec[col["Ru1_Events"]]); err != nil {
			return nil, errors.Wrapf(err, "row %d", n+1)
		}
		if row.EventsRu2, err = parseCount(rec[col["Ru2_Events"]]); err != nil {
			return nil, errors.Wrapf(err, "row %d", n+1)
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

// parseCount accepts integers written as floats ("120.0").
func parseCount(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// Report is the JSON export of a sweep.
type Report struct {
	Parameters quench.Params `json:"parameters"`
	Grid       Grid          `json:"grid"`
	Timestamp  time.Time     `json:"timestamp"`
	Skipped    int           `json:"skipped"`
	Rows       []Row         `json:"rows"`
}

func WriteJSON(w io.Writer, base quench.Params, grid Grid, res *Results, ts time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Report{
		Parameters: base,
		Grid:       grid,
		Timestamp:  ts,
		Skipped:    res.Skipped,
		Rows:       res.Rows,
	})
}

type O2Report struct {
	Parameters O2Study   `json:"parameters"`
	Timestamp  time.Time `json:"timestamp"`
	Data       struct {
		Requested []int     `json:"requested_o2"`
		O2Counts  []int     `json:"o2_counts"`
		Ru1QY     []float64 `json:"ru1_qy_values"`
		Ru2QY     []float64 `json:"ru2_qy_values"`
	} `json:"data"`
}

func WriteO2JSON(w io.Writer, st O2Study, points []O2Point, ts time.Time) error {
	rep := O2Report{Parameters: st, Timestamp: ts}
	for _, p := range points {
		rep.Data.Requested = append(rep.Data.Requested, p.Requested)
		rep.Data.O2Counts = append(rep.Data.O2Counts, p.Placed)
		rep.Data.Ru1QY = append(rep.Data.Ru1QY, p.QYRu1)
		rep.Data.Ru2QY = append(rep.Data.Ru2QY, p.QYRu2)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteO2CSV writes the placed O2 count with both yields.
func WriteO2CSV(w io.Writer, points []O2Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"O2_Count", "Ru1_QY", "Ru2_QY"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := cw.Write([]string{strconv.Itoa(p.Placed), formatFloat(p.QYRu1), formatFloat(p.QYRu2)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
