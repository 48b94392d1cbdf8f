package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/chemlab/internal/quench"
)

const metadataFile = "metadata.json"

var ErrNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Kind      string             `json:"kind"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Params    map[string]float64 `json:"params"`
	Labels    map[string]string  `json:"labels,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
	Files     []string           `json:"files"`
}

// Table is a numeric CSV written next to the metadata.
type Table struct {
	Name   string
	Header []string
	Rows   [][]float64
}

// Save creates a new run directory holding metadata.json and one CSV per
// table.
func (s *Store) Save(meta RunMetadata, tables ...Table) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	now := time.Now()
	meta.Timestamp = now
	base := fmt.Sprintf("%s_%s", meta.Kind, now.Format("20060102_150405"))
	meta.ID = base
	for i := 1; ; i++ {
		err := os.Mkdir(filepath.Join(s.baseDir, meta.ID), 0755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return "", err
		}
		meta.ID = fmt.Sprintf("%s_%d", base, i)
	}
	runDir := filepath.Join(s.baseDir, meta.ID)

	for _, t := range tables {
		if err := writeTable(filepath.Join(runDir, t.Name), t); err != nil {
			return "", errors.Wrapf(err, "write %s", t.Name)
		}
		meta.Files = append(meta.Files, t.Name)
	}
	if err := s.writeMetadata(&meta); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *Store) writeMetadata(meta *RunMetadata) error {
	f, err := os.Create(filepath.Join(s.baseDir, meta.ID, metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeTable(path string, t Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = strconv.FormatFloat(v, 'f', 6, 64)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteFile adds a file produced by fn to an existing run and records it
// in the metadata.
func (s *Store) WriteFile(runID, name string, fn func(w io.Writer) error) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", name)
	}
	if err := f.Close(); err != nil {
		return err
	}
	for _, existing := range meta.Files {
		if existing == name {
			return nil
		}
	}
	meta.Files = append(meta.Files, name)
	return s.writeMetadata(meta)
}

// SaveJSON stores v as an indented JSON document in the run.
func (s *Store) SaveJSON(runID, name string, v interface{}) error {
	return s.WriteFile(runID, name, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

func (s *Store) Open(runID, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNotFound, "%s/%s", runID, name)
	}
	return f, err
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "decode %s metadata", runID)
	}
	return &meta, nil
}

// LoadTable reads a numeric CSV back. Cells that do not parse are skipped
// and empty rows dropped.
func (s *Store) LoadTable(runID, name string) (Table, error) {
	rc, err := s.Open(runID, name)
	if err != nil {
		return Table{}, err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return Table{}, err
	}

	t := Table{Name: name}
	if len(records) == 0 {
		return t, nil
	}
	t.Header = records[0]
	for _, record := range records[1:] {
		row := make([]float64, 0, len(record))
		for _, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				continue
			}
			row = append(row, v)
		}
		if len(row) > 0 {
			t.Rows = append(t.Rows, row)
		}
	}
	return t, nil
}

// SaveSimulation stores a finished run with per-complex and per-quencher
// tables.
func (s *Store) SaveSimulation(res *quench.Result) (string, error) {
	meta := RunMetadata{
		Kind:   "simulate",
		Seed:   res.Params.Seed,
		Params: res.Params.Fields(),
		Labels: map[string]string{"placement": res.Params.Placement.String()},
		Metrics: map[string]float64{
			"qy_ru1":        res.Ru1.QY(),
			"qy_ru2":        res.Ru2.QY(),
			"qy_difference": res.Difference(),
			"ru1_events":    float64(res.Ru1.Events()),
			"ru2_events":    float64(res.Ru2.Events()),
			"placed_ru1":    float64(res.Placed.Ru1),
			"placed_ru2":    float64(res.Placed.Ru2),
			"placed_o2":     float64(res.Placed.O2),
			"runtime_s":     res.Runtime.Seconds(),
		},
	}
	return s.Save(meta, ComplexTable(res.Complexes), QuencherTable(res.O2))
}

func ComplexTable(cs []*quench.Complex) Table {
	t := Table{
		Name:   "complexes.csv",
		Header: []string{"x", "y", "species", "emissions", "quenched", "excitations", "qy", "mean_duration"},
	}
	for _, c := range cs {
		t.Rows = append(t.Rows, []float64{
			c.X, c.Y, float64(c.Species),
			float64(c.Emissions), float64(c.Quenched), float64(c.Excited),
			c.QY(), c.MeanDuration(),
		})
	}
	return t
}

func QuencherTable(qs []*quench.Quencher) Table {
	t := Table{
		Name:   "quenchers.csv",
		Header: []string{"x", "y", "quenches", "path_length"},
	}
	for _, q := range qs {
		t.Rows = append(t.Rows, []float64{q.X, q.Y, float64(q.Quenches), q.PathLength})
	}
	return t
}
