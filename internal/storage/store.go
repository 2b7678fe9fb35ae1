package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/physlab/internal/demo"
	"github.com/san-kum/physlab/internal/export"
)

const (
	metadataFile = "metadata.json"
	snapshotFile = "snapshot.json"
	seriesFile   = "series.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

// Store keeps one directory per saved run under baseDir.
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Demo      demo.Kind          `json:"demo"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Params    map[string]float64 `json:"params"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Series is a loaded series.csv: a header row and numeric rows. Cells that
// fail to parse are NaN.
type Series struct {
	Headers []string
	Rows    [][]float64
}

// Column returns the values under header name, or nil if absent.
func (s *Series) Column(name string) []float64 {
	idx := -1
	for i, h := range s.Headers {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]float64, 0, len(s.Rows))
	for _, r := range s.Rows {
		if idx < len(r) {
			out = append(out, r[idx])
		}
	}
	return out
}

// Save writes the model's snapshot and recorded series. meta.ID, Demo,
// Timestamp and Params are filled in from the model when empty.
func (s *Store) Save(m demo.Model, meta RunMetadata) (string, error) {
	snap, err := m.Snapshot()
	if err != nil {
		return "", err
	}

	if meta.Demo == "" {
		meta.Demo = m.Kind()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = s.now()
	}
	if meta.Params == nil {
		meta.Params = m.GetParams()
	}
	if meta.ID == "" {
		meta.ID = s.newID(meta.Demo, meta.Timestamp)
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, snapshotFile), snap); err != nil {
		return "", err
	}

	body, err := export.CSV(m.Records(), export.Options{})
	if err != nil {
		return "", fmt.Errorf("encode series: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, seriesFile), []byte(body), 0644); err != nil {
		return "", err
	}

	return meta.ID, nil
}

func (s *Store) newID(kind demo.Kind, ts time.Time) string {
	base := fmt.Sprintf("%s_%d", kind, ts.Unix())
	id := base
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(s.baseDir, id)); os.IsNotExist(err) {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, filepath.Base(filepath.Dir(path)))
		}
		return err
	}
	return json.Unmarshal(data, v)
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

		var meta RunMetadata
		if err := readJSON(filepath.Join(s.baseDir, entry.Name(), metadataFile), &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	var meta RunMetadata
	if err := readJSON(filepath.Join(s.baseDir, runID, metadataFile), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSnapshot(runID string) (demo.Snapshot, error) {
	var snap demo.Snapshot
	if err := readJSON(filepath.Join(s.baseDir, runID, snapshotFile), &snap); err != nil {
		return demo.Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return &Series{}, nil
	}

	series := &Series{
		Headers: records[0],
		Rows:    make([][]float64, 0, len(records)-1),
	}
	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		row := make([]float64, len(record))
		for j, cell := range record {
			val, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				val = math.NaN()
			}
			row[j] = val
		}
		series.Rows = append(series.Rows, row)
	}

	return series, nil
}

// Delete removes a run directory.
func (s *Store) Delete(runID string) error {
	dir := filepath.Join(s.baseDir, runID)
	if _, err := os.Stat(filepath.Join(dir, metadataFile)); err != nil {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return os.RemoveAll(dir)
}
