package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/lbartron/Verlet/internal/config"
	"github.com/lbartron/Verlet/internal/sim"
)

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
)

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

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Spawner     string             `json:"spawner"`
	Boundary    string             `json:"boundary"`
	Integrator  string             `json:"integrator"`
	Broadphase  string             `json:"broadphase"`
	Width       float64            `json:"width"`
	Height      float64            `json:"height"`
	Dt          float64            `json:"dt"`
	FrameDt     float64            `json:"frame_dt"`
	Frames      int                `json:"frames"`
	Steps       int                `json:"steps"`
	Particles   int                `json:"particles"`
	DroppedTime float64            `json:"dropped_time"`
	Metrics     map[string]float64 `json:"metrics"`
	Errors      []string           `json:"errors,omitempty"`
}

// Series is the per-frame data of a stored run.
type Series struct {
	Times  []float64
	Counts []int
	Values map[string][]float64
}

// Save writes metadata.json and series.csv under a fresh run directory and
// returns the run id. Non-finite metrics are left out of the metadata. A
// failed save removes the run directory.
func (s *Store) Save(name string, cfg *config.Config, result *sim.Result) (string, error) {
	ts := s.now()
	runDir, runID, err := s.makeRunDir(fmt.Sprintf("%s_%s", name, ts.Format("20060102-150405")))
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Name:        name,
		Timestamp:   ts,
		Seed:        cfg.Seed,
		Spawner:     cfg.Spawner.Kind,
		Boundary:    cfg.Boundary,
		Integrator:  cfg.Integrator,
		Broadphase:  cfg.Broadphase,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Dt:          cfg.Dt,
		FrameDt:     cfg.FrameDt,
		Frames:      result.Frames,
		Steps:       result.StepsTaken,
		DroppedTime: result.Dropped,
		Metrics:     finiteMetrics(result.Metrics),
	}
	if n := len(result.Counts); n > 0 {
		meta.Particles = result.Counts[n-1]
	}
	for _, e := range result.Errors {
		meta.Errors = append(meta.Errors, e.Error())
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), &meta); err != nil {
		os.RemoveAll(runDir)
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), result); err != nil {
		os.RemoveAll(runDir)
		return "", fmt.Errorf("failed to write series: %w", err)
	}
	return runID, nil
}

func finiteMetrics(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for name, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[name] = v
	}
	return out
}

func writeMetadata(path string, meta *RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// makeRunDir creates base, or base_2, base_3... if runs share a second.
func (s *Store) makeRunDir(base string) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	id := base
	for n := 2; ; n++ {
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, id, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
}

func seriesNames(result *sim.Result) []string {
	names := make([]string, 0, len(result.Series))
	for name := range result.Series {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func writeSeries(path string, result *sim.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)

	names := seriesNames(result)
	header := append([]string{"time", "count"}, names...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range result.Times {
		row := []string{strconv.FormatFloat(result.Times[i], 'f', 6, 64)}
		if i < len(result.Counts) {
			row = append(row, strconv.Itoa(result.Counts[i]))
		} else {
			row = append(row, "0")
		}
		for _, name := range names {
			vals := result.Series[name]
			if i < len(vals) {
				row = append(row, strconv.FormatFloat(vals[i], 'g', -1, 64))
			} else {
				row = append(row, "0")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
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

	slices.SortStableFunc(runs, func(a, b RunMetadata) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	out := &Series{Values: make(map[string][]float64)}
	if len(records) < 2 {
		return out, nil
	}

	header := records[0]
	if len(header) < 2 || header[0] != "time" || header[1] != "count" {
		return nil, fmt.Errorf("run %s: unexpected series header %v", runID, header)
	}

	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		n, err := strconv.Atoi(record[1])
		if err != nil {
			continue
		}
		out.Times = append(out.Times, t)
		out.Counts = append(out.Counts, n)

		for j := 2; j < len(record) && j < len(header); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				val = 0
			}
			out.Values[header[j]] = append(out.Values[header[j]], val)
		}
	}

	return out, nil
}
