// Package observer writes run output to disk: JSON run metadata plus a
// tabular, tick-indexed export of gridbox diagnostics. Each run gets its
// own directory holding a metadata.json and a flat table of per-tick
// rows, with gocsv doing the struct-to-CSV marshalling rather than
// hand-rolling it with encoding/csv.
package observer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
)

// RunMetadata is one run's metadata record: the scenario and engine
// parameters that produced it, plus the final diagnostic metrics.
type RunMetadata struct {
	ID           string             `json:"id"`
	Scenario     string             `json:"scenario"`
	Timestamp    time.Time          `json:"timestamp"`
	Seed         int64              `json:"seed"`
	Dt           float64            `json:"dt"`
	NumTicks     int64              `json:"num_ticks"`
	Kernel       string             `json:"kernel"`
	FinalMetrics map[string]float64 `json:"final_metrics"`
}

// GridboxRow is one gridbox's thermodynamic and particle-count snapshot
// at a single tick, the unit gocsv marshals for the tabular export.
type GridboxRow struct {
	Tick     int64   `csv:"tick"`
	GbxIndex uint32  `csv:"gbx_index"`
	NSupers  int     `csv:"n_supers"`
	Press    float64 `csv:"press"`
	Temp     float64 `csv:"temp"`
	Qvap     float64 `csv:"qvap"`
	Qcond    float64 `csv:"qcond"`
}

// Store writes run artifacts under baseDir/<runID>/, one directory per
// run.
type Store struct {
	baseDir string
}

// New returns a Store rooted at baseDir, creating it if necessary.
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &Store{baseDir: baseDir}, nil
}

// Save writes metadata.json and gridboxes.csv for one run, returning the run's
// directory name.
func (s *Store) Save(meta RunMetadata, rows []GridboxRow) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Scenario, meta.Timestamp.Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "gridboxes.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := gocsv.MarshalFile(&rows, csvFile); err != nil {
		return "", err
	}

	return runID, nil
}

// Load reads back a run's metadata and gridbox rows by directory name.
func (s *Store) Load(runID string) (RunMetadata, []GridboxRow, error) {
	runDir := filepath.Join(s.baseDir, runID)

	var meta RunMetadata
	data, err := os.ReadFile(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return meta, nil, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, nil, err
	}

	csvFile, err := os.Open(filepath.Join(runDir, "gridboxes.csv"))
	if err != nil {
		return meta, nil, err
	}
	defer csvFile.Close()

	var rows []GridboxRow
	if err := gocsv.UnmarshalFile(csvFile, &rows); err != nil {
		return meta, nil, err
	}

	return meta, rows, nil
}
