package dao

import (
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/vigenere-go/internal/errors"
	"github.com/vigenere-go/internal/mirror"
	"github.com/vigenere-go/internal/storage"
)

// runKeyLayout sorts lexically in time order
const runKeyLayout = "20060102T150405.000000000Z"

// RunRecord is the journal entry for one directory mirror run
type RunRecord struct {
	RunID    string    `json:"run_id"`
	Action   string    `json:"action"`
	Source   string    `json:"source"`
	Dest     string    `json:"dest"`
	KeyFP    string    `json:"key_fp"`
	Dirs     int       `json:"dirs"`
	Files    int       `json:"files"`
	Skipped  int       `json:"skipped"`
	Failures int       `json:"failures"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// FailureRecord is one entry that could not be mirrored
type FailureRecord struct {
	RunID string `json:"run_id"`
	Path  string `json:"path"`
	Dest  string `json:"dest"`
	Kind  string `json:"kind"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

// RunDAO handles the run journal
type RunDAO struct {
	store *storage.Store
}

// NewRunDAO creates a new run DAO
func NewRunDAO(store *storage.Store) *RunDAO {
	return &RunDAO{store: store}
}

// Record stores a report and its failures in one transaction
func (d *RunDAO) Record(report *mirror.Report) (*RunRecord, error) {
	failures := report.Failures()
	rec := &RunRecord{
		RunID:    report.RunID,
		Action:   report.Action,
		Source:   report.Source,
		Dest:     report.Dest,
		KeyFP:    report.KeyFP,
		Dirs:     report.Dirs,
		Files:    report.Files,
		Skipped:  report.Skipped,
		Failures: len(failures),
		Started:  report.Started,
		Finished: report.Finished,
	}

	runData, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	runs := map[string][]byte{
		report.Started.UTC().Format(runKeyLayout) + "-" + report.RunID: runData,
	}

	failed := make(map[string][]byte, len(failures))
	for i, res := range failures {
		rec := FailureRecord{
			RunID: report.RunID,
			Path:  res.Path,
			Dest:  res.Dest,
			Kind:  res.Kind.String(),
			Error: res.Err.Error(),
		}
		if code, ok := apperrors.CodeOf(res.Err); ok {
			rec.Code = code.String()
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		failed[fmt.Sprintf("%s/%08d", report.RunID, i)] = data
	}

	err = d.store.Batch(map[string]map[string][]byte{
		string(storage.BucketRuns):     runs,
		string(storage.BucketFailures): failed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record run %s: %w", report.RunID, err)
	}
	return rec, nil
}

// List returns up to limit runs, newest first. limit <= 0 returns all.
func (d *RunDAO) List(limit int) ([]RunRecord, error) {
	var (
		result  []RunRecord
		lastErr error
	)
	err := d.store.Reverse(storage.BucketRuns, func(_, v []byte) bool {
		var rec RunRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			lastErr = err
			return false
		}
		result = append(result, rec)
		return limit <= 0 || len(result) < limit
	})
	if err != nil {
		return nil, err
	}
	if lastErr != nil {
		return nil, fmt.Errorf("corrupt run record: %w", lastErr)
	}
	return result, nil
}

// Failures returns the recorded failures of one run
func (d *RunDAO) Failures(runID string) ([]FailureRecord, error) {
	var result []FailureRecord
	err := d.store.Scan(storage.BucketFailures, runID+"/", func(_, v []byte) error {
		var rec FailureRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return err
		}
		result = append(result, rec)
		return nil
	})
	return result, err
}
