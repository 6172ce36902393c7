// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"time"
)

// Stage names one pass of the pipeline.
type Stage string

const (
	StageBackup  Stage = "backup"
	StageRename  Stage = "rename"
	StageConvert Stage = "convert"
)

// Status is the outcome of one per-file operation.
type Status string

const (
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
	// StatusPlanned marks an action a dry run would have performed.
	StatusPlanned Status = "planned"
)

// FileResult records what a stage did with one directory entry.
type FileResult struct {
	Stage  Stage  `json:"stage" yaml:"stage"`
	Source string `json:"source" yaml:"source"`
	Dest   string `json:"dest,omitempty" yaml:"dest,omitempty"`
	Status Status `json:"status" yaml:"status"`

	// Reason explains a skip.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	Err error `json:"-" yaml:"-"`

	// Error mirrors Err for serialization.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed builds a failed result and fills the serialized error text.
func Failed(stage Stage, src, dst string, err error) FileResult {
	return FileResult{
		Stage:  stage,
		Source: src,
		Dest:   dst,
		Status: StatusFailed,
		Err:    err,
		Error:  err.Error(),
	}
}

// StageReport collects the results of one stage.
type StageReport struct {
	Stage   Stage        `json:"stage" yaml:"stage"`
	Results []FileResult `json:"results" yaml:"results"`
}

// Add appends a result.
func (s *StageReport) Add(r FileResult) {
	s.Results = append(s.Results, r)
}

// Count returns the number of results with the given status.
func (s StageReport) Count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// HasFailures reports whether any entry failed.
func (s StageReport) HasFailures() bool {
	return s.Count(StatusFailed) > 0
}

// Err joins the errors of every failed entry, or returns nil.
func (s StageReport) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Status != StatusFailed {
			continue
		}
		err := r.Err
		if err == nil {
			err = errors.New(r.Error)
		}
		errs = append(errs, fmt.Errorf("%s %s: %w", s.Stage, r.Source, err))
	}
	return errors.Join(errs...)
}

// Report is the outcome of a full run.
type Report struct {
	Directory  string        `json:"directory" yaml:"directory"`
	Mode       Mode          `json:"mode" yaml:"mode"`
	DryRun     bool          `json:"dry_run" yaml:"dry_run"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time     `json:"finished_at" yaml:"finished_at"`
	Stages     []StageReport `json:"stages" yaml:"stages"`

	// Aborted is true when fail-fast policy stopped the run early.
	Aborted bool `json:"aborted" yaml:"aborted"`
}

// HasFailures reports whether any stage recorded a failure.
func (r Report) HasFailures() bool {
	for _, s := range r.Stages {
		if s.HasFailures() {
			return true
		}
	}
	return false
}

// Err joins every failure across all stages.
func (r Report) Err() error {
	var errs []error
	for _, s := range r.Stages {
		if err := s.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stage returns the report for the named stage, if it ran.
func (r Report) Stage(name Stage) (StageReport, bool) {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return StageReport{}, false
}
