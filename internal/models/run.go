package models

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	StatusRunning RunStatus = "RUNNING"
	StatusDone    RunStatus = "DONE"
	StatusAborted RunStatus = "ABORTED"
)

// Run is one harvest, from launch to Done or Aborted.
type Run struct {
	ID         uuid.UUID  `json:"id"`
	JobTitle   string     `json:"job_title"`
	Location   string     `json:"location"`
	Target     int        `json:"target"`
	Written    int        `json:"written"`
	Pages      int        `json:"pages"`
	Reloads    int        `json:"reloads"`
	Status     RunStatus  `json:"status"`
	Reason     string     `json:"reason,omitempty"`
	OutputPath string     `json:"output_path"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func NewRun(jobTitle, location string, target int, outputPath string, now time.Time) *Run {
	return &Run{
		ID:         uuid.New(),
		JobTitle:   jobTitle,
		Location:   location,
		Target:     target,
		Status:     StatusRunning,
		OutputPath: outputPath,
		StartedAt:  now,
	}
}

// Finish records the outcome; a nil err means the target was reached.
func (r *Run) Finish(written, pages, reloads int, err error, now time.Time) {
	r.Written = written
	r.Pages = pages
	r.Reloads = reloads
	r.FinishedAt = &now
	if err != nil {
		r.Status = StatusAborted
		r.Reason = err.Error()
		return
	}
	r.Status = StatusDone
	r.Reason = ""
}

func (r *Run) Shortfall() int {
	if r.Written >= r.Target {
		return 0
	}
	return r.Target - r.Written
}

func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
