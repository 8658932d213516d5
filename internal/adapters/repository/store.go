// Package repository keeps the outcome of batch evaluation jobs.
package repository

import (
	"context"
	"time"

	"github.com/okian/detbench/internal/domain/model"
)

// Status is the lifecycle state of a job record.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Record is the stored outcome of one job. Rank is assigned on listing:
// finished jobs are ranked by F1, equal scores share a rank.
type Record struct {
	JobID          string        `json:"id"`
	Path           string        `json:"path"`
	SequenceLength int           `json:"sequence_length,omitempty"`
	Status         Status        `json:"status"`
	Rank           int           `json:"rank,omitempty"`
	Report         *model.Report `json:"report,omitempty"`
	Error          string        `json:"error,omitempty"`
	ErrorKind      string        `json:"error_kind,omitempty"`
	SubmittedAt    time.Time     `json:"submitted_at"`
	FinishedAt     time.Time     `json:"finished_at"`
}

// Store provides read/write access to job records.
type Store interface {
	// Put inserts or replaces the record for r.JobID.
	Put(ctx context.Context, r Record) error

	// Get returns the record for id or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// List returns up to limit records: finished reports by F1 desc then job
	// id, followed by pending and failed records by job id.
	List(ctx context.Context, limit int) ([]Record, error)

	// Count returns the number of records held.
	Count(ctx context.Context) int
}
