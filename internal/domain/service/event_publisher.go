package service

import (
	"context"
)

// Job is a unit of background work delivered through the job publisher.
type Job struct {
	RequestID string `json:"request_id,omitempty"` // For distributed tracing
	JobID     string `json:"job_id"`
	Type      string `json:"type"`
	ItemID    string `json:"item_id,omitempty"`
}

// JobPublisher defines the interface for handing jobs to a queue or worker.
type JobPublisher interface {
	// PublishJob enqueues a job for async processing.
	PublishJob(ctx context.Context, job *Job) error

	// Close releases any resources held by the publisher
	Close() error
}

// JobHandler executes jobs. Returning an error marks the job for retry where the transport supports it.
type JobHandler interface {
	HandleJob(ctx context.Context, job *Job) error
}
