package job

import (
	"time"
)

// Status is the lifecycle state of a population run.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Job tracks one population run from submission to completion. ResultLink is
// set only on completion; Error only on failure.
type Job struct {
	ID            string    `json:"job_id"`
	Status        Status    `json:"status"`
	ResultLink    string    `json:"result_link,omitempty"`
	Error         string    `json:"error,omitempty"`
	OwnerIdentity string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewJob returns a freshly submitted job in the processing state.
func NewJob(id, ownerIdentity string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:            id,
		Status:        StatusProcessing,
		OwnerIdentity: ownerIdentity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Complete transitions the job to completed with its shareable result link.
func (j *Job) Complete(resultLink string) {
	j.Status = StatusCompleted
	j.ResultLink = resultLink
	j.Error = ""
	j.UpdatedAt = time.Now().UTC()
}

// Fail transitions the job to the error state with a human-readable message.
func (j *Job) Fail(message string) {
	j.Status = StatusError
	j.Error = message
	j.UpdatedAt = time.Now().UTC()
}

// Terminal reports whether the job has finished, successfully or not.
func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusError
}
