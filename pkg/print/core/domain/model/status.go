package model

// JobStatus is the state of a print job, and of the printer running it.
type JobStatus string

const (
	JobStatusReady      JobStatus = "READY"
	JobStatusPrinting   JobStatus = "PRINTING"
	JobStatusPaused     JobStatus = "PAUSED"
	JobStatusCancelling JobStatus = "CANCELLING"
	JobStatusCancelled  JobStatus = "CANCELLED"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// String returns the string representation of the JobStatus.
func (s JobStatus) String() string {
	return string(s)
}

// IsPrintActive reports whether a printer in this status is running a print.
// A paused or cancelling print is still active.
func (s JobStatus) IsPrintActive() bool {
	switch s {
	case JobStatusPrinting, JobStatusPaused, JobStatusCancelling:
		return true
	default:
		return false
	}
}

// IsFinished reports whether the status is terminal.
func (s JobStatus) IsFinished() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}
