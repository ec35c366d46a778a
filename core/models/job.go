package models

import "time"

// Job represents a single meeting audio-capture task
type Job struct {
	MeetingID    string
	MeetLink     string
	Status       JobStatus
	StartTime    time.Time
	ErrorMessage string
}

// NewJob creates a pending job for the given meeting
func NewJob(meetingID, meetLink string) *Job {
	return &Job{
		MeetingID: meetingID,
		MeetLink:  meetLink,
		Status:    JobStatusPending,
	}
}

// SetStatus advances the job status. Transitions are monotonic: once a job
// reaches a later lifecycle stage it never moves back, and terminal states
// are final. Returns false when the transition was refused.
func (j *Job) SetStatus(to JobStatus, errorMessage string) bool {
	if statusRank(to) <= statusRank(j.Status) {
		return false
	}
	j.Status = to
	if to == JobStatusFailed {
		j.ErrorMessage = errorMessage
	}
	return true
}

// IsTerminal reports whether the job reached a terminal state
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// JobStatus represents the lifecycle stage of a capture job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRecording JobStatus = "recording"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

func statusRank(s JobStatus) int {
	switch s {
	case JobStatusPending:
		return 0
	case JobStatusRecording:
		return 1
	case JobStatusCompleted, JobStatusFailed:
		return 2
	default:
		return -1
	}
}

// AdmissionState classifies the outcome of the admission protocol. Admission
// is inferred from the absence of pre-join UI markers, so an evaluation that
// could not run at all yields AdmissionUnknown rather than a guess.
type AdmissionState string

const (
	AdmissionAdmitted    AdmissionState = "admitted"
	AdmissionNotAdmitted AdmissionState = "not_admitted"
	AdmissionUnknown     AdmissionState = "unknown"
)

// AdmissionResult captures what the admission protocol observed
type AdmissionResult struct {
	State AdmissionState
	// Strategy is the name of the locator strategy that matched the
	// name-entry field, empty when the whole chain was exhausted.
	Strategy string
}
