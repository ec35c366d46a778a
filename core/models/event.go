package models

import "time"

// RecordingEvent is one status transition in a job's history
type RecordingEvent struct {
	ID         string
	MeetingID  string
	At         time.Time
	FromStatus *JobStatus
	ToStatus   JobStatus
	Reason     string
}
