package repository

import (
	"database/sql"

	"meet-recorder-bot/core/models"

	"github.com/google/uuid"
)

// EventRepository handles database operations for recording events
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// RecordTransition appends one status transition to a meeting's history
func (r *EventRepository) RecordTransition(meetingID string, fromStatus *models.JobStatus, toStatus models.JobStatus, reason string) error {
	query := `
		INSERT INTO recording_events (id, meeting_id, from_status, to_status, reason)
		VALUES ($1, $2, $3, $4, $5)
	`

	var fromStatusStr *string
	if fromStatus != nil {
		s := string(*fromStatus)
		fromStatusStr = &s
	}

	_, err := r.db.Exec(query, uuid.New(), meetingID, fromStatusStr, toStatus, reason)
	return err
}

// GetMeetingEvents retrieves the transition history for a meeting, newest
// first
func (r *EventRepository) GetMeetingEvents(meetingID string, limit int) ([]models.RecordingEvent, error) {
	query := `
		SELECT id, meeting_id, at, from_status, to_status, reason
		FROM recording_events
		WHERE meeting_id = $1
		ORDER BY at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(query, meetingID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.RecordingEvent
	for rows.Next() {
		var event models.RecordingEvent
		var fromStatus sql.NullString

		err := rows.Scan(
			&event.ID,
			&event.MeetingID,
			&event.At,
			&fromStatus,
			&event.ToStatus,
			&event.Reason,
		)
		if err != nil {
			return nil, err
		}

		if fromStatus.Valid {
			status := models.JobStatus(fromStatus.String)
			event.FromStatus = &status
		}

		events = append(events, event)
	}

	return events, rows.Err()
}
