package status

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"meet-recorder-bot/core/models"
)

// Reporter pushes job lifecycle transitions to the external status API.
// Status reporting is best-effort telemetry: failures are logged and
// swallowed so they never mask the job's actual outcome.
type Reporter struct {
	BaseURL string
	Client  *http.Client
}

// NewReporter creates a reporter against the given API base URL
func NewReporter(baseURL string) *Reporter {
	return &Reporter{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type statusUpdate struct {
	Status       models.JobStatus `json:"status"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
}

// Report issues a PATCH to /api/meetings/{meetingId} with the new status
func (r *Reporter) Report(ctx context.Context, meetingID string, status models.JobStatus, errorMessage string) {
	body, err := json.Marshal(statusUpdate{Status: status, ErrorMessage: errorMessage})
	if err != nil {
		log.Printf("meeting %s: encoding status update: %v", meetingID, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, r.BaseURL+"/api/meetings/"+meetingID, bytes.NewReader(body))
	if err != nil {
		log.Printf("meeting %s: building status request: %v", meetingID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		log.Printf("meeting %s: updating status: %v", meetingID, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("meeting %s: status update rejected: %d", meetingID, resp.StatusCode)
	}
}
