package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"meet-recorder-bot/core/models"
	"meet-recorder-bot/core/orchestrator"
	"meet-recorder-bot/core/repository"

	"github.com/gorilla/mux"
)

// RecordingHandler handles recording-related HTTP requests
type RecordingHandler struct {
	orch   *orchestrator.Orchestrator
	events *repository.EventRepository
}

// NewRecordingHandler creates a new recording handler. events may be nil
// when no database is configured.
func NewRecordingHandler(orch *orchestrator.Orchestrator, events *repository.EventRepository) *RecordingHandler {
	return &RecordingHandler{orch: orch, events: events}
}

// StartRecordingRequest represents the request to start a recording job
type StartRecordingRequest struct {
	MeetingID string `json:"meetingId"`
	MeetLink  string `json:"meetLink"`
}

// StartRecordingResponse acknowledges that the job was launched. The
// terminal outcome is delivered out-of-band via the status API.
type StartRecordingResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MeetingID string `json:"meetingId"`
}

// StartRecording handles POST /start-recording. The job runs in the
// background; this handler only validates the request shape and returns
// immediately.
func (h *RecordingHandler) StartRecording(w http.ResponseWriter, r *http.Request) {
	var req StartRecordingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.MeetingID == "" || req.MeetLink == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "meetingId and meetLink are required",
		})
		return
	}

	h.orch.Launch(models.NewJob(req.MeetingID, req.MeetLink))

	writeJSON(w, http.StatusOK, StartRecordingResponse{
		Success:   true,
		Message:   "Recording started",
		MeetingID: req.MeetingID,
	})
}

// Health handles GET /health
func (h *RecordingHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"activeRecordings": h.orch.Registry.Count(),
		"timestamp":        time.Now().Format(time.RFC3339),
	})
}

// GetRecordingEvents handles GET /recordings/{meetingId}/events
func (h *RecordingHandler) GetRecordingEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		http.Error(w, "Event history is not configured", http.StatusServiceUnavailable)
		return
	}

	vars := mux.Vars(r)
	meetingID := vars["meetingId"]

	events, err := h.events.GetMeetingEvents(meetingID, 100)
	if err != nil {
		http.Error(w, "Failed to fetch events: "+err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]map[string]interface{}, len(events))
	for i, event := range events {
		item := map[string]interface{}{
			"at":        event.At,
			"to_status": event.ToStatus,
			"reason":    event.Reason,
		}
		if event.FromStatus != nil {
			item["from_status"] = *event.FromStatus
		}
		items[i] = item
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
