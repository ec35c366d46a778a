package routes

import (
	"meet-recorder-bot/api/rest/handlers"
	"meet-recorder-bot/core/orchestrator"
	"meet-recorder-bot/core/repository"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *mux.Router, orch *orchestrator.Orchestrator, events *repository.EventRepository) {
	recordingHandler := handlers.NewRecordingHandler(orch, events)

	r.HandleFunc("/start-recording", recordingHandler.StartRecording).Methods("POST")
	r.HandleFunc("/health", recordingHandler.Health).Methods("GET")
	r.HandleFunc("/recordings/{meetingId}/events", recordingHandler.GetRecordingEvents).Methods("GET")
}
