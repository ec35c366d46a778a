package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"meet-recorder-bot/core/models"
	"meet-recorder-bot/core/status"
)

// Archiver persists a copy of the raw artifact before local deletion.
// Optional; archive failures are logged, never escalated to job failure.
type Archiver interface {
	Archive(ctx context.Context, meetingID, filePath string) error
}

// Pipeline validates the capture artifact, encodes it as a transport-safe
// data URI, ships it to the collector webhook, and removes the local file.
// Nothing escapes its boundary: every failure becomes a status update.
type Pipeline struct {
	CollectorURL string
	Client       *http.Client
	Reporter     *status.Reporter
	Archiver     Archiver
}

// NewPipeline creates a pipeline posting to the collector under baseURL
func NewPipeline(baseURL string, reporter *status.Reporter, archiver Archiver) *Pipeline {
	return &Pipeline{
		CollectorURL: baseURL,
		Client:       &http.Client{Timeout: 2 * time.Minute},
		Reporter:     reporter,
		Archiver:     archiver,
	}
}

type webhookPayload struct {
	MeetingID    string `json:"meetingId"`
	AudioDataURI string `json:"audioDataUri"`
}

// Process runs the full post-capture sequence for one artifact and reports
// the terminal status itself. The returned status and message let the
// caller record the outcome on its own job state.
func (p *Pipeline) Process(ctx context.Context, meetingID, filePath string) (models.JobStatus, string) {
	terminal, errMsg := p.process(ctx, meetingID, filePath)

	// The local copy must never outlive the job, success or failure. A
	// leaked temp file is logged, not escalated.
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		log.Printf("meeting %s: removing audio file: %v", meetingID, err)
	}

	p.Reporter.Report(ctx, meetingID, terminal, errMsg)
	return terminal, errMsg
}

func (p *Pipeline) process(ctx context.Context, meetingID, filePath string) (models.JobStatus, string) {
	info, err := os.Stat(filePath)
	if err != nil {
		return models.JobStatusFailed, "Audio file not found"
	}
	if info.Size() == 0 {
		return models.JobStatusFailed, "Audio file is empty"
	}

	log.Printf("meeting %s: audio file size: %d bytes", meetingID, info.Size())

	data, err := os.ReadFile(filePath)
	if err != nil {
		return models.JobStatusFailed, fmt.Sprintf("reading audio file: %v", err)
	}

	// The collector accepts only inline JSON payloads, not multipart
	// bodies, hence the data URI.
	dataURI := "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(data)

	if err := p.upload(ctx, meetingID, dataURI); err != nil {
		return models.JobStatusFailed, err.Error()
	}

	if p.Archiver != nil {
		if err := p.Archiver.Archive(ctx, meetingID, filePath); err != nil {
			log.Printf("meeting %s: archiving artifact: %v", meetingID, err)
		}
	}

	return models.JobStatusCompleted, ""
}

func (p *Pipeline) upload(ctx context.Context, meetingID, dataURI string) error {
	body, err := json.Marshal(webhookPayload{MeetingID: meetingID, AudioDataURI: dataURI})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.CollectorURL+"/api/webhooks/drive", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("sending audio to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook failed: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return nil
}
