package orchestrator

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"meet-recorder-bot/core/capture"
	"meet-recorder-bot/core/models"
	"meet-recorder-bot/core/registry"
	"meet-recorder-bot/core/session"
)

// SessionDriver provisions isolated browser sessions
type SessionDriver interface {
	Open(ctx context.Context, meetLink string) (*session.Handle, error)
}

// Admitter drives the pre-join gate inside an active session
type Admitter interface {
	Attempt(ctx context.Context, displayName string) models.AdmissionResult
}

// Capturer owns the audio-recording subprocess
type Capturer interface {
	Start(meetingID string) (*capture.Handle, error)
	Stop(h *capture.Handle)
}

// Processor ships the capture artifact and reports the terminal status
type Processor interface {
	Process(ctx context.Context, meetingID, filePath string) (models.JobStatus, string)
}

// Reporter pushes status transitions to the external system of record
type Reporter interface {
	Report(ctx context.Context, meetingID string, status models.JobStatus, errorMessage string)
}

// EventLog appends status transitions to a persistent history. Optional and
// best-effort.
type EventLog interface {
	RecordTransition(meetingID string, from *models.JobStatus, to models.JobStatus, reason string) error
}

// Orchestrator runs the job lifecycle: session, admission, capture, bounded
// wait, artifact pipeline, status report, teardown. Stages are strictly
// sequential within a job; jobs run concurrently, each owning its own
// session and subprocess.
type Orchestrator struct {
	Registry *registry.Registry

	sessions SessionDriver
	admitter Admitter
	capturer Capturer
	pipeline Processor
	reporter Reporter
	events   EventLog

	DisplayName       string
	RecordingDuration time.Duration
	SnapshotDir       string
}

// New wires an orchestrator. events may be nil when no database is
// configured.
func New(
	reg *registry.Registry,
	sessions SessionDriver,
	admitter Admitter,
	capturer Capturer,
	pipeline Processor,
	reporter Reporter,
	events EventLog,
	displayName string,
	recordingDuration time.Duration,
	snapshotDir string,
) *Orchestrator {
	return &Orchestrator{
		Registry:          reg,
		sessions:          sessions,
		admitter:          admitter,
		capturer:          capturer,
		pipeline:          pipeline,
		reporter:          reporter,
		events:            events,
		DisplayName:       displayName,
		RecordingDuration: recordingDuration,
		SnapshotDir:       snapshotDir,
	}
}

// Launch registers the job and starts its lifecycle in the background. The
// registry entry exists before Launch returns, so the HTTP caller's
// immediate ack is observable in /health; the terminal outcome is delivered
// out-of-band through the status API.
func (o *Orchestrator) Launch(job *models.Job) {
	if replaced := o.Registry.Register(job); replaced {
		log.Printf("meeting %s: a job with this meeting ID was already in flight, replacing its registry entry", job.MeetingID)
	}
	o.recordTransition(job.MeetingID, nil, job.Status, "job_created")
	go o.Run(job)
}

// Run executes the lifecycle for one registered job. Every exit path tears
// down the browser session, removes the registry entry, and has reported
// exactly one terminal status.
func (o *Orchestrator) Run(job *models.Job) {
	ctx := context.Background()
	defer o.Registry.Unregister(job.MeetingID)

	log.Printf("meeting %s: starting recording job for %s", job.MeetingID, job.MeetLink)

	sess, err := o.sessions.Open(ctx, job.MeetLink)
	if err != nil {
		o.fail(ctx, job, fmt.Sprintf("opening session: %v", err))
		return
	}
	defer sess.Close()

	o.snapshot(sess, job.MeetingID, "before_join")

	result := o.admitter.Attempt(sess.Ctx(), o.DisplayName)
	switch result.State {
	case models.AdmissionAdmitted:
		log.Printf("meeting %s: admitted (name field via %q)", job.MeetingID, result.Strategy)
	default:
		// Capture is harmless even if admission actually failed, so an
		// ambiguous or negative read proceeds into recording anyway.
		log.Printf("meeting %s: admission %s, proceeding with capture", job.MeetingID, result.State)
	}

	o.snapshot(sess, job.MeetingID, "after_join")

	h, err := o.capturer.Start(job.MeetingID)
	if err != nil {
		o.fail(ctx, job, fmt.Sprintf("starting capture: %v", err))
		return
	}
	o.Registry.AttachCapture(job.MeetingID, h)

	from := job.Status
	job.SetStatus(models.JobStatusRecording, "")
	job.StartTime = h.StartedAt
	o.recordTransition(job.MeetingID, &from, models.JobStatusRecording, "capture_started")

	log.Printf("meeting %s: recording for %s", job.MeetingID, o.RecordingDuration)
	time.Sleep(o.RecordingDuration)

	o.capturer.Stop(h)

	terminal, errMsg := o.pipeline.Process(ctx, job.MeetingID, h.FilePath)
	from = job.Status
	job.SetStatus(terminal, errMsg)
	o.recordTransition(job.MeetingID, &from, terminal, "pipeline_finished")

	log.Printf("meeting %s: job finished with status %s", job.MeetingID, terminal)
}

// fail reports the single terminal status for jobs that died before the
// artifact pipeline could take over.
func (o *Orchestrator) fail(ctx context.Context, job *models.Job, message string) {
	log.Printf("meeting %s: %s", job.MeetingID, message)
	from := job.Status
	job.SetStatus(models.JobStatusFailed, message)
	o.reporter.Report(ctx, job.MeetingID, models.JobStatusFailed, message)
	o.recordTransition(job.MeetingID, &from, models.JobStatusFailed, message)
}

func (o *Orchestrator) snapshot(sess *session.Handle, meetingID, stage string) {
	path := filepath.Join(o.SnapshotDir, fmt.Sprintf("meeting_%s_%s.png", meetingID, stage))
	if err := sess.Screenshot(path); err != nil {
		log.Printf("meeting %s: could not save %s snapshot: %v", meetingID, stage, err)
	}
}

func (o *Orchestrator) recordTransition(meetingID string, from *models.JobStatus, to models.JobStatus, reason string) {
	if o.events == nil {
		return
	}
	if err := o.events.RecordTransition(meetingID, from, to, reason); err != nil {
		log.Printf("meeting %s: recording event: %v", meetingID, err)
	}
}
