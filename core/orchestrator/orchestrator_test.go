package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"meet-recorder-bot/core/capture"
	"meet-recorder-bot/core/models"
	"meet-recorder-bot/core/registry"
	"meet-recorder-bot/core/session"
)

type fakeSessions struct {
	err   error
	gate  chan struct{} // when set, Open blocks until closed
	opens int
}

func (f *fakeSessions) Open(ctx context.Context, meetLink string) (*session.Handle, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.opens++
	if f.err != nil {
		return nil, f.err
	}
	return session.NewHandle(context.Background()), nil
}

type fakeAdmitter struct {
	result models.AdmissionResult
}

func (f *fakeAdmitter) Attempt(ctx context.Context, displayName string) models.AdmissionResult {
	return f.result
}

type fakeCapturer struct {
	dir      string
	data     []byte
	startErr error
	stops    int
}

func (f *fakeCapturer) Start(meetingID string) (*capture.Handle, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	path := filepath.Join(f.dir, "meeting_"+meetingID+"_1.wav")
	if err := os.WriteFile(path, f.data, 0o644); err != nil {
		return nil, err
	}
	return &capture.Handle{FilePath: path, StartedAt: time.Now()}, nil
}

func (f *fakeCapturer) Stop(h *capture.Handle) { f.stops++ }

type fakeProcessor struct {
	status models.JobStatus
	errMsg string
	paths  []string
}

func (f *fakeProcessor) Process(ctx context.Context, meetingID, filePath string) (models.JobStatus, string) {
	f.paths = append(f.paths, filePath)
	return f.status, f.errMsg
}

type fakeReporter struct {
	mu      sync.Mutex
	reports []string
}

func (f *fakeReporter) Report(ctx context.Context, meetingID string, status models.JobStatus, errorMessage string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, string(status))
}

func newTestOrchestrator(t *testing.T, sessions *fakeSessions, capturer *fakeCapturer, processor *fakeProcessor, reporter *fakeReporter) *Orchestrator {
	t.Helper()
	return New(
		registry.New(),
		sessions,
		&fakeAdmitter{result: models.AdmissionResult{State: models.AdmissionUnknown}},
		capturer,
		processor,
		reporter,
		nil,
		"Meeting Bot",
		10*time.Millisecond,
		t.TempDir(),
	)
}

func TestRunHappyPath(t *testing.T) {
	capturer := &fakeCapturer{dir: t.TempDir(), data: []byte("pcm")}
	processor := &fakeProcessor{status: models.JobStatusCompleted}
	reporter := &fakeReporter{}
	o := newTestOrchestrator(t, &fakeSessions{}, capturer, processor, reporter)

	job := models.NewJob("m1", "https://meet.example/abc")
	o.Registry.Register(job)
	o.Run(job)

	if job.Status != models.JobStatusCompleted {
		t.Errorf("job status = %s, want completed", job.Status)
	}
	if capturer.stops != 1 {
		t.Errorf("capture stopped %d times, want 1", capturer.stops)
	}
	if len(processor.paths) != 1 {
		t.Fatalf("pipeline ran %d times, want 1", len(processor.paths))
	}
	if o.Registry.Count() != 0 {
		t.Error("registry entry not removed after Run")
	}
	// The pipeline reports the terminal status itself; the orchestrator
	// must not add a second report.
	if len(reporter.reports) != 0 {
		t.Errorf("orchestrator reported %v on the success path", reporter.reports)
	}
}

func TestRunSessionFailure(t *testing.T) {
	capturer := &fakeCapturer{dir: t.TempDir()}
	processor := &fakeProcessor{status: models.JobStatusCompleted}
	reporter := &fakeReporter{}
	sessions := &fakeSessions{err: errors.New("browser launch failed")}
	o := newTestOrchestrator(t, sessions, capturer, processor, reporter)

	job := models.NewJob("m1", "https://meet.example/abc")
	o.Registry.Register(job)
	o.Run(job)

	if job.Status != models.JobStatusFailed {
		t.Errorf("job status = %s, want failed", job.Status)
	}
	if len(reporter.reports) != 1 || reporter.reports[0] != "failed" {
		t.Errorf("reports = %v, want exactly one failed", reporter.reports)
	}
	if len(processor.paths) != 0 {
		t.Error("pipeline ran after session failure")
	}
	if o.Registry.Count() != 0 {
		t.Error("registry entry not removed after session failure")
	}
}

func TestRunCaptureStartFailure(t *testing.T) {
	capturer := &fakeCapturer{dir: t.TempDir(), startErr: errors.New("no encoder")}
	processor := &fakeProcessor{status: models.JobStatusCompleted}
	reporter := &fakeReporter{}
	o := newTestOrchestrator(t, &fakeSessions{}, capturer, processor, reporter)

	job := models.NewJob("m1", "https://meet.example/abc")
	o.Registry.Register(job)
	o.Run(job)

	if job.Status != models.JobStatusFailed {
		t.Errorf("job status = %s, want failed", job.Status)
	}
	if len(reporter.reports) != 1 || reporter.reports[0] != "failed" {
		t.Errorf("reports = %v, want exactly one failed", reporter.reports)
	}
	if o.Registry.Count() != 0 {
		t.Error("registry entry not removed")
	}
}

func TestRunPipelineFailureStillUnregisters(t *testing.T) {
	capturer := &fakeCapturer{dir: t.TempDir(), data: []byte{}}
	processor := &fakeProcessor{status: models.JobStatusFailed, errMsg: "Audio file is empty"}
	reporter := &fakeReporter{}
	o := newTestOrchestrator(t, &fakeSessions{}, capturer, processor, reporter)

	job := models.NewJob("m1", "https://meet.example/abc")
	o.Registry.Register(job)
	o.Run(job)

	if job.Status != models.JobStatusFailed {
		t.Errorf("job status = %s, want failed", job.Status)
	}
	if job.ErrorMessage != "Audio file is empty" {
		t.Errorf("ErrorMessage = %q", job.ErrorMessage)
	}
	if o.Registry.Count() != 0 {
		t.Error("registry entry not removed")
	}
}

func TestLaunchRegistersBeforeReturning(t *testing.T) {
	gate := make(chan struct{})
	sessions := &fakeSessions{err: errors.New("fail fast after gate"), gate: gate}
	capturer := &fakeCapturer{dir: t.TempDir()}
	processor := &fakeProcessor{status: models.JobStatusCompleted}
	o := newTestOrchestrator(t, sessions, capturer, processor, &fakeReporter{})

	o.Launch(models.NewJob("m1", "https://meet.example/abc"))

	// Entry is visible before any session or capture work has run.
	if o.Registry.Count() != 1 {
		t.Fatalf("registry count = %d right after Launch, want 1", o.Registry.Count())
	}
	if sessions.opens != 0 {
		t.Error("session opened before Launch returned")
	}

	close(gate)
	deadline := time.After(2 * time.Second)
	for o.Registry.Count() != 0 {
		select {
		case <-deadline:
			t.Fatal("background job never unregistered")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
