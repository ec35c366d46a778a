package registry

import (
	"sync"

	"meet-recorder-bot/core/capture"
	"meet-recorder-bot/core/models"
)

// Entry is the live state for one in-flight job: the job itself plus the
// capture subprocess handle once recording has started.
type Entry struct {
	Job     *models.Job
	Capture *capture.Handle
}

// Registry tracks all in-flight jobs by meeting ID. It is the only state
// shared across jobs; each entry is written solely by its own job's
// lifecycle goroutine, the lock exists for the map itself.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Entry
}

// New creates an empty registry
func New() *Registry {
	return &Registry{jobs: make(map[string]*Entry)}
}

// Register adds a job. If an entry for the same meeting ID is already in
// flight it is replaced and true is returned; duplicate requests are not
// queued or rejected, callers are expected to keep meeting IDs unique.
func (r *Registry) Register(job *models.Job) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced := r.jobs[job.MeetingID]
	r.jobs[job.MeetingID] = &Entry{Job: job}
	return replaced
}

// AttachCapture records the capture handle for an in-flight job
func (r *Registry) AttachCapture(meetingID string, h *capture.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.jobs[meetingID]; ok {
		entry.Capture = h
	}
}

// Unregister removes a job's entry. Safe to call for an unknown or already
// removed meeting ID.
func (r *Registry) Unregister(meetingID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, meetingID)
}

// Get returns the live entry for a meeting ID
func (r *Registry) Get(meetingID string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.jobs[meetingID]
	return entry, ok
}

// Count returns the number of in-flight jobs
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
