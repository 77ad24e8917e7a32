package progress

import (
	"sync"

	"github.com/invoice-workbench/backend/internal/models"
)

// Tracker holds the per-file upload states of a single batch attempt. Byte
// events, resolution, and snapshot reads are serialized by its mutex so each
// update derives from the latest states rather than a stale capture.
type Tracker struct {
	mu       sync.RWMutex
	ranges   []models.FileByteRange
	states   []models.FileUploadState
	resolved bool
}

// NewTracker computes the byte layout for the ordered file list and starts
// every file in the queued stage.
func NewTracker(files []FileMeta) *Tracker {
	t := &Tracker{
		ranges: LayoutRanges(files),
		states: make([]models.FileUploadState, len(files)),
	}
	for i, f := range files {
		t.states[i] = models.FileUploadState{
			Name:  f.Name,
			Stage: models.StageQueued,
		}
	}
	return t
}

// Observe applies a cumulative bytes-transferred event. Events arriving after
// resolution are ignored.
func (t *Tracker) Observe(bytesLoaded int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resolved {
		return
	}
	t.states = Advance(t.ranges, bytesLoaded, t.states)
}

// Complete resolves the batch successfully: every file becomes complete at
// 100%.
func (t *Tracker) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resolved {
		return
	}
	for i := range t.states {
		t.states[i].Stage = models.StageComplete
		t.states[i].Progress = 100
		t.states[i].Message = ""
	}
	t.resolved = true
}

// Fail resolves the batch as failed. The service call is all-or-nothing for
// the batch, so every file is marked errored with the same message; there is
// no per-file server acknowledgment to do better.
func (t *Tracker) Fail(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resolved {
		return
	}
	for i := range t.states {
		t.states[i].Stage = models.StageError
		t.states[i].Progress = 100
		t.states[i].Message = message
	}
	t.resolved = true
}

// Snapshot returns a copy of the current per-file states.
func (t *Tracker) Snapshot() []models.FileUploadState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.FileUploadState, len(t.states))
	copy(out, t.states)
	return out
}

// Resolved reports whether the batch call has completed or failed.
func (t *Tracker) Resolved() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.resolved
}

// Ranges returns the immutable byte layout of this attempt.
func (t *Tracker) Ranges() []models.FileByteRange {
	return t.ranges
}

// Total returns the total payload size in bytes.
func (t *Tracker) Total() int64 {
	return TotalBytes(t.ranges)
}
