package testutil

import (
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// RecordingSink is a ProgressSink that records every event it receives.
type RecordingSink struct {
	mu     sync.Mutex
	events []uploadtypes.ProgressEvent
}

// Progress records an event.
func (r *RecordingSink) Progress(event uploadtypes.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *RecordingSink) Events() []uploadtypes.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uploadtypes.ProgressEvent(nil), r.events...)
}

// Last returns the most recent event, or a zero event when none was recorded.
func (r *RecordingSink) Last() uploadtypes.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return uploadtypes.ProgressEvent{}
	}
	return r.events[len(r.events)-1]
}

// Monotonic reports whether Loaded never decreased across recorded events.
func (r *RecordingSink) Monotonic() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 1; i < len(r.events); i++ {
		if r.events[i].Loaded < r.events[i-1].Loaded {
			return false
		}
	}
	return true
}

// Reset clears the recorded events.
func (r *RecordingSink) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
