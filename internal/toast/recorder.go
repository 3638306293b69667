package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Shown is one recorded toast.
type Shown struct {
	ID      string
	Message string
	Options Options
	At      time.Time
}

// Recorder captures every toast it is asked to show. Used in tests and as a
// tap for the notification archive.
type Recorder struct {
	mu    sync.Mutex
	shown []Shown
	next  func(Shown)
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Tee registers a callback invoked for each recorded toast, after recording.
func (r *Recorder) Tee(fn func(Shown)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = fn
}

// Show records the toast with a fresh id.
func (r *Recorder) Show(message string, opts Options) {
	s := Shown{
		ID:      uuid.NewString(),
		Message: message,
		Options: opts,
		At:      time.Now(),
	}

	r.mu.Lock()
	r.shown = append(r.shown, s)
	next := r.next
	r.mu.Unlock()

	if next != nil {
		next(s)
	}
}

// All returns a copy of every toast shown so far.
func (r *Recorder) All() []Shown {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Shown, len(r.shown))
	copy(out, r.shown)
	return out
}

// Len returns the number of recorded toasts.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shown)
}

// Reset clears the recorded toasts.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = nil
}
