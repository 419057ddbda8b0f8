package capture

import (
	"sync"
	"time"
)

// CameraStatus is the operational snapshot for one camera loop.
type CameraStatus struct {
	Name                string     `json:"name"`
	Room                string     `json:"room"`
	LastAttempt         *time.Time `json:"last_attempt,omitempty"`
	LastSuccess         *time.Time `json:"last_success,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
}

// StatusRegistry tracks camera health across concurrent capture loops.
type StatusRegistry struct {
	mu       sync.Mutex
	statuses map[string]*CameraStatus
}

func NewStatusRegistry() *StatusRegistry {
	return &StatusRegistry{
		statuses: make(map[string]*CameraStatus),
	}
}

func (r *StatusRegistry) Register(name, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.statuses[name]; !ok {
		r.statuses[name] = &CameraStatus{Name: name, Room: room}
	}
}

func (r *StatusRegistry) RecordSuccess(name string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.statuses[name]
	if s == nil {
		return
	}
	s.LastAttempt = &at
	s.LastSuccess = &at
	s.LastError = ""
	s.ConsecutiveFailures = 0
}

func (r *StatusRegistry) RecordFailure(name string, at time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.statuses[name]
	if s == nil {
		return
	}
	s.LastAttempt = &at
	s.LastError = err.Error()
	s.ConsecutiveFailures++
}

// Snapshot returns copies of all camera statuses.
func (r *StatusRegistry) Snapshot() []CameraStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CameraStatus, 0, len(r.statuses))
	for _, s := range r.statuses {
		out = append(out, *s)
	}
	return out
}
