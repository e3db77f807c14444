package sinks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/oakline/sitetruth/internal/progress"
)

// MemorySink keeps the most recent events in a bounded ring so the HTTP
// progress endpoint can report on live and recent runs without a durable
// store.
type MemorySink struct {
	mu     sync.RWMutex
	ring   []progress.Event
	next   int
	filled bool
	byRun  map[uuid.UUID]runState
}

type runState struct {
	Domain    string
	Done      bool
	Failed    bool
	PagesDone int
	PagesFail int
	Bytes     int64
}

// RunStatus is the endpoint-facing view of one run.
type RunStatus struct {
	RunID     string `json:"run_id"`
	Domain    string `json:"domain"`
	State     string `json:"state"`
	PagesDone int    `json:"pages_done"`
	PagesFail int    `json:"pages_failed"`
	Bytes     int64  `json:"bytes"`
}

// NewMemorySink holds up to capacity events (default 512).
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = 512
	}
	return &MemorySink{
		ring:  make([]progress.Event, capacity),
		byRun: make(map[uuid.UUID]runState),
	}
}

// Consume records the batch.
func (s *MemorySink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, evt := range batch {
		s.ring[s.next] = evt
		s.next = (s.next + 1) % len(s.ring)
		if s.next == 0 {
			s.filled = true
		}

		state := s.byRun[evt.RunID]
		if state.Domain == "" {
			state.Domain = evt.Domain
		}
		switch evt.Stage {
		case progress.StagePageDone, progress.StagePageCache:
			state.PagesDone++
			state.Bytes += evt.Bytes
		case progress.StagePageFail:
			state.PagesFail++
		case progress.StageRunDone:
			state.Done = true
		case progress.StageRunError:
			state.Done = true
			state.Failed = true
		}
		s.byRun[evt.RunID] = state
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *MemorySink) Close(context.Context) error { return nil }

// Recent returns up to n most recent events, oldest first.
func (s *MemorySink) Recent(n int) []progress.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	size := s.next
	if s.filled {
		size = len(s.ring)
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]progress.Event, 0, n)
	start := s.next - n
	if start < 0 {
		start += len(s.ring)
	}
	for i := 0; i < n; i++ {
		out = append(out, s.ring[(start+i)%len(s.ring)])
	}
	return out
}

// Runs summarizes every run the sink has seen.
func (s *MemorySink) Runs() []RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RunStatus, 0, len(s.byRun))
	for id, state := range s.byRun {
		status := "running"
		switch {
		case state.Failed:
			status = "failed"
		case state.Done:
			status = "done"
		}
		out = append(out, RunStatus{
			RunID:     id.String(),
			Domain:    state.Domain,
			State:     status,
			PagesDone: state.PagesDone,
			PagesFail: state.PagesFail,
			Bytes:     state.Bytes,
		})
	}
	return out
}
