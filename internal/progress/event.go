// Package progress defines the event stream emitted by an extraction run and
// the hub that fans it out to sinks.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the milestone an Event represents.
type Stage string

// Supported stages.
const (
	StageRunStart  Stage = "RUN_START"
	StageRunDone   Stage = "RUN_DONE"
	StageRunError  Stage = "RUN_ERROR"
	StagePageDone  Stage = "PAGE_DONE"
	StagePageFail  Stage = "PAGE_FAIL"
	StagePageCache Stage = "PAGE_CACHE"
)

// StatusClass is a coarse HTTP response grouping.
type StatusClass string

// Supported status classes.
const (
	Status2xx   StatusClass = "2xx"
	Status3xx   StatusClass = "3xx"
	Status4xx   StatusClass = "4xx"
	Status5xx   StatusClass = "5xx"
	StatusOther StatusClass = "other"
)

// Event is one progress milestone of a run.
type Event struct {
	// RunID identifies the extraction run.
	RunID uuid.UUID `json:"run_id"`
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time `json:"ts"`
	// Stage is the milestone kind.
	Stage Stage `json:"stage"`
	// Domain scopes the event to the crawled site.
	Domain string `json:"domain"`
	// URL is the page for page-level stages.
	URL string `json:"url,omitempty"`
	// Depth is the page's distance from the seed.
	Depth int `json:"depth,omitempty"`
	// Bytes is the response size for page completions.
	Bytes int64 `json:"bytes,omitempty"`
	// StatusClass groups the HTTP response code.
	StatusClass StatusClass `json:"status_class,omitempty"`
	// Rendered marks pages that went through the headless fallback.
	Rendered bool `json:"rendered,omitempty"`
	// Dur is the milestone latency.
	Dur time.Duration `json:"dur,omitempty"`
	// Note carries low-volume debug context, usually error text.
	Note string `json:"note,omitempty"`
}

// Validate performs coarse validation before an event enters the hub.
func (e Event) Validate() error {
	if e.RunID == uuid.Nil {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError:
	case StagePageDone, StagePageFail, StagePageCache:
		if e.URL == "" {
			return fmt.Errorf("%s requires url", e.Stage)
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// ClassifyStatus groups HTTP status codes.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code >= 200 && code < 300:
		return Status2xx
	case code >= 300 && code < 400:
		return Status3xx
	case code >= 400 && code < 500:
		return Status4xx
	case code >= 500 && code < 600:
		return Status5xx
	default:
		return StatusOther
	}
}
