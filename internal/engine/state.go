package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperifyio/leadscout/internal/search"
)

// State is the lifecycle position of one aggregation run.
type State string

const (
	StatePending   State = "pending"
	StateFetching  State = "fetching"
	StateMerging   State = "merging"
	StateScoring   State = "scoring"
	StateRanked    State = "ranked"
	StateDone      State = "done"
	StateAllFailed State = "all_failed"
)

// Event reports a run transition, or a platform transition when Platform is
// set.
type Event struct {
	RunID         string
	State         State
	Platform      search.PlatformID
	PlatformState search.PlatformState
}

// Observer receives events in order. Calls are never concurrent.
type Observer func(Event)

// ErrAllPlatformsFailed is matched by *AllPlatformsFailedError.
var ErrAllPlatformsFailed = errors.New("all platforms failed")

// AllPlatformsFailedError is returned when no requested platform produced
// postings. It carries the per-platform outcomes for reporting.
type AllPlatformsFailedError struct {
	RunID    string
	Outcomes []search.PlatformOutcome
}

func (e *AllPlatformsFailedError) Error() string {
	parts := make([]string, 0, len(e.Outcomes))
	for _, o := range e.Outcomes {
		parts = append(parts, fmt.Sprintf("%s: %s", o.Platform, o.Message))
	}
	return ErrAllPlatformsFailed.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *AllPlatformsFailedError) Is(target error) bool { return target == ErrAllPlatformsFailed }
