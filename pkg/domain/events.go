package domain

import (
	"context"
	"time"
)

// HopOutcome describes what the executor did with a hop.
type HopOutcome string

const (
	// HopExecuted means the step ran and arrival was verified.
	HopExecuted HopOutcome = "executed"
	// HopSkipped means the destination was already displayed.
	HopSkipped HopOutcome = "skipped"
	// HopFailed means the step or its verification failed.
	HopFailed HopOutcome = "failed"
)

// NavigationEvent is emitted when a navigation starts and when it ends.
type NavigationEvent struct {
	Timestamp   time.Time     `json:"timestamp"`
	SessionID   string        `json:"session_id,omitempty"`
	EntityType  TypeName      `json:"entity_type"`
	Entity      string        `json:"entity"`
	Destination string        `json:"destination"`
	Phase       Phase         `json:"phase"`
	Hops        int           `json:"hops,omitempty"`
	Attempts    int           `json:"attempts,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Err         error         `json:"-"`
}

// HopEvent is emitted after each hop.
type HopEvent struct {
	Timestamp    time.Time     `json:"timestamp"`
	EntityType   TypeName      `json:"entity_type"`
	Entity       string        `json:"entity"`
	Destination  string        `json:"destination"`
	Index        int           `json:"index"`
	Terminal     bool          `json:"terminal"`
	Attempt      int           `json:"attempt"`
	Outcome      HopOutcome    `json:"outcome"`
	ResetterUsed bool          `json:"resetter_used,omitempty"`
	Waited       bool          `json:"waited,omitempty"`
	Duration     time.Duration `json:"duration"`
	Err          error         `json:"-"`
}

// RecoveryEvent is emitted when a failed step triggers recovery.
type RecoveryEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Entity      string    `json:"entity"`
	Destination string    `json:"destination"`
	Cause       error     `json:"-"`
	Err         error     `json:"-"`
}

// Hooks defines callbacks for navigation observability. Any of them may be nil.
type Hooks struct {
	OnNavigateStart func(context.Context, *NavigationEvent)
	OnNavigateEnd   func(context.Context, *NavigationEvent)
	OnHop           func(context.Context, *HopEvent)
	OnRecover       func(context.Context, *RecoveryEvent)
}
