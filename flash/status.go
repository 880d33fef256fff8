package flash

import "fmt"

// State is the lifecycle of a flash session
type State int

const (
	StateIdle State = iota
	StateErasing
	StateWriting
	StateCompleted
	StateFailed
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateErasing:
		return "erasing"
	case StateWriting:
		return "writing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateAborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further events follow s
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateAborted
}

// Event is a status notification from a flash session. Events are advisory;
// nothing in the protocol waits on them.
type Event struct {
	State State

	// Offset is the image offset of the last acknowledged block while
	// writing, or of the failing block on a write failure
	Offset int

	// Progress is the completion percentage (0 to 100)
	Progress float64

	// Message is the human readable status line
	Message string

	// Err is set on Failed and Aborted events
	Err error
}

// ReportFunc receives events from a running sequencer. It runs on the
// sequencer goroutine and should return quickly.
type ReportFunc func(Event)
