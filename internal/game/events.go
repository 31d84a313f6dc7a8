package game

// EventKind identifies what changed.
type EventKind int

const (
	EventStarted EventKind = iota
	EventElapsed
	EventTick
	EventScore
	EventLevelPassed
	EventLevelFailed
	EventCompleted
	EventRetry
	EventReset
)

// String returns a human-readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventElapsed:
		return "elapsed"
	case EventTick:
		return "tick"
	case EventScore:
		return "score"
	case EventLevelPassed:
		return "level_passed"
	case EventLevelFailed:
		return "level_failed"
	case EventCompleted:
		return "completed"
	case EventRetry:
		return "retry"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event is delivered to the presentation layer after every state change.
type Event struct {
	Kind EventKind

	// Level is the level the event concerns. For EventLevelPassed this is
	// the level just cleared, not the one now active.
	Level int

	View View
}

// Observer receives events. Notify is called on the goroutine that mutated
// the controller and must not block.
type Observer interface {
	Notify(evt Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(evt Event)

// Notify calls f(evt).
func (f ObserverFunc) Notify(evt Event) { f(evt) }
