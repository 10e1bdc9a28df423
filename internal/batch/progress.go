package batch

import "fmt"

// Status is the lifecycle state of one waypoint's document.
type Status int

const (
	StatusPending Status = iota
	StatusWorking
	StatusComplete
	StatusFailed
)

// Event is one progress update from the generator.
type Event struct {
	// Index is the waypoint's position along the route.
	Index int

	// Name is the output file's base name.
	Name string

	// Status is the waypoint's new state.
	Status Status

	// Message carries the failure reason for StatusFailed.
	Message string
}

// Reporter emits progress events through a buffered channel.
type Reporter struct {
	ch chan Event
}

// NewReporter creates a Reporter with a buffered channel of size 64.
func NewReporter() *Reporter {
	return &Reporter{ch: make(chan Event, 64)}
}

// Emit sends a progress event in a non-blocking fashion.
// If the channel is full, the event is silently dropped.
func (r *Reporter) Emit(event Event) {
	select {
	case r.ch <- event:
	default:
		// Drop the event if the channel is full.
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (r *Reporter) Subscribe() <-chan Event {
	return r.ch
}

// Close closes the progress event channel.
func (r *Reporter) Close() {
	close(r.ch)
}

// FormatEvent formats an Event as a human-readable status line.
func FormatEvent(event Event) string {
	switch event.Status {
	case StatusPending:
		return fmt.Sprintf("  ○ %s (pending)", event.Name)
	case StatusWorking:
		return fmt.Sprintf("  ● %s...", event.Name)
	case StatusComplete:
		return fmt.Sprintf("  ✓ %s complete", event.Name)
	case StatusFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", event.Name, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", event.Name)
	}
}
