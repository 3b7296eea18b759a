package ragdoll

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

type PointerAction int

const (
	PointerDown PointerAction = iota
	PointerMove
	PointerUp
)

func (a PointerAction) String() string {
	switch a {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	}
	return "unknown"
}

func ParsePointerAction(s string) (PointerAction, bool) {
	switch s {
	case "down":
		return PointerDown, true
	case "move":
		return PointerMove, true
	case "up":
		return PointerUp, true
	}
	return 0, false
}

const ButtonPrimary = 1

// PointerEvent is a pointer sample already projected onto the figure plane.
// Buttons is the held-button bitmask at the time of the event.
type PointerEvent struct {
	Action  PointerAction
	Point   mgl64.Vec3
	Buttons int
}

// PointerInput queues pointer events from any goroutine and replays them on
// the simulation goroutine. Pressed and Position reflect the last drained
// event.
type PointerInput struct {
	mu    sync.Mutex
	queue []PointerEvent

	Pressed  bool
	Position mgl64.Vec3
}

func (in *PointerInput) Push(ev PointerEvent) {
	in.mu.Lock()
	in.queue = append(in.queue, ev)
	in.mu.Unlock()
}

// Drain returns the queued events and updates the pointer state.
func (in *PointerInput) Drain() []PointerEvent {
	in.mu.Lock()
	events := in.queue
	in.queue = nil
	in.mu.Unlock()

	for _, ev := range events {
		in.Position = ev.Point
		switch ev.Action {
		case PointerDown:
			in.Pressed = true
		case PointerMove:
			in.Pressed = ev.Buttons&ButtonPrimary != 0
		case PointerUp:
			in.Pressed = false
		}
	}
	return events
}
