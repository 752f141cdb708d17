// Package input handles SDL2 input events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies a processed input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event represents a processed input event.
type Event struct {
	Type EventType

	// Keyboard
	Key    sdl.Keycode
	Mod    uint16
	Repeat bool

	// Window resize, in screen coordinates
	Width  int
	Height int

	// Mouse position in window coordinates (y down)
	MouseX int
	MouseY int
	// Relative motion for EventMouseMove
	DeltaX int
	DeltaY int
	// Button for down/up events, held button mask for motion
	Button  uint8
	Buttons uint32
	// Wheel steps for EventMouseWheel, positive away from the user
	Wheel int
}

// Input handles all input processing.
type Input struct {
	events []Event
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update drains the SDL event queue.
// Returns true if the application should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			quit = true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			ev := Event{
				Key:    e.Keysym.Sym,
				Mod:    e.Keysym.Mod,
				Repeat: e.Repeat != 0,
			}
			switch e.Type {
			case sdl.KEYDOWN:
				ev.Type = EventKeyDown
			case sdl.KEYUP:
				ev.Type = EventKeyUp
			default:
				continue
			}
			i.events = append(i.events, ev)

		case *sdl.MouseMotionEvent:
			i.events = append(i.events, Event{
				Type:    EventMouseMove,
				MouseX:  int(e.X),
				MouseY:  int(e.Y),
				DeltaX:  int(e.XRel),
				DeltaY:  int(e.YRel),
				Buttons: e.State,
			})

		case *sdl.MouseButtonEvent:
			ev := Event{
				MouseX: int(e.X),
				MouseY: int(e.Y),
				Button: e.Button,
			}
			switch e.Type {
			case sdl.MOUSEBUTTONDOWN:
				ev.Type = EventMouseDown
			case sdl.MOUSEBUTTONUP:
				ev.Type = EventMouseUp
			default:
				continue
			}
			i.events = append(i.events, ev)

		case *sdl.MouseWheelEvent:
			steps := int(e.Y)
			if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
				steps = -steps
			}
			if steps == 0 {
				continue
			}
			x, y, _ := sdl.GetMouseState()
			i.events = append(i.events, Event{
				Type:   EventMouseWheel,
				MouseX: int(x),
				MouseY: int(y),
				Wheel:  steps,
			})
		}
	}

	return quit
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}
