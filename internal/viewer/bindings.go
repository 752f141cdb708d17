package viewer

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/mancet/internal/engine/input"
)

// Action is something a key press asks the viewer to do.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionReload
	ActionPanLeft
	ActionPanRight
	ActionPanUp
	ActionPanDown
	ActionZoomIn
	ActionZoomOut
	ActionMoreIterations
	ActionFewerIterations
	ActionResetView
	ActionScreenshot
	ActionOpenShader
	ActionSaveView
)

// ActionFor maps a key-down event to an action. Auto-repeated presses only
// drive the continuous actions (pan, zoom, iterations).
func ActionFor(ev input.Event) Action {
	if ev.Type != input.EventKeyDown {
		return ActionNone
	}

	ctrl := ev.Mod&sdl.KMOD_CTRL != 0

	var action Action
	switch ev.Key {
	case sdl.K_ESCAPE, sdl.K_q:
		action = ActionQuit
	case sdl.K_r:
		action = ActionReload
	case sdl.K_LEFT, sdl.K_a:
		action = ActionPanLeft
	case sdl.K_RIGHT, sdl.K_d:
		action = ActionPanRight
	case sdl.K_UP, sdl.K_w:
		action = ActionPanUp
	case sdl.K_DOWN:
		action = ActionPanDown
	case sdl.K_s:
		if ctrl {
			action = ActionSaveView
		} else {
			action = ActionPanDown
		}
	case sdl.K_PAGEUP:
		action = ActionZoomIn
	case sdl.K_PAGEDOWN:
		action = ActionZoomOut
	case sdl.K_EQUALS, sdl.K_PLUS, sdl.K_KP_PLUS:
		action = ActionMoreIterations
	case sdl.K_MINUS, sdl.K_KP_MINUS:
		action = ActionFewerIterations
	case sdl.K_HOME:
		action = ActionResetView
	case sdl.K_F12:
		action = ActionScreenshot
	case sdl.K_o:
		action = ActionOpenShader
	}

	if ev.Repeat && !action.repeatable() {
		return ActionNone
	}
	return action
}

func (a Action) repeatable() bool {
	switch a {
	case ActionPanLeft, ActionPanRight, ActionPanUp, ActionPanDown,
		ActionZoomIn, ActionZoomOut,
		ActionMoreIterations, ActionFewerIterations:
		return true
	}
	return false
}
