package previz

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// WindowInput adapts a GLFW window to per-frame CursorState. Callbacks feed
// raw events; BeginFrame snapshots them with edge detection, on the same
// goroutine that pumps GLFW events.
type WindowInput struct {
	cursor    mgl32.Vec2
	pressed   bool
	prev      bool
	focusLost bool
}

// AttachWindow installs the cursor, mouse button and focus callbacks.
// Existing callbacks on the window are replaced.
func AttachWindow(win *glfw.Window) *WindowInput {
	in := &WindowInput{}
	win.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		in.cursor = mgl32.Vec2{float32(x), float32(y)}
	})
	win.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		switch action {
		case glfw.Press:
			in.pressed = true
		case glfw.Release:
			in.pressed = false
		}
	})
	win.SetFocusCallback(func(w *glfw.Window, focused bool) {
		if !focused {
			in.focusLost = true
			// Losing focus also drops the button; a release that happens
			// while unfocused never arrives as an event.
			in.pressed = false
		}
	})
	return in
}

// BeginFrame returns this frame's cursor state. Call once per frame after
// glfw.PollEvents.
func (in *WindowInput) BeginFrame() CursorState {
	st := CursorState{
		Pos:          in.cursor,
		Pressed:      in.pressed,
		JustPressed:  in.pressed && !in.prev,
		JustReleased: !in.pressed && in.prev,
		FocusLost:    in.focusLost,
	}
	in.prev = in.pressed
	in.focusLost = false
	return st
}
