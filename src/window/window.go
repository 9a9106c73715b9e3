// Package window abstracts the main application window. The orchestrator
// treats the window's decoration/focus/position state as a single
// resource: whoever enters overlay or scroll mode restores it on every
// exit path.
package window

import (
	"log"

	"scrollshot/src/capture"
)

// Controller is implemented by the UI shell hosting the orchestrator.
type Controller interface {
	// Hide removes the main window from screen before the overlay opens.
	Hide()

	// Show brings the main window back without altering its geometry.
	Show()

	// Restore re-applies decorations, always-on-top, resizability, size
	// and focus after a session ends.
	Restore()

	// SetMousePassthrough lets clicks fall through the main window to
	// the application under capture.
	SetMousePassthrough(enabled bool)

	// MoveNear positions the window close to a point, typically the
	// capture rectangle's centroid.
	MoveNear(p capture.Point)

	// CursorPosition reports the pointer location in screen-logical
	// coordinates, used to resolve the active monitor.
	CursorPosition() capture.Point
}

// Noop is a headless controller for builds without a UI shell.
type Noop struct{}

func (Noop) Hide()                         { log.Printf("window: hide") }
func (Noop) Show()                         { log.Printf("window: show") }
func (Noop) Restore()                      { log.Printf("window: restore") }
func (Noop) SetMousePassthrough(on bool)   { log.Printf("window: passthrough=%v", on) }
func (Noop) MoveNear(p capture.Point)      { log.Printf("window: move near %d,%d", p.X, p.Y) }
func (Noop) CursorPosition() capture.Point { return capture.Point{} }
