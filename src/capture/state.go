package capture

// StateKind identifies the phase of a capture session.
type StateKind string

const (
	StateIdle           StateKind = "idle"
	StateOverlayActive  StateKind = "overlay_active"
	StateWindowPicking  StateKind = "window_picking"
	StateRegionSelected StateKind = "region_selected"
	StateToolbarReady   StateKind = "toolbar_ready"
	StateScrollReady    StateKind = "scroll_ready"
	StateScrollCapture  StateKind = "scroll_capturing"
	StateStitching      StateKind = "stitching"
	StatePreviewEditor  StateKind = "preview_editor"
	StateExportReady    StateKind = "export_ready"
	StateError          StateKind = "error"
)

// State is the single process-wide capture state. It is owned by the
// orchestrator and advanced only through Transition.
type State struct {
	Kind   StateKind
	Mode   Mode   // set for OverlayActive, RegionSelected, ToolbarReady
	Reason string // set for Error
}

func Idle() State                  { return State{Kind: StateIdle} }
func OverlayActive(m Mode) State   { return State{Kind: StateOverlayActive, Mode: m} }
func WindowPicking() State         { return State{Kind: StateWindowPicking} }
func RegionSelected(m Mode) State  { return State{Kind: StateRegionSelected, Mode: m} }
func ToolbarReady(m Mode) State    { return State{Kind: StateToolbarReady, Mode: m} }
func ScrollReady() State           { return State{Kind: StateScrollReady} }
func ScrollCapturing() State       { return State{Kind: StateScrollCapture} }
func Stitching() State             { return State{Kind: StateStitching} }
func PreviewEditor() State         { return State{Kind: StatePreviewEditor} }
func ExportReady() State           { return State{Kind: StateExportReady} }
func ErrorState(reason string) State {
	return State{Kind: StateError, Reason: reason}
}

// EventKind identifies an input to the state machine.
type EventKind string

const (
	EvTrigger       EventKind = "trigger"
	EvSwitchMode    EventKind = "switch_mode"
	EvPickWindow    EventKind = "pick_window"
	EvSelectRect    EventKind = "select_rect"
	EvEsc           EventKind = "esc"
	EvConfirm       EventKind = "confirm"
	EvCancel        EventKind = "cancel"
	EvOpenToolbar   EventKind = "open_toolbar"
	EvStartScroll   EventKind = "start_scroll"
	EvScrollDetect  EventKind = "scroll_detected"
	EvStop          EventKind = "stop"
	EvSpace         EventKind = "space"
	EvStitchSuccess EventKind = "stitch_success"
	EvStitchFail    EventKind = "stitch_fail"
	EvFinish        EventKind = "finish"
	EvExportDone    EventKind = "export_done"
)

// Event is an input to the state machine.
type Event struct {
	Kind   EventKind
	Mode   Mode   // set for Trigger, SwitchMode
	Reason string // set for StitchFail
}

func Trigger(m Mode) Event          { return Event{Kind: EvTrigger, Mode: m} }
func SwitchMode(m Mode) Event       { return Event{Kind: EvSwitchMode, Mode: m} }
func PickWindow() Event             { return Event{Kind: EvPickWindow} }
func SelectRect() Event             { return Event{Kind: EvSelectRect} }
func Esc() Event                    { return Event{Kind: EvEsc} }
func Confirm() Event                { return Event{Kind: EvConfirm} }
func Cancel() Event                 { return Event{Kind: EvCancel} }
func OpenToolbar() Event            { return Event{Kind: EvOpenToolbar} }
func StartScroll() Event            { return Event{Kind: EvStartScroll} }
func ScrollDetected() Event         { return Event{Kind: EvScrollDetect} }
func Stop() Event                   { return Event{Kind: EvStop} }
func Space() Event                  { return Event{Kind: EvSpace} }
func StitchSuccess() Event          { return Event{Kind: EvStitchSuccess} }
func StitchFail(reason string) Event {
	return Event{Kind: EvStitchFail, Reason: reason}
}
func Finish() Event     { return Event{Kind: EvFinish} }
func ExportDone() Event { return Event{Kind: EvExportDone} }

// Transition is the pure, total transition function. Any (state, event)
// pair without an explicit rule returns the input state unchanged, so the
// UI may dispatch stale or duplicate events at any time without harm.
func Transition(s State, e Event) State {
	switch s.Kind {
	case StateIdle:
		if e.Kind == EvTrigger {
			return OverlayActive(e.Mode)
		}
	case StateOverlayActive:
		switch e.Kind {
		case EvEsc, EvCancel:
			return Idle()
		case EvSwitchMode:
			if e.Mode == ModeWindow {
				return WindowPicking()
			}
			return OverlayActive(e.Mode)
		case EvPickWindow:
			return RegionSelected(ModeWindow)
		case EvSelectRect:
			return RegionSelected(s.Mode)
		}
	case StateWindowPicking:
		switch e.Kind {
		case EvEsc, EvCancel:
			return Idle()
		case EvPickWindow:
			return RegionSelected(ModeWindow)
		}
	case StateRegionSelected:
		switch e.Kind {
		case EvEsc, EvCancel:
			return Idle()
		case EvOpenToolbar, EvConfirm:
			return ToolbarReady(s.Mode)
		}
	case StateToolbarReady:
		switch e.Kind {
		case EvEsc, EvCancel:
			return Idle()
		case EvStartScroll:
			return ScrollReady()
		case EvConfirm:
			return PreviewEditor()
		}
	case StateScrollReady:
		switch e.Kind {
		case EvEsc, EvCancel:
			return Idle()
		case EvScrollDetect:
			return ScrollCapturing()
		}
	case StateScrollCapture:
		switch e.Kind {
		case EvEsc, EvCancel:
			return Idle()
		case EvStop, EvSpace:
			return Stitching()
		}
	case StateStitching:
		switch e.Kind {
		case EvStitchSuccess:
			return PreviewEditor()
		case EvStitchFail:
			return ErrorState(e.Reason)
		}
	case StatePreviewEditor:
		switch e.Kind {
		case EvEsc, EvCancel:
			return Idle()
		case EvFinish:
			return ExportReady()
		}
	case StateExportReady:
		if e.Kind == EvExportDone {
			return Idle()
		}
	case StateError:
		switch e.Kind {
		case EvEsc, EvCancel:
			return Idle()
		}
	}
	return s
}

// ScrollActive reports whether a scroll session must exist in this state.
func (s State) ScrollActive() bool {
	switch s.Kind {
	case StateScrollReady, StateScrollCapture, StateStitching:
		return true
	}
	return false
}
