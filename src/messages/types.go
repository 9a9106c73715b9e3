// Package messages defines the typed variants delivered to the
// orchestrator's inbound channel. External signals (hotkeys, UI actions,
// config reloads) all arrive through these; nothing mutates capture
// state directly.
package messages

import (
	"scrollshot/src/capture"
	"scrollshot/src/hotkey"
	"scrollshot/src/session"
)

// Message is the base interface for all inbound orchestrator messages.
type Message interface {
	Type() string
}

const (
	TypeTriggerCapture   = "TriggerCapture"
	TypeSwitchMode       = "SwitchMode"
	TypeRegionSelected   = "RegionSelected"
	TypeWindowPicked     = "WindowPicked"
	TypeConfirm          = "Confirm"
	TypeEsc              = "Esc"
	TypeCancelRequested  = "CancelRequested"
	TypeStartScroll      = "StartScroll"
	TypeScrollFinish     = "ScrollFinish"
	TypeExportDone       = "ExportDone"
	TypeOCRRequested     = "OCRRequested"
	TypeShortcutsChanged = "ShortcutsChanged"
)

// Cancel reasons. Timeout cancellation carries distinct user messaging
// from an explicit user cancel.
const (
	CancelReasonUser    = "user"
	CancelReasonTimeout = "timeout"
)

// TriggerCapture starts a capture session (hotkey or UI trigger).
type TriggerCapture struct {
	Mode capture.Mode
}

func (m TriggerCapture) Type() string { return TypeTriggerCapture }

// SwitchMode changes the overlay's capture mode.
type SwitchMode struct {
	Mode capture.Mode
}

func (m SwitchMode) Type() string { return TypeSwitchMode }

// RegionSelected reports a rectangle dragged on the overlay.
type RegionSelected struct {
	Rect capture.Rect
}

func (m RegionSelected) Type() string { return TypeRegionSelected }

// WindowPicked reports a window chosen from the window picker.
type WindowPicked struct {
	Rect capture.Rect
}

func (m WindowPicked) Type() string { return TypeWindowPicked }

// Confirm advances the session (toolbar confirm / editor confirm).
type Confirm struct{}

func (m Confirm) Type() string { return TypeConfirm }

// Esc is an escape key press; safe to send at any time.
type Esc struct{}

func (m Esc) Type() string { return TypeEsc }

// CancelRequested aborts the session with a reason.
type CancelRequested struct {
	Reason string
}

func (m CancelRequested) Type() string { return TypeCancelRequested }

// StartScroll switches the selected region into scroll capture.
type StartScroll struct{}

func (m StartScroll) Type() string { return TypeStartScroll }

// ScrollFinish completes a scroll session with the given intent.
type ScrollFinish struct {
	Intent session.FinishIntent
}

func (m ScrollFinish) Type() string { return TypeScrollFinish }

// ExportDone reports that the export surface has consumed the result.
type ExportDone struct{}

func (m ExportDone) Type() string { return TypeExportDone }

// OCRRequested asks for text recognition over a rectangle.
type OCRRequested struct {
	Rect capture.Rect
}

func (m OCRRequested) Type() string { return TypeOCRRequested }

// ShortcutsChanged carries a reloaded shortcut configuration.
type ShortcutsChanged struct {
	Entries []hotkey.ShortcutEntry
}

func (m ShortcutsChanged) Type() string { return TypeShortcutsChanged }
