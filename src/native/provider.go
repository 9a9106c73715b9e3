// Package native defines the capture backend consumed by the
// orchestrator and a local implementation of it.
package native

import "scrollshot/src/capture"

// Monitor describes one attached display in screen-logical units.
type Monitor struct {
	ID     int
	Bounds capture.Rect
	Scale  float64
}

// MonitorShot is a monitor plus the file its pixels were captured to.
type MonitorShot struct {
	Monitor
	Path string
}

// Window describes one visible top-level window.
type Window struct {
	ID     int
	App    string
	Title  string
	Bounds capture.Rect
	Z      int
}

// PollState is the outcome of one scroll-region poll.
type PollState string

const (
	PollUnchanged PollState = "unchanged"
	PollScrolling PollState = "scrolling"
	PollCaptured  PollState = "captured"
)

// PollResult reports one poll of the scroll region. FramePath is set
// only when State is PollCaptured.
type PollResult struct {
	State      PollState
	FramePath  string
	FrameCount int
}

// StitchResult reports a completed stitch.
type StitchResult struct {
	Path          string
	TotalFrames   int
	UsedFrames    int
	SkippedFrames int
	FinalHeight   int
}

// Provider is the native capture backend. Every method is a suspension
// point for the orchestrator; implementations may block.
type Provider interface {
	CheckPermission() (bool, error)
	RequestPermission() (bool, error)

	ListMonitors() ([]Monitor, error)
	ListWindows() ([]Window, error)

	// CaptureAllMonitors captures every display into saveDir.
	CaptureAllMonitors(saveDir string) ([]MonitorShot, error)

	// CaptureRect captures rect into saveDir and returns the file path.
	CaptureRect(rect capture.Rect, saveDir string) (string, error)

	// CaptureRectOCR captures rect and returns recognized text. An empty
	// recognition fails with an ocr_empty error.
	CaptureRectOCR(rect capture.Rect, saveDir string) (string, error)

	// ResetScrollMonitor clears scroll-detection state. Call at session
	// start.
	ResetScrollMonitor() error

	// PollScrollRegion samples rect and classifies it against the
	// previous sample.
	PollScrollRegion(rect capture.Rect, framesDir string) (PollResult, error)

	// StitchFrames combines an ordered frame sequence into one image in
	// targetDir. Fails with fewer than two frames.
	StitchFrames(framePaths []string, targetDir string) (StitchResult, error)

	// StitchFramesPreview produces a low-fidelity stitched preview inside
	// sessionDir. Best-effort; callers swallow failures.
	StitchFramesPreview(framePaths []string, sessionDir string) (string, error)

	// CleanupScrollTemp removes the session's temporary directory.
	// Best-effort; errors are ignored by callers.
	CleanupScrollTemp(sessionDir string) error
}
