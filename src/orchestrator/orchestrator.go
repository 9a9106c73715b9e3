// Package orchestrator owns the live capture state and is the only
// component that calls native capture operations. All inputs (hotkeys,
// UI actions, config reloads) arrive as messages on its inbox; async
// native results come back on an internal channel stamped against the
// current operation, so a superseded result can never corrupt a newer
// session.
package orchestrator

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"scrollshot/src/capture"
	"scrollshot/src/errclass"
	"scrollshot/src/hotkey"
	"scrollshot/src/messages"
	"scrollshot/src/native"
	"scrollshot/src/notify"
	"scrollshot/src/scroll"
	"scrollshot/src/session"
	"scrollshot/src/window"
	"scrollshot/src/worker"
)

// Options tunes session behavior. Zero values fall back to defaults.
type Options struct {
	SaveDir             string
	AutoApplyBackground bool
	TriggerDebounce     time.Duration
	PollInterval        time.Duration
	ScrollTimeout       time.Duration
}

type resultKind string

const (
	resultStill  resultKind = "still"
	resultOCR    resultKind = "ocr"
	resultStitch resultKind = "stitch"
)

// asyncResult carries a worker completion back onto the loop goroutine.
type asyncResult struct {
	kind   resultKind
	stamp  uint64
	path   string
	text   string
	err    error
	stitch scroll.StitchOutcome
}

// Orchestrator runs the capture session loop. All fields below the
// channels are confined to the Run goroutine.
type Orchestrator struct {
	provider native.Provider
	win      window.Controller
	notifier notify.Notifier
	pool     *worker.Pool
	manager  *hotkey.Manager
	pipeline *scroll.Pipeline
	opts     Options

	// Export hooks, wired by the shell. Nil hooks are skipped.
	CopyText   func(text string) error
	CopyImage  func(path string) error
	OpenEditor func(path string)

	inbox   chan messages.Message
	results chan asyncResult

	state        capture.State
	monitor      native.Monitor
	haveMonitor  bool
	backgrounds  []native.MonitorShot
	windows      []native.Window
	selectedRect capture.Rect
	haveRect     bool
	lastCapture  string

	opStamp     uint64
	lastTrigger time.Time
	starting    bool

	pollTimer *time.Timer

	now func() time.Time
}

func New(provider native.Provider, registrar hotkey.Registrar, win window.Controller, notifier notify.Notifier, pool *worker.Pool, manager *hotkey.Manager, opts Options) *Orchestrator {
	if opts.TriggerDebounce <= 0 {
		opts.TriggerDebounce = 500 * time.Millisecond
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 220 * time.Millisecond
	}
	if opts.ScrollTimeout <= 0 {
		opts.ScrollTimeout = 120_000 * time.Millisecond
	}

	o := &Orchestrator{
		provider: provider,
		win:      win,
		notifier: notifier,
		pool:     pool,
		manager:  manager,
		opts:     opts,
		inbox:    make(chan messages.Message, 64),
		results:  make(chan asyncResult, 8),
		state:    capture.Idle(),
		now:      time.Now,
	}
	o.pipeline = scroll.New(provider, registrar, win, notifier, pool, opts.SaveDir, o.Post)
	o.pipeline.CopyImage = func(path string) error {
		if o.CopyImage == nil {
			return nil
		}
		return o.CopyImage(path)
	}
	o.pipeline.OpenEditor = func(path string) {
		if o.OpenEditor != nil {
			o.OpenEditor(path)
		}
	}
	return o
}

// Post delivers a message to the loop. Never blocks; under a full inbox
// the message is dropped with a log line, which only ever sheds
// duplicate UI events.
func (o *Orchestrator) Post(msg messages.Message) {
	select {
	case o.inbox <- msg:
	default:
		log.Printf("Orchestrator: inbox full, dropped %s", msg.Type())
	}
}

// State returns the current capture state. Loop-confined; safe for the
// loop goroutine and tests driving handlers directly.
func (o *Orchestrator) State() capture.State { return o.state }

// Run is the event loop. Blocks until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	log.Printf("Orchestrator: running")
	for {
		select {
		case <-ctx.Done():
			o.shutdown()
			return
		case msg := <-o.inbox:
			o.dispatch(msg)
		case res := <-o.results:
			o.handleResult(res)
		case <-o.pollChan():
			o.handlePoll()
		case now := <-ticker.C:
			o.checkTimeout(now)
		}
	}
}

func (o *Orchestrator) dispatch(msg messages.Message) {
	switch m := msg.(type) {
	case messages.TriggerCapture:
		o.startCaptureSession(m.Mode)
	case messages.SwitchMode:
		o.apply(capture.SwitchMode(m.Mode))
	case messages.RegionSelected:
		o.selectRegionOrWindow(m.Rect, capture.SelectRect())
	case messages.WindowPicked:
		o.selectRegionOrWindow(m.Rect, capture.PickWindow())
	case messages.Confirm:
		o.confirm()
	case messages.Esc:
		o.cancelWith(messages.CancelReasonUser, capture.Esc())
	case messages.CancelRequested:
		o.cancelWith(m.Reason, capture.Cancel())
	case messages.StartScroll:
		o.startScroll()
	case messages.ScrollFinish:
		o.scrollFinish(m.Intent)
	case messages.ExportDone:
		o.exportDone()
	case messages.OCRRequested:
		o.runOCR(m.Rect)
	case messages.ShortcutsChanged:
		o.manager.Apply(m.Entries)
	default:
		log.Printf("Orchestrator: unhandled message %s", msg.Type())
	}
}

// apply advances the state machine. Unmatched events are no-ops by
// construction, so callers never need to pre-check for staleness.
func (o *Orchestrator) apply(ev capture.Event) capture.State {
	prev := o.state
	o.state = capture.Transition(o.state, ev)
	if prev.Kind != o.state.Kind {
		log.Printf("State: %s --%s--> %s", prev.Kind, ev.Kind, o.state.Kind)
	}
	return o.state
}

func (o *Orchestrator) nextStamp() uint64 {
	o.opStamp++
	return o.opStamp
}

// startCaptureSession opens the overlay. Guarded against reentry, an
// already-active session, and hardware shortcut double-fire within the
// debounce window.
func (o *Orchestrator) startCaptureSession(mode capture.Mode) {
	if o.starting {
		return
	}
	if o.state.Kind != capture.StateIdle || o.pipeline.Active() {
		log.Printf("Orchestrator: session already active, trigger ignored")
		return
	}
	now := o.now()
	if !o.lastTrigger.IsZero() && now.Sub(o.lastTrigger) < o.opts.TriggerDebounce {
		log.Printf("Orchestrator: trigger within debounce window, ignored")
		return
	}
	o.lastTrigger = now

	o.starting = true
	defer func() { o.starting = false }()

	if mode == "" {
		mode = capture.ModeWindow
	}

	if ok, err := o.provider.CheckPermission(); err == nil && !ok {
		if granted, _ := o.provider.RequestPermission(); !granted {
			o.notifier.Error("Capture", "Screen capture permission denied")
			return
		}
	}

	o.win.Hide()

	monitors, err := o.provider.ListMonitors()
	if err != nil || len(monitors) == 0 {
		o.win.Show()
		msg := "no monitors detected"
		if err != nil {
			msg = err.Error()
		}
		o.notifier.Error("Capture", msg)
		return
	}
	o.monitor = monitorUnder(o.win.CursorPosition(), monitors)
	o.haveMonitor = true

	if wins, err := o.provider.ListWindows(); err != nil {
		log.Printf("Orchestrator: window enumeration failed: %v", err)
	} else {
		o.windows = windowsOn(o.monitor, wins)
	}

	if shots, err := o.provider.CaptureAllMonitors(os.TempDir()); err != nil {
		log.Printf("Orchestrator: background capture failed: %v", err)
	} else {
		o.backgrounds = shots
	}

	o.apply(capture.Trigger(mode))
}

// selectRegionOrWindow stores the selection clamped to the active
// monitor and advances to the toolbar.
func (o *Orchestrator) selectRegionOrWindow(rect capture.Rect, ev capture.Event) {
	if o.state.Kind != capture.StateOverlayActive && o.state.Kind != capture.StateWindowPicking {
		return
	}
	if o.haveMonitor {
		rect = rect.ClampTo(o.monitor.Bounds)
	}
	if rect.TooSmall() {
		o.notifier.Toast("Selection too small")
		return
	}
	o.selectedRect = rect
	o.haveRect = true
	o.apply(ev)
	o.apply(capture.OpenToolbar())
}

func (o *Orchestrator) confirm() {
	switch o.state.Kind {
	case capture.StateRegionSelected:
		o.apply(capture.Confirm())
	case capture.StateToolbarReady:
		o.finishSelection()
	case capture.StatePreviewEditor:
		o.apply(capture.Finish())
		o.export()
	}
}

// finishSelection resolves the session: scroll sessions delegate to the
// pipeline, still sessions run an async capture of the selected rect.
func (o *Orchestrator) finishSelection() {
	if o.pipeline.Active() {
		o.scrollFinish(session.IntentSave)
		return
	}
	if !o.haveRect {
		return
	}

	rect := o.selectedRect
	targetDir := os.TempDir()
	if o.opts.AutoApplyBackground {
		targetDir = o.opts.SaveDir
	}
	stamp := o.nextStamp()
	ok := o.pool.Submit(context.Background(), func(ctx context.Context) (string, error) {
		return o.provider.CaptureRect(rect, targetDir)
	}, func(path string, err error) {
		o.results <- asyncResult{kind: resultStill, stamp: stamp, path: path, err: err}
	})
	if !ok {
		o.notifier.Error("Capture", "Capture worker busy, try again")
		return
	}
	o.apply(capture.Confirm())
}

func (o *Orchestrator) handleResult(res asyncResult) {
	if res.kind == resultStitch {
		o.handleStitch(res.stitch)
		return
	}
	if res.stamp != o.opStamp {
		log.Printf("Orchestrator: stale %s result discarded (stamp %d, current %d)", res.kind, res.stamp, o.opStamp)
		return
	}
	switch res.kind {
	case resultStill:
		o.handleStill(res)
	case resultOCR:
		o.handleOCR(res)
	}
}

func (o *Orchestrator) handleStill(res asyncResult) {
	if res.err != nil {
		if !errclass.Silent(errclass.FromError(res.err)) {
			o.notifier.Error("Capture failed", res.err.Error())
		}
		o.apply(capture.Cancel())
		o.endSession()
		return
	}

	o.lastCapture = res.path
	if o.opts.AutoApplyBackground {
		if o.CopyImage != nil {
			if err := o.CopyImage(res.path); err != nil {
				log.Printf("Orchestrator: clipboard copy failed: %v", err)
			}
		}
		o.notifier.Toast("Capture saved: " + res.path)
		o.apply(capture.Finish())
		o.apply(capture.ExportDone())
		o.endSession()
		return
	}

	// Hand off to the external editor; the session stays in the preview
	// state until the user confirms or escapes.
	if o.OpenEditor != nil {
		o.OpenEditor(res.path)
	}
	o.win.Show()
	o.win.MoveNear(o.selectedRect.Center())
}

// export copies the finished capture out and signals completion.
func (o *Orchestrator) export() {
	if o.lastCapture != "" && o.CopyImage != nil {
		if err := o.CopyImage(o.lastCapture); err != nil {
			log.Printf("Orchestrator: export copy failed: %v", err)
		} else {
			o.notifier.Toast("Capture copied to clipboard")
		}
	}
	o.Post(messages.ExportDone{})
}

func (o *Orchestrator) exportDone() {
	if o.state.Kind != capture.StateExportReady {
		return
	}
	o.apply(capture.ExportDone())
	o.endSession()
}

// cancelWith handles Esc and Cancel. While a stitch is resolving the
// event is a no-op; teardown happens only once the state machine has
// actually left the scroll-active set, so an in-flight stitch is never
// pulled out from under its session.
func (o *Orchestrator) cancelWith(reason string, ev capture.Event) {
	if o.pipeline.Active() {
		o.apply(ev)
		if o.state.ScrollActive() {
			return
		}
		o.stopPoll()
		if reason == messages.CancelReasonTimeout {
			o.notifier.Toast("Scroll capture cancelled after inactivity")
		} else {
			o.notifier.Toast("Scroll capture cancelled")
		}
		o.pipeline.Teardown(o.clearOverlay)
		o.manager.Resume()
		o.win.Restore()
		return
	}

	prev := o.state.Kind
	o.apply(ev)
	if prev != capture.StateIdle && o.state.Kind == capture.StateIdle {
		o.endSession()
	}
}

func (o *Orchestrator) startScroll() {
	if o.state.Kind != capture.StateToolbarReady || !o.haveRect || o.pipeline.Active() {
		return
	}

	// The normal capture set is suspended so the session's transient
	// shortcuts cannot conflict with it.
	o.manager.Suspend()
	if err := o.pipeline.Start(o.selectedRect, o.now()); err != nil {
		o.manager.Resume()
		o.notifier.Error("Scroll capture", err.Error())
		return
	}
	o.apply(capture.StartScroll())
	o.schedulePoll()
}

// handlePoll runs one sample and re-arms the timer only after the poll
// returned, so polls never overlap even when the native call is slow.
func (o *Orchestrator) handlePoll() {
	if !o.pipeline.Active() || !o.state.ScrollActive() {
		o.stopPoll()
		return
	}
	if detected := o.pipeline.Poll(o.now()); detected {
		o.apply(capture.ScrollDetected())
	}
	o.schedulePoll()
}

func (o *Orchestrator) scrollFinish(intent session.FinishIntent) {
	err := o.pipeline.BeginFinish(intent, func(out scroll.StitchOutcome) {
		o.results <- asyncResult{kind: resultStitch, stitch: out}
	})
	switch {
	case err == nil:
		o.pipeline.Touch(o.now())
		o.stopPoll()
		o.apply(capture.Stop())
	case errors.Is(err, scroll.ErrTooFewFrames):
		// Recoverable: the session stays alive so the user can keep
		// scrolling.
		o.notifier.Error("Scroll capture", "Need at least 2 frames to stitch, keep scrolling")
	case errors.Is(err, scroll.ErrFinishInFlight):
		log.Printf("Orchestrator: scroll finish already in flight, ignored")
	case errors.Is(err, scroll.ErrNoSession):
	default:
		o.notifier.Error("Scroll capture", err.Error())
	}
}

func (o *Orchestrator) handleStitch(out scroll.StitchOutcome) {
	if !o.pipeline.Active() {
		log.Printf("Orchestrator: stitch result after teardown discarded")
		return
	}

	o.stopPoll()
	err := o.pipeline.CompleteFinish(out)
	if err != nil {
		o.apply(capture.StitchFail(err.Error()))
		o.pipeline.Teardown(o.clearOverlay)
		o.manager.Resume()
		o.win.Restore()
		o.notifier.Error("Scroll capture failed", err.Error())
		return
	}

	o.apply(capture.StitchSuccess())
	o.pipeline.Teardown(o.clearOverlay)
	o.manager.Resume()
	o.win.Restore()
	o.lastCapture = out.Path

	switch out.Intent {
	case session.IntentEdit:
		o.win.MoveNear(out.Rect.Center())
		// Stays in the preview state while the external editor owns the
		// file.
	default:
		o.apply(capture.Finish())
		o.apply(capture.ExportDone())
	}
}

func (o *Orchestrator) checkTimeout(now time.Time) {
	if o.pipeline.TimedOut(now, o.opts.ScrollTimeout) {
		log.Printf("Orchestrator: scroll session inactive for %v, cancelling", o.opts.ScrollTimeout)
		o.cancelWith(messages.CancelReasonTimeout, capture.Cancel())
	}
}

func (o *Orchestrator) runOCR(rect capture.Rect) {
	if rect.TooSmall() {
		o.notifier.Toast("Selection too small")
		return
	}
	stamp := o.nextStamp()
	ok := o.pool.Submit(context.Background(), func(ctx context.Context) (string, error) {
		return o.provider.CaptureRectOCR(rect, os.TempDir())
	}, func(text string, err error) {
		o.results <- asyncResult{kind: resultOCR, stamp: stamp, text: text, err: err}
	})
	if !ok {
		o.notifier.Error("OCR", "Capture worker busy, try again")
	}
}

func (o *Orchestrator) handleOCR(res asyncResult) {
	if res.err != nil {
		kind := errclass.FromError(res.err)
		if kind == errclass.KindOCREmpty {
			o.notifier.Error("OCR", "No text recognized")
		} else if !errclass.Silent(kind) {
			o.notifier.Error("OCR failed", res.err.Error())
		}
		return
	}
	if o.CopyText != nil {
		if err := o.CopyText(res.text); err != nil {
			log.Printf("Orchestrator: clipboard write failed: %v", err)
			return
		}
	}
	o.notifier.Toast("Recognized text copied to clipboard")
}

// endSession discards overlay state and restores the main window. The
// stamp bump invalidates any async result still in flight.
func (o *Orchestrator) endSession() {
	o.clearOverlay()
	o.win.Restore()
}

func (o *Orchestrator) clearOverlay() {
	o.monitor = native.Monitor{}
	o.haveMonitor = false
	o.backgrounds = nil
	o.windows = nil
	o.selectedRect = capture.Rect{}
	o.haveRect = false
	o.lastCapture = ""
	o.opStamp++
}

func (o *Orchestrator) pollChan() <-chan time.Time {
	if o.pollTimer == nil {
		return nil
	}
	return o.pollTimer.C
}

func (o *Orchestrator) schedulePoll() {
	if o.pollTimer == nil {
		o.pollTimer = time.NewTimer(o.opts.PollInterval)
		return
	}
	o.pollTimer.Reset(o.opts.PollInterval)
}

func (o *Orchestrator) stopPoll() {
	if o.pollTimer != nil {
		o.pollTimer.Stop()
		o.pollTimer = nil
	}
}

func (o *Orchestrator) shutdown() {
	o.stopPoll()
	if o.pipeline.Active() {
		o.pipeline.Teardown(o.clearOverlay)
		o.manager.Resume()
	}
	log.Printf("Orchestrator: stopped")
}

func monitorUnder(p capture.Point, monitors []native.Monitor) native.Monitor {
	for _, m := range monitors {
		if m.Bounds.Contains(p) {
			return m
		}
	}
	return monitors[0]
}

func windowsOn(mon native.Monitor, wins []native.Window) []native.Window {
	var out []native.Window
	for _, w := range wins {
		if !w.Bounds.ClampTo(mon.Bounds).Empty() {
			out = append(out, w)
		}
	}
	return out
}
