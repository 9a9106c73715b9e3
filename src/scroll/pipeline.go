// Package scroll runs the scroll-capture pipeline: transient shortcut
// ownership, the self-rescheduling frame sampling loop, the inactivity
// timeout and the finishing stitch. All methods are called from the
// orchestrator's loop goroutine; only worker callbacks run elsewhere and
// they hand results back through the orchestrator's inbox.
package scroll

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"scrollshot/src/capture"
	"scrollshot/src/hotkey"
	"scrollshot/src/messages"
	"scrollshot/src/native"
	"scrollshot/src/notify"
	"scrollshot/src/session"
	"scrollshot/src/window"
	"scrollshot/src/worker"
)

// Transient shortcuts owned by an active scroll session. The normal
// capture set is suspended for the session's lifetime so these cannot
// conflict with it.
const (
	ComboSave     = "Ctrl+S"
	ComboEdit     = "Ctrl+E"
	ComboCopyOnly = "Ctrl+Shift+C"
	ComboCancel   = "Esc"
)

var scrollCombos = []string{ComboSave, ComboEdit, ComboCopyOnly, ComboCancel}

// ErrTooFewFrames is the deterministic finish failure below two captured
// frames. The session survives it; the user may keep scrolling.
var ErrTooFewFrames = errors.New("stitch_failed:Need at least 2 frames to stitch")

// ErrFinishInFlight guards against a second finish starting while one is
// still resolving.
var ErrFinishInFlight = errors.New("finish already in progress")

// ErrNoSession reports a finish or poll against a torn-down session.
var ErrNoSession = errors.New("no active scroll session")

// StitchOutcome is the resolution of an async finish, delivered back to
// the orchestrator loop.
type StitchOutcome struct {
	Intent session.FinishIntent
	Rect   capture.Rect
	Path   string
	Err    error
}

// Pipeline drives one scroll session at a time.
type Pipeline struct {
	provider  native.Provider
	registrar hotkey.Registrar
	win       window.Controller
	notifier  notify.Notifier
	pool      *worker.Pool
	post      func(messages.Message)

	// CopyImage and OpenEditor resolve the finish intents that leave the
	// pipeline's scope. Nil hooks are skipped.
	CopyImage  func(path string) error
	OpenEditor func(path string)

	saveDir string

	sess      *session.Scroll
	scrolling bool
	finishing bool
}

func New(provider native.Provider, registrar hotkey.Registrar, win window.Controller, notifier notify.Notifier, pool *worker.Pool, saveDir string, post func(messages.Message)) *Pipeline {
	return &Pipeline{
		provider:  provider,
		registrar: registrar,
		win:       win,
		notifier:  notifier,
		pool:      pool,
		post:      post,
		saveDir:   saveDir,
	}
}

// Active reports whether a scroll session currently exists.
func (p *Pipeline) Active() bool { return p.sess != nil }

// Session exposes the live session for read-only inspection.
func (p *Pipeline) Session() *session.Scroll { return p.sess }

// Scrolling reports the transient "actively scrolling" indicator.
func (p *Pipeline) Scrolling() bool { return p.scrolling }

// Start opens a scroll session over rect: resets scroll detection,
// claims the transient shortcut set and enables mouse passthrough so
// clicks reach the application under capture. The caller suspends the
// normal capture shortcuts first.
func (p *Pipeline) Start(rect capture.Rect, now time.Time) error {
	if p.sess != nil {
		return fmt.Errorf("scroll session %s already active", p.sess.ID)
	}

	if err := p.provider.ResetScrollMonitor(); err != nil {
		return fmt.Errorf("failed to reset scroll monitor: %w", err)
	}

	sess, err := session.NewScroll(rect, now)
	if err != nil {
		return err
	}

	if err := p.registerShortcuts(); err != nil {
		p.unregisterShortcuts()
		_ = p.provider.CleanupScrollTemp(sess.Dir)
		return err
	}

	p.win.SetMousePassthrough(true)
	p.sess = sess
	p.scrolling = false
	p.finishing = false
	log.Printf("Scroll: session %s started rect=%+v", sess.ID, rect)
	return nil
}

func (p *Pipeline) registerShortcuts() error {
	actions := map[string]func(){
		ComboSave:     func() { p.post(messages.ScrollFinish{Intent: session.IntentSave}) },
		ComboEdit:     func() { p.post(messages.ScrollFinish{Intent: session.IntentEdit}) },
		ComboCopyOnly: func() { p.post(messages.ScrollFinish{Intent: session.IntentCopyOnly}) },
		ComboCancel:   func() { p.post(messages.CancelRequested{Reason: messages.CancelReasonUser}) },
	}
	for _, combo := range scrollCombos {
		if err := p.registrar.Register(combo, actions[combo]); err != nil {
			return fmt.Errorf("failed to register scroll shortcut %s: %w", combo, err)
		}
	}
	return nil
}

func (p *Pipeline) unregisterShortcuts() {
	for _, combo := range scrollCombos {
		p.registrar.Unregister(combo)
	}
}

// Poll samples the session rectangle once and reports whether scroll
// activity was detected (the caller feeds ScrollDetected to the state
// machine). The caller reschedules the next poll only after this one
// returns, so polls never overlap.
func (p *Pipeline) Poll(now time.Time) (detected bool) {
	if p.sess == nil {
		return false
	}

	res, err := p.provider.PollScrollRegion(p.sess.Rect, p.sess.FramesDir)
	if err != nil {
		log.Printf("Scroll: poll failed: %v", err)
		return false
	}

	switch res.State {
	case native.PollScrolling:
		p.scrolling = true
		p.sess.Touch(now)
		return true
	case native.PollCaptured:
		p.scrolling = false
		p.sess.AppendFrame(res.FramePath)
		p.sess.Touch(now)
		log.Printf("Scroll: frame %d captured", p.sess.FrameCount())
		p.requestPreview()
	}
	return false
}

// requestPreview schedules a best-effort low-fidelity stitch of all
// frames so far. Failures and dropped submissions are swallowed.
func (p *Pipeline) requestPreview() {
	frames := p.sess.Frames()
	if len(frames) < 2 {
		return
	}
	dir := p.sess.Dir
	p.pool.Submit(context.Background(), func(ctx context.Context) (string, error) {
		return p.provider.StitchFramesPreview(frames, dir)
	}, func(path string, err error) {
		if err != nil {
			log.Printf("Scroll: preview stitch failed (ignored): %v", err)
		}
	})
}

// TimedOut reports whether the inactivity threshold has elapsed. The
// caller's 1s ticker drives this; only polls and user actions write the
// activity timestamp.
func (p *Pipeline) TimedOut(now time.Time, timeout time.Duration) bool {
	if p.sess == nil {
		return false
	}
	return session.ShouldAutoCancel(p.sess.LastActivity(), now, timeout)
}

// Touch records explicit user activity.
func (p *Pipeline) Touch(now time.Time) {
	if p.sess != nil {
		p.sess.Touch(now)
	}
}

// BeginFinish validates and starts the async stitch for intent. The
// outcome arrives through onDone from a worker goroutine; the caller
// routes it back to its loop and then calls CompleteFinish.
// ErrTooFewFrames leaves the session alive so scrolling can continue.
func (p *Pipeline) BeginFinish(intent session.FinishIntent, onDone func(StitchOutcome)) error {
	if p.sess == nil {
		return ErrNoSession
	}
	if p.finishing {
		return ErrFinishInFlight
	}
	if p.sess.FrameCount() < 2 {
		return ErrTooFewFrames
	}

	frames := p.sess.Frames()
	rect := p.sess.Rect
	targetDir, err := p.targetDir(intent)
	if err != nil {
		return err
	}

	p.finishing = true
	submitted := p.pool.Submit(context.Background(), func(ctx context.Context) (string, error) {
		res, err := p.provider.StitchFrames(frames, targetDir)
		if err != nil {
			return "", err
		}
		log.Printf("Scroll: stitched %d/%d frames (skipped %d), height=%d",
			res.UsedFrames, res.TotalFrames, res.SkippedFrames, res.FinalHeight)
		return res.Path, nil
	}, func(path string, err error) {
		onDone(StitchOutcome{Intent: intent, Rect: rect, Path: path, Err: err})
	})
	if !submitted {
		p.finishing = false
		return fmt.Errorf("processing:capture workers busy, try again")
	}
	return nil
}

func (p *Pipeline) targetDir(intent session.FinishIntent) (string, error) {
	switch intent {
	case session.IntentSave:
		return p.saveDir, nil
	case session.IntentCopyOnly:
		return p.sess.Dir, nil
	case session.IntentEdit:
		return os.TempDir(), nil
	default:
		return "", fmt.Errorf("unknown finish intent %q", intent)
	}
}

// CompleteFinish applies a resolved stitch outcome: clipboard for
// copy_only, editor handoff for edit. It releases the finish guard and
// reports whether the outcome succeeded; the caller feeds the state
// machine and tears the session down on either path.
func (p *Pipeline) CompleteFinish(out StitchOutcome) error {
	p.finishing = false
	if out.Err != nil {
		return out.Err
	}

	switch out.Intent {
	case session.IntentCopyOnly:
		if p.CopyImage != nil {
			if err := p.CopyImage(out.Path); err != nil {
				return fmt.Errorf("failed to copy stitched image: %w", err)
			}
		}
		p.notifier.Toast("Scroll capture copied to clipboard")
	case session.IntentSave:
		p.notifier.Toast("Scroll capture saved: " + out.Path)
	case session.IntentEdit:
		if p.OpenEditor != nil {
			p.OpenEditor(out.Path)
		}
	}
	return nil
}

// Teardown releases everything a session holds, in strict order:
// transient shortcuts first, then mouse passthrough, then (via the hook)
// the caller's overlay state, then the session's temp directory and
// in-memory state. Window restore is the caller's last step. Safe to
// call with no session.
func (p *Pipeline) Teardown(afterInputs func()) {
	p.unregisterShortcuts()
	p.win.SetMousePassthrough(false)
	if afterInputs != nil {
		afterInputs()
	}
	if p.sess != nil {
		if err := p.provider.CleanupScrollTemp(p.sess.Dir); err != nil {
			log.Printf("Scroll: temp cleanup failed (ignored): %v", err)
		}
		log.Printf("Scroll: session %s torn down", p.sess.ID)
	}
	p.sess = nil
	p.scrolling = false
	p.finishing = false
}
