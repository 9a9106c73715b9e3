package scroll

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"scrollshot/src/capture"
	"scrollshot/src/messages"
	"scrollshot/src/native"
	"scrollshot/src/notify"
	"scrollshot/src/session"
	"scrollshot/src/worker"
)

type fakeProvider struct {
	polls      []native.PollResult
	pollErr    error
	resetCalls int
	stitchErr  error
	stitchDirs []string
	cleaned    []string
	previewed  chan string
}

func (f *fakeProvider) CheckPermission() (bool, error)   { return true, nil }
func (f *fakeProvider) RequestPermission() (bool, error) { return true, nil }
func (f *fakeProvider) ListMonitors() ([]native.Monitor, error) {
	return nil, nil
}
func (f *fakeProvider) ListWindows() ([]native.Window, error) { return nil, nil }
func (f *fakeProvider) CaptureAllMonitors(saveDir string) ([]native.MonitorShot, error) {
	return nil, nil
}
func (f *fakeProvider) CaptureRect(rect capture.Rect, saveDir string) (string, error) {
	return filepath.Join(saveDir, "still.png"), nil
}
func (f *fakeProvider) CaptureRectOCR(rect capture.Rect, saveDir string) (string, error) {
	return "", errors.New("ocr_empty:No text recognized")
}
func (f *fakeProvider) ResetScrollMonitor() error {
	f.resetCalls++
	return nil
}
func (f *fakeProvider) PollScrollRegion(rect capture.Rect, framesDir string) (native.PollResult, error) {
	if f.pollErr != nil {
		return native.PollResult{}, f.pollErr
	}
	if len(f.polls) == 0 {
		return native.PollResult{State: native.PollUnchanged}, nil
	}
	res := f.polls[0]
	f.polls = f.polls[1:]
	return res, nil
}
func (f *fakeProvider) StitchFrames(frames []string, targetDir string) (native.StitchResult, error) {
	f.stitchDirs = append(f.stitchDirs, targetDir)
	if f.stitchErr != nil {
		return native.StitchResult{}, f.stitchErr
	}
	return native.StitchResult{
		Path:        filepath.Join(targetDir, "stitched.png"),
		TotalFrames: len(frames),
		UsedFrames:  len(frames),
		FinalHeight: 100 * len(frames),
	}, nil
}
func (f *fakeProvider) StitchFramesPreview(frames []string, sessionDir string) (string, error) {
	path := filepath.Join(sessionDir, "preview", "scroll-preview.png")
	if f.previewed != nil {
		f.previewed <- path
	}
	return path, nil
}
func (f *fakeProvider) CleanupScrollTemp(sessionDir string) error {
	f.cleaned = append(f.cleaned, sessionDir)
	return nil
}

type fakeRegistrar struct {
	registered []string
	log        []string
	failCombo  string
}

func (f *fakeRegistrar) Register(combo string, cb func()) error {
	if combo == f.failCombo {
		return fmt.Errorf("combo %s busy", combo)
	}
	f.registered = append(f.registered, combo)
	f.log = append(f.log, "reg:"+combo)
	return nil
}
func (f *fakeRegistrar) Unregister(combo string) {
	f.log = append(f.log, "unreg:"+combo)
	for i, c := range f.registered {
		if c == combo {
			f.registered = append(f.registered[:i], f.registered[i+1:]...)
			return
		}
	}
}
func (f *fakeRegistrar) Close() {}

type fakeWindow struct {
	passthrough []bool
	restored    int
	moved       []capture.Point
}

func (f *fakeWindow) Hide()                       {}
func (f *fakeWindow) Show()                       {}
func (f *fakeWindow) Restore()                    { f.restored++ }
func (f *fakeWindow) SetMousePassthrough(on bool) { f.passthrough = append(f.passthrough, on) }
func (f *fakeWindow) MoveNear(p capture.Point)    { f.moved = append(f.moved, p) }
func (f *fakeWindow) CursorPosition() capture.Point {
	return capture.Point{}
}

func newTestPipeline(t *testing.T, prov *fakeProvider) (*Pipeline, *fakeRegistrar, *fakeWindow) {
	t.Helper()
	if prov.previewed == nil {
		prov.previewed = make(chan string, 8)
	}
	reg := &fakeRegistrar{}
	win := &fakeWindow{}
	pool := worker.New(1)
	t.Cleanup(pool.Close)
	p := New(prov, reg, win, notify.Log{}, pool, t.TempDir(), func(messages.Message) {})
	return p, reg, win
}

var testRect = capture.Rect{X: 10, Y: 20, Width: 300, Height: 200}

func TestStartClaimsInputs(t *testing.T) {
	prov := &fakeProvider{}
	p, reg, win := newTestPipeline(t, prov)

	if err := p.Start(testRect, time.Now()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if prov.resetCalls != 1 {
		t.Errorf("reset calls = %d", prov.resetCalls)
	}
	if len(reg.registered) != 4 {
		t.Errorf("registered %d combos, want 4: %v", len(reg.registered), reg.registered)
	}
	if len(win.passthrough) != 1 || !win.passthrough[0] {
		t.Errorf("passthrough = %v, want [true]", win.passthrough)
	}
	if !p.Active() {
		t.Error("pipeline should be active")
	}

	if err := p.Start(testRect, time.Now()); err == nil {
		t.Error("second Start should fail while a session is active")
	}
}

func TestStartRollsBackOnRegisterFailure(t *testing.T) {
	prov := &fakeProvider{}
	reg := &fakeRegistrar{failCombo: ComboCopyOnly}
	win := &fakeWindow{}
	pool := worker.New(1)
	t.Cleanup(pool.Close)
	p := New(prov, reg, win, notify.Log{}, pool, t.TempDir(), func(messages.Message) {})

	if err := p.Start(testRect, time.Now()); err == nil {
		t.Fatal("Start should fail when a shortcut cannot register")
	}
	if p.Active() {
		t.Error("no session should survive a failed start")
	}
	if len(win.passthrough) != 0 {
		t.Error("passthrough must not be enabled on failed start")
	}
	if len(prov.cleaned) != 1 {
		t.Errorf("temp dir not cleaned on failed start: %v", prov.cleaned)
	}
}

func TestPollOutcomes(t *testing.T) {
	prov := &fakeProvider{polls: []native.PollResult{
		{State: native.PollCaptured, FramePath: "f1.png", FrameCount: 1},
		{State: native.PollUnchanged},
		{State: native.PollScrolling},
		{State: native.PollCaptured, FramePath: "f2.png", FrameCount: 2},
	}}
	p, _, _ := newTestPipeline(t, prov)
	if err := p.Start(testRect, time.Now()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	now := time.Now()

	// Baseline frame: appended, no scroll detection.
	if detected := p.Poll(now); detected {
		t.Error("captured baseline must not report scroll detection")
	}
	if p.Session().FrameCount() != 1 {
		t.Fatalf("frames = %d, want 1", p.Session().FrameCount())
	}

	// Unchanged: nothing moves.
	if detected := p.Poll(now); detected {
		t.Error("unchanged poll must not report detection")
	}
	if p.Scrolling() {
		t.Error("scrolling indicator should be off")
	}

	// Scrolling: detection reported, indicator on, no frame yet.
	if detected := p.Poll(now); !detected {
		t.Error("scrolling poll must report detection")
	}
	if !p.Scrolling() {
		t.Error("scrolling indicator should be on")
	}
	if p.Session().FrameCount() != 1 {
		t.Error("scrolling poll must not append a frame")
	}

	// Captured after scrolling: frame appended, indicator cleared.
	p.Poll(now)
	if p.Session().FrameCount() != 2 {
		t.Errorf("frames = %d, want 2", p.Session().FrameCount())
	}
	if p.Scrolling() {
		t.Error("scrolling indicator should clear on capture")
	}
}

func TestPollUpdatesActivity(t *testing.T) {
	prov := &fakeProvider{polls: []native.PollResult{
		{State: native.PollCaptured, FramePath: "f1.png", FrameCount: 1},
	}}
	p, _, _ := newTestPipeline(t, prov)
	start := time.Now()
	if err := p.Start(testRect, start); err != nil {
		t.Fatalf("Start: %v", err)
	}

	later := start.Add(90 * time.Second)
	p.Poll(later)

	// Activity was refreshed by the capture, so 119s after start is not
	// yet a timeout relative to the poll.
	if p.TimedOut(start.Add(119*time.Second), 120*time.Second) {
		t.Error("activity refresh should defer the timeout")
	}
	if !p.TimedOut(later.Add(120*time.Second), 120*time.Second) {
		t.Error("timeout boundary should count as expired")
	}
}

func TestTimedOutWithoutSession(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeProvider{})
	if p.TimedOut(time.Now(), time.Nanosecond) {
		t.Error("no session, no timeout")
	}
}

func TestBeginFinishTooFewFrames(t *testing.T) {
	prov := &fakeProvider{polls: []native.PollResult{
		{State: native.PollCaptured, FramePath: "f1.png", FrameCount: 1},
	}}
	p, _, _ := newTestPipeline(t, prov)
	if err := p.Start(testRect, time.Now()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.Poll(time.Now())

	err := p.BeginFinish(session.IntentSave, func(StitchOutcome) {
		t.Error("stitch must not start below two frames")
	})
	if !errors.Is(err, ErrTooFewFrames) {
		t.Errorf("err = %v, want ErrTooFewFrames", err)
	}
	if !p.Active() {
		t.Error("too-few-frames must leave the session alive")
	}
}

func finishAndWait(t *testing.T, p *Pipeline, intent session.FinishIntent) StitchOutcome {
	t.Helper()
	done := make(chan StitchOutcome, 1)
	if err := p.BeginFinish(intent, func(out StitchOutcome) { done <- out }); err != nil {
		t.Fatalf("BeginFinish: %v", err)
	}
	select {
	case out := <-done:
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("stitch never resolved")
		return StitchOutcome{}
	}
}

func captureTwoFrames(t *testing.T, p *Pipeline, prov *fakeProvider) {
	t.Helper()
	prov.polls = append(prov.polls,
		native.PollResult{State: native.PollCaptured, FramePath: "f1.png", FrameCount: 1},
		native.PollResult{State: native.PollCaptured, FramePath: "f2.png", FrameCount: 2},
	)
	p.Poll(time.Now())
	p.Poll(time.Now())

	// The second frame queues a best-effort preview; wait for the worker
	// to pick it up so the queue slot is free for the finish stitch.
	if prov.previewed != nil {
		select {
		case <-prov.previewed:
		case <-time.After(2 * time.Second):
			t.Fatal("preview never started")
		}
	}
}

func TestFinishIntentTargetDirs(t *testing.T) {
	cases := []struct {
		intent session.FinishIntent
		dir    func(p *Pipeline) string
	}{
		{session.IntentSave, func(p *Pipeline) string { return p.saveDir }},
		{session.IntentCopyOnly, func(p *Pipeline) string { return p.Session().Dir }},
		{session.IntentEdit, func(p *Pipeline) string { return "" }}, // os.TempDir, checked loosely
	}

	for _, tc := range cases {
		t.Run(string(tc.intent), func(t *testing.T) {
			prov := &fakeProvider{}
			p, _, _ := newTestPipeline(t, prov)
			if err := p.Start(testRect, time.Now()); err != nil {
				t.Fatalf("Start: %v", err)
			}
			captureTwoFrames(t, p, prov)

			want := tc.dir(p)
			out := finishAndWait(t, p, tc.intent)
			if out.Err != nil {
				t.Fatalf("stitch err: %v", out.Err)
			}
			if len(prov.stitchDirs) != 1 {
				t.Fatalf("stitch calls = %d", len(prov.stitchDirs))
			}
			if want != "" && prov.stitchDirs[0] != want {
				t.Errorf("target dir = %q, want %q", prov.stitchDirs[0], want)
			}
		})
	}
}

func TestFinishGuardBlocksSecondFinish(t *testing.T) {
	prov := &fakeProvider{}
	p, _, _ := newTestPipeline(t, prov)
	if err := p.Start(testRect, time.Now()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	captureTwoFrames(t, p, prov)

	done := make(chan StitchOutcome, 1)
	if err := p.BeginFinish(session.IntentSave, func(out StitchOutcome) { done <- out }); err != nil {
		t.Fatalf("BeginFinish: %v", err)
	}
	if err := p.BeginFinish(session.IntentSave, func(StitchOutcome) {}); !errors.Is(err, ErrFinishInFlight) {
		t.Errorf("second finish err = %v, want ErrFinishInFlight", err)
	}

	out := <-done
	if err := p.CompleteFinish(out); err != nil {
		t.Fatalf("CompleteFinish: %v", err)
	}

	// Guard must be released even though this second run will fail.
	prov.stitchErr = errors.New("stitch exploded")
	if err := p.BeginFinish(session.IntentSave, func(out StitchOutcome) { done <- out }); err != nil {
		t.Fatalf("finish after release: %v", err)
	}
	failed := <-done
	if err := p.CompleteFinish(failed); err == nil {
		t.Error("CompleteFinish should surface the stitch error")
	}
	if p.finishing {
		t.Error("finish guard must release on error")
	}
}

func TestCompleteFinishCopyOnly(t *testing.T) {
	prov := &fakeProvider{}
	p, _, _ := newTestPipeline(t, prov)
	if err := p.Start(testRect, time.Now()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	captureTwoFrames(t, p, prov)

	var copied string
	p.CopyImage = func(path string) error {
		copied = path
		return nil
	}

	out := finishAndWait(t, p, session.IntentCopyOnly)
	if err := p.CompleteFinish(out); err != nil {
		t.Fatalf("CompleteFinish: %v", err)
	}
	if copied != out.Path {
		t.Errorf("copied %q, want %q", copied, out.Path)
	}
}

func TestCompleteFinishEditHandsOff(t *testing.T) {
	prov := &fakeProvider{}
	p, _, _ := newTestPipeline(t, prov)
	if err := p.Start(testRect, time.Now()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	captureTwoFrames(t, p, prov)

	var opened string
	p.OpenEditor = func(path string) { opened = path }

	out := finishAndWait(t, p, session.IntentEdit)
	if err := p.CompleteFinish(out); err != nil {
		t.Fatalf("CompleteFinish: %v", err)
	}
	if opened != out.Path {
		t.Errorf("editor got %q, want %q", opened, out.Path)
	}
	if out.Rect != testRect {
		t.Errorf("outcome rect = %+v, want %+v", out.Rect, testRect)
	}
}

func TestTeardownOrdering(t *testing.T) {
	prov := &fakeProvider{}
	p, reg, win := newTestPipeline(t, prov)
	if err := p.Start(testRect, time.Now()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sessDir := p.Session().Dir

	overlayCleared := false
	p.Teardown(func() {
		// At this point shortcuts are gone and passthrough is off, but the
		// session still exists.
		if len(reg.registered) != 0 {
			t.Error("shortcuts must be unregistered before overlay teardown")
		}
		if !p.Active() {
			t.Error("session must still exist during overlay teardown")
		}
		overlayCleared = true
	})

	if !overlayCleared {
		t.Error("overlay hook not invoked")
	}
	if p.Active() {
		t.Error("session must be cleared")
	}
	if len(prov.cleaned) != 1 || prov.cleaned[0] != sessDir {
		t.Errorf("cleaned = %v, want [%s]", prov.cleaned, sessDir)
	}
	last := win.passthrough[len(win.passthrough)-1]
	if last {
		t.Error("passthrough must end disabled")
	}

	// Idempotent with no session.
	p.Teardown(nil)
	if len(prov.cleaned) != 1 {
		t.Error("second teardown must not re-clean")
	}
}
