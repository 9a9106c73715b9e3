package native

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"scrollshot/src/capture"
)

// buildFrame produces a vertical gradient whose content shifts by
// `start` rows, so frame(n) looks like frame(0) scrolled down n pixels.
func buildFrame(width, height, start int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8((start + y + x/3) % 255)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	return img
}

func saveFrame(t *testing.T, img *image.RGBA, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := savePNG(img, path); err != nil {
		t.Fatalf("savePNG: %v", err)
	}
	return path
}

func TestSampleFrameDifferenceDetectsIdenticalFrame(t *testing.T) {
	f1 := buildFrame(120, 180, 0)
	f2 := buildFrame(120, 180, 0)
	if diff := sampleFrameDifference(f1, f2); diff > 0.5 {
		t.Errorf("identical frames diff = %.2f, want near zero", diff)
	}
}

func TestSampleFrameDifferenceDetectsScrolledFrame(t *testing.T) {
	f1 := buildFrame(120, 180, 0)
	f2 := buildFrame(120, 180, 60)
	if diff := sampleFrameDifference(f1, f2); diff < frameDiffThreshold {
		t.Errorf("scrolled frames diff = %.2f, want >= %.1f", diff, frameDiffThreshold)
	}
}

func TestFindBestOverlapDetectsScrollDelta(t *testing.T) {
	f1 := buildFrame(160, 240, 0)
	const scrollDelta = 80
	f2 := buildFrame(160, 240, scrollDelta)

	overlap, matchErr, err := findBestOverlap(f1, f2)
	if err != nil {
		t.Fatalf("findBestOverlap: %v", err)
	}
	wantOverlap := 240 - scrollDelta
	if overlap < wantOverlap-8 || overlap > wantOverlap+8 {
		t.Errorf("overlap = %d, want %d±8", overlap, wantOverlap)
	}
	if matchErr > maxScrollMatchError {
		t.Errorf("match error = %.2f, exceeds threshold", matchErr)
	}
}

func TestStitchFramesRequiresTwoFrames(t *testing.T) {
	l := NewLocal()
	dir := t.TempDir()
	path := saveFrame(t, buildFrame(160, 240, 0), dir, "one.png")

	if _, err := l.StitchFrames([]string{path}, dir); err == nil {
		t.Fatal("single frame must not stitch")
	}
	if _, err := l.StitchFrames(nil, dir); err == nil {
		t.Fatal("empty sequence must not stitch")
	}
}

func TestStitchFramesComposesScrolledFrames(t *testing.T) {
	l := NewLocal()
	dir := t.TempDir()
	out := t.TempDir()

	paths := []string{
		saveFrame(t, buildFrame(160, 240, 0), dir, "f0.png"),
		saveFrame(t, buildFrame(160, 240, 80), dir, "f1.png"),
		saveFrame(t, buildFrame(160, 240, 160), dir, "f2.png"),
	}

	res, err := l.StitchFrames(paths, out)
	if err != nil {
		t.Fatalf("StitchFrames: %v", err)
	}
	if res.TotalFrames != 3 || res.UsedFrames < 2 {
		t.Errorf("frame counts = %+v", res)
	}
	if res.FinalHeight <= 240 {
		t.Errorf("final height = %d, want taller than one frame", res.FinalHeight)
	}

	stitched, err := loadRGBA(res.Path)
	if err != nil {
		t.Fatalf("loadRGBA: %v", err)
	}
	if stitched.Bounds().Dy() != res.FinalHeight {
		t.Errorf("file height %d != reported %d", stitched.Bounds().Dy(), res.FinalHeight)
	}
}

func TestStitchFramesSkipsDuplicates(t *testing.T) {
	l := NewLocal()
	dir := t.TempDir()

	paths := []string{
		saveFrame(t, buildFrame(160, 240, 0), dir, "f0.png"),
		saveFrame(t, buildFrame(160, 240, 0), dir, "dup.png"),
		saveFrame(t, buildFrame(160, 240, 80), dir, "f1.png"),
	}

	res, err := l.StitchFrames(paths, t.TempDir())
	if err != nil {
		t.Fatalf("StitchFrames: %v", err)
	}
	if res.SkippedFrames != 1 {
		t.Errorf("skipped = %d, want 1", res.SkippedFrames)
	}
	if res.UsedFrames != 2 {
		t.Errorf("used = %d, want 2", res.UsedFrames)
	}
}

func TestStitchFramesPreviewFallsBackToLastFrame(t *testing.T) {
	l := NewLocal()
	dir := t.TempDir()
	sessionDir := t.TempDir()

	// Two identical frames collapse to one piece; preview must still
	// produce an image (the latest frame).
	paths := []string{
		saveFrame(t, buildFrame(160, 240, 0), dir, "f0.png"),
		saveFrame(t, buildFrame(160, 240, 0), dir, "f1.png"),
	}

	path, err := l.StitchFramesPreview(paths, sessionDir)
	if err != nil {
		t.Fatalf("StitchFramesPreview: %v", err)
	}
	img, err := loadRGBA(path)
	if err != nil {
		t.Fatalf("loadRGBA: %v", err)
	}
	if img.Bounds().Dy() != 240 {
		t.Errorf("preview height = %d, want single frame height", img.Bounds().Dy())
	}
}

func TestScrollMonitorLifecycle(t *testing.T) {
	framesDir := t.TempDir()
	m := newScrollMonitor()

	// First poll captures the baseline immediately.
	res, err := m.observe(buildFrame(160, 240, 0), framesDir)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if res.State != PollCaptured || res.FrameCount != 1 || res.FramePath == "" {
		t.Fatalf("baseline poll = %+v", res)
	}

	// Identical content: unchanged.
	res, err = m.observe(buildFrame(160, 240, 0), framesDir)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if res.State != PollUnchanged {
		t.Fatalf("stable poll = %+v", res)
	}

	// Content moved: scrolling, no frame saved.
	res, err = m.observe(buildFrame(160, 240, 80), framesDir)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if res.State != PollScrolling || res.FramePath != "" {
		t.Fatalf("scrolling poll = %+v", res)
	}

	// Content settled: captured.
	res, err = m.observe(buildFrame(160, 240, 80), framesDir)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if res.State != PollCaptured || res.FrameCount != 2 {
		t.Fatalf("settle poll = %+v", res)
	}
}

func TestValidateRectTooSmall(t *testing.T) {
	l := NewLocal()
	if _, err := l.CaptureRect(capture.Rect{X: 0, Y: 0, Width: 5, Height: 5}, t.TempDir()); err == nil {
		t.Fatal("tiny rect must fail")
	}
}
