package native

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kbinani/screenshot"

	"scrollshot/src/capture"
)

// Local captures through the in-process screenshot backend. One capture
// runs at a time; the mutex mirrors the OS-level screencapture lock.
type Local struct {
	mu      sync.Mutex
	monitor *scrollMonitor
}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) CheckPermission() (bool, error) {
	// The in-process backend has no separate permission dialog; being
	// able to see a display is the grant.
	return screenshot.NumActiveDisplays() > 0, nil
}

func (l *Local) RequestPermission() (bool, error) {
	return l.CheckPermission()
}

func (l *Local) ListMonitors() ([]Monitor, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays found")
	}
	monitors := make([]Monitor, 0, n)
	for i := 0; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		monitors = append(monitors, Monitor{
			ID:     i,
			Bounds: capture.Rect{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()},
			Scale:  1.0,
		})
	}
	return monitors, nil
}

func (l *Local) ListWindows() ([]Window, error) {
	// Window enumeration needs a platform compositor API the in-process
	// backend does not expose; the overlay falls back to region selection.
	return nil, nil
}

func (l *Local) CaptureAllMonitors(saveDir string) ([]MonitorShot, error) {
	monitors, err := l.ListMonitors()
	if err != nil {
		return nil, err
	}
	if err := ensureDir(saveDir); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	shots := make([]MonitorShot, 0, len(monitors))
	for _, m := range monitors {
		img, err := screenshot.CaptureDisplay(m.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to capture display %d: %w", m.ID, err)
		}
		path := filepath.Join(saveDir, generateFilename(fmt.Sprintf("monitor_%d", m.ID)))
		if err := savePNG(img, path); err != nil {
			return nil, err
		}
		shots = append(shots, MonitorShot{Monitor: m, Path: path})
	}
	return shots, nil
}

func (l *Local) CaptureRect(rect capture.Rect, saveDir string) (string, error) {
	if err := validateRect(rect); err != nil {
		return "", err
	}
	if err := ensureDir(saveDir); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	img, err := captureRectImage(rect)
	if err != nil {
		return "", err
	}
	path := filepath.Join(saveDir, generateFilename("screenshot"))
	if err := savePNG(img, path); err != nil {
		return "", err
	}
	return path, nil
}

func (l *Local) CaptureRectOCR(rect capture.Rect, saveDir string) (string, error) {
	path, err := l.CaptureRect(rect, saveDir)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	// No OCR engine is linked into the local backend; every capture
	// recognizes nothing. Desktop builds swap in a platform provider.
	return "", fmt.Errorf("ocr_empty:No text recognized")
}

func (l *Local) ResetScrollMonitor() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.monitor = newScrollMonitor()
	return nil
}

func (l *Local) PollScrollRegion(rect capture.Rect, framesDir string) (PollResult, error) {
	if err := validateRect(rect); err != nil {
		return PollResult{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := captureRectImage(rect)
	if err != nil {
		return PollResult{}, err
	}
	if l.monitor == nil {
		l.monitor = newScrollMonitor()
	}
	return l.monitor.observe(current, framesDir)
}

func (l *Local) CleanupScrollTemp(sessionDir string) error {
	if sessionDir == "" {
		return nil
	}
	if _, err := os.Stat(sessionDir); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(sessionDir)
}

// ValidateSaveDir creates the directory if needed and probes that it is
// writable.
func ValidateSaveDir(path string) error {
	if path == "" {
		return fmt.Errorf("save directory is required")
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	probe := filepath.Join(path, fmt.Sprintf(".scrollshot_write_test_%d", os.Getpid()))
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("directory is not writable %q: %w", path, err)
	}
	f.Close()
	os.Remove(probe)
	return nil
}

func validateRect(rect capture.Rect) error {
	if rect.TooSmall() {
		return fmt.Errorf("capture area is too small")
	}
	return nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", path, err)
	}
	return nil
}

func captureRectImage(rect capture.Rect) (*image.RGBA, error) {
	bounds := image.Rect(rect.X, rect.Y, rect.X+rect.Width, rect.Y+rect.Height)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture region: %w", err)
	}
	return img, nil
}

func savePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

func loadRGBA(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame %q: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %q: %w", path, err)
	}
	return toRGBA(img), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

func generateFilename(prefix string) string {
	return fmt.Sprintf("%s_%s.png", prefix, time.Now().Format("20060102_150405.000"))
}
