package native

import (
	"fmt"
	"image"
	"path/filepath"
)

// frameDiffThreshold separates "content is changing" from "content is
// stable" on the sampled per-pixel difference scale (0..255).
const frameDiffThreshold = 1.8

// scrollMonitor tracks consecutive samples of the scroll region. A frame
// is captured when content was scrolling on a previous poll and has now
// stabilized; the very first poll captures the baseline immediately.
type scrollMonitor struct {
	prev         *image.RGBA
	wasScrolling bool
	frameCount   int
}

func newScrollMonitor() *scrollMonitor {
	return &scrollMonitor{}
}

func (m *scrollMonitor) observe(current *image.RGBA, framesDir string) (PollResult, error) {
	if m.prev == nil {
		path, err := m.saveFrame(current, framesDir)
		if err != nil {
			return PollResult{}, err
		}
		m.prev = current
		m.frameCount = 1
		return PollResult{State: PollCaptured, FramePath: path, FrameCount: 1}, nil
	}

	diff := sampleFrameDifference(m.prev, current)

	if diff >= frameDiffThreshold {
		// Content changing: track latest so we notice when it settles.
		m.wasScrolling = true
		m.prev = current
		return PollResult{State: PollScrolling, FrameCount: m.frameCount}, nil
	}

	if m.wasScrolling {
		m.wasScrolling = false
		path, err := m.saveFrame(current, framesDir)
		if err != nil {
			return PollResult{}, err
		}
		m.prev = current
		m.frameCount++
		return PollResult{State: PollCaptured, FramePath: path, FrameCount: m.frameCount}, nil
	}

	return PollResult{State: PollUnchanged, FrameCount: m.frameCount}, nil
}

func (m *scrollMonitor) saveFrame(img *image.RGBA, framesDir string) (string, error) {
	if err := ensureDir(framesDir); err != nil {
		return "", fmt.Errorf("failed to create frames dir: %w", err)
	}
	path := filepath.Join(framesDir, generateFilename("scroll_frame"))
	if err := savePNG(img, path); err != nil {
		return "", err
	}
	return path, nil
}
