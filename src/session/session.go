// Package session owns the lifecycle state of one scroll capture
// session: its temp directories, capture rectangle and frame sequence.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"scrollshot/src/capture"
)

// FinishIntent selects what happens to the stitched result.
type FinishIntent string

const (
	IntentSave     FinishIntent = "save"
	IntentEdit     FinishIntent = "edit"
	IntentCopyOnly FinishIntent = "copy_only"
)

// Scroll is the live scroll session. It exists if and only if the
// capture state is ScrollReady, ScrollCapturing or Stitching, and is
// exclusively owned by the orchestrator for its lifetime.
type Scroll struct {
	ID        string
	Dir       string
	FramesDir string
	Rect      capture.Rect

	frames       []string
	lastActivity time.Time
}

// NewScroll creates the session's temp directories and stamps initial
// activity.
func NewScroll(rect capture.Rect, now time.Time) (*Scroll, error) {
	id := uuid.NewString()
	dir := filepath.Join(os.TempDir(), "scrollshot-"+id)
	framesDir := filepath.Join(dir, "frames")
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &Scroll{
		ID:           id,
		Dir:          dir,
		FramesDir:    framesDir,
		Rect:         rect,
		lastActivity: now,
	}, nil
}

// AppendFrame records a captured frame path. The sequence is append-only
// and ordered by capture time.
func (s *Scroll) AppendFrame(path string) {
	s.frames = append(s.frames, path)
}

// Frames returns a copy of the frame sequence.
func (s *Scroll) Frames() []string {
	out := make([]string, len(s.frames))
	copy(out, s.frames)
	return out
}

func (s *Scroll) FrameCount() int {
	return len(s.frames)
}

// Touch records user/capture activity at now.
func (s *Scroll) Touch(now time.Time) {
	s.lastActivity = now
}

func (s *Scroll) LastActivity() time.Time {
	return s.lastActivity
}

// ShouldAutoCancel reports whether the inactivity timeout has elapsed.
// The boundary counts as expired.
func ShouldAutoCancel(lastActivity, now time.Time, timeout time.Duration) bool {
	return now.Sub(lastActivity) >= timeout
}
