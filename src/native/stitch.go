package native

import (
	"fmt"
	"image"
	"image/draw"
	"log"
	"math"
	"path/filepath"
)

const (
	maxScrollFrames     = 80
	minScrollOverlap    = 24
	minScrollNewContent = 40
	maxScrollMatchError = 42.0
)

// sampleFrameDifference returns the mean absolute RGB difference over a
// sparse sample grid (roughly 80x80 points).
func sampleFrameDifference(prev, current *image.RGBA) float64 {
	width := prev.Bounds().Dx()
	height := prev.Bounds().Dy()
	if width == 0 || height == 0 {
		return 255.0
	}

	colStep := max(width/80, 1)
	rowStep := max(height/80, 1)
	total := 0.0
	count := 0

	for y := 0; y < height; y += rowStep {
		for x := 0; x < width; x += colStep {
			total += pixelDiff(prev, current, x, y, x, y)
			count++
		}
	}

	if count == 0 {
		return 255.0
	}
	return total / float64(count)
}

// overlapError measures how well the bottom `overlap` rows of prev match
// the top `overlap` rows of current, sampling a central horizontal band.
func overlapError(prev, current *image.RGBA, overlap int) float64 {
	width := prev.Bounds().Dx()
	height := prev.Bounds().Dy()
	if overlap <= 0 || overlap > height {
		return math.MaxFloat64
	}

	xStart := width * 15 / 100
	xEnd := width * 85 / 100
	colStep := max((xEnd-xStart)/70, 1)
	rowStep := max(overlap/80, 1)

	total := 0.0
	samples := 0
	for r := 0; r < overlap; r += rowStep {
		prevY := height - overlap + r
		currY := r
		for x := xStart; x < xEnd; x += colStep {
			total += pixelDiff(prev, current, x, prevY, x, currY)
			samples++
		}
	}

	if samples == 0 {
		return math.MaxFloat64
	}
	return total / float64(samples)
}

func pixelDiff(a, b *image.RGBA, ax, ay, bx, by int) float64 {
	ai := a.PixOffset(a.Bounds().Min.X+ax, a.Bounds().Min.Y+ay)
	bi := b.PixOffset(b.Bounds().Min.X+bx, b.Bounds().Min.Y+by)
	dr := math.Abs(float64(a.Pix[ai]) - float64(b.Pix[bi]))
	dg := math.Abs(float64(a.Pix[ai+1]) - float64(b.Pix[bi+1]))
	db := math.Abs(float64(a.Pix[ai+2]) - float64(b.Pix[bi+2]))
	return (dr + dg + db) / 3.0
}

// findBestOverlap searches overlap heights for the best alignment of two
// consecutive frames.
func findBestOverlap(prev, current *image.RGBA) (int, float64, error) {
	height := prev.Bounds().Dy()
	minOverlap := min(minScrollOverlap, height-1)
	maxOverlap := max(height-minScrollNewContent, minOverlap)

	bestOverlap := 0
	bestError := math.MaxFloat64

	for overlap := minOverlap; overlap <= maxOverlap; overlap += 2 {
		if err := overlapError(prev, current, overlap); err < bestError {
			bestError = err
			bestOverlap = overlap
		}
	}

	if bestOverlap == 0 {
		return 0, 0, fmt.Errorf("failed to detect overlap between captured frames")
	}
	if bestError > maxScrollMatchError {
		return 0, 0, fmt.Errorf("scroll frame matching failed, try slower scrolling and keep region stable")
	}
	return bestOverlap, bestError, nil
}

func (l *Local) StitchFrames(framePaths []string, targetDir string) (StitchResult, error) {
	if len(framePaths) < 2 {
		return StitchResult{}, fmt.Errorf("at least two frames are required to stitch scroll capture")
	}
	if len(framePaths) > maxScrollFrames {
		return StitchResult{}, fmt.Errorf("too many frames, maximum is %d", maxScrollFrames)
	}

	frames, err := loadFrames(framePaths)
	if err != nil {
		return StitchResult{}, err
	}

	pieces, skipped := assemblePieces(frames, true)
	if len(pieces) < 2 {
		return StitchResult{}, fmt.Errorf("not enough unique frames after filtering similar ones, scroll further between captures")
	}

	img := composePieces(frames[0].Bounds().Dx(), pieces)
	if err := ensureDir(targetDir); err != nil {
		return StitchResult{}, err
	}
	path := filepath.Join(targetDir, generateFilename("scrollshot"))
	if err := savePNG(img, path); err != nil {
		return StitchResult{}, err
	}

	return StitchResult{
		Path:          path,
		TotalFrames:   len(framePaths),
		UsedFrames:    len(pieces),
		SkippedFrames: skipped,
		FinalHeight:   img.Bounds().Dy(),
	}, nil
}

func (l *Local) StitchFramesPreview(framePaths []string, sessionDir string) (string, error) {
	if len(framePaths) == 0 {
		return "", fmt.Errorf("no frames available for preview")
	}
	if len(framePaths) > maxScrollFrames {
		framePaths = framePaths[len(framePaths)-maxScrollFrames:]
	}

	frames, err := loadFrames(framePaths)
	if err != nil {
		return "", err
	}

	pieces, _ := assemblePieces(frames, false)
	if len(pieces) == 1 {
		// Matching collapsed; show the most recent frame instead.
		pieces = []*image.RGBA{frames[len(frames)-1]}
	}

	img := composePieces(frames[0].Bounds().Dx(), pieces)
	previewDir := filepath.Join(sessionDir, "preview")
	if err := ensureDir(previewDir); err != nil {
		return "", err
	}
	path := filepath.Join(previewDir, "scroll-preview.png")
	if err := savePNG(img, path); err != nil {
		return "", err
	}
	return path, nil
}

func loadFrames(paths []string) ([]*image.RGBA, error) {
	frames := make([]*image.RGBA, 0, len(paths))
	for _, p := range paths {
		frame, err := loadRGBA(p)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}

	width := frames[0].Bounds().Dx()
	height := frames[0].Bounds().Dy()
	if width < 20 || height < 20 {
		return nil, fmt.Errorf("captured frame is too small")
	}
	for _, f := range frames[1:] {
		if f.Bounds().Dx() != width || f.Bounds().Dy() != height {
			return nil, fmt.Errorf("scroll frames have different dimensions")
		}
	}
	return frames, nil
}

// assemblePieces reduces consecutive frames to non-overlapping slices.
// Frames too similar to their predecessor, or whose overlap cannot be
// matched, are skipped.
func assemblePieces(frames []*image.RGBA, logSkips bool) ([]*image.RGBA, int) {
	pieces := []*image.RGBA{frames[0]}
	prev := frames[0]
	skipped := 0

	for idx, frame := range frames[1:] {
		diff := sampleFrameDifference(prev, frame)
		if diff < frameDiffThreshold {
			if logSkips {
				log.Printf("Skipping frame %d (diff=%.2f): too similar to previous", idx+1, diff)
			}
			skipped++
			continue
		}

		overlap, _, err := findBestOverlap(prev, frame)
		if err != nil {
			if logSkips {
				log.Printf("Skipping frame %d: %v", idx+1, err)
			}
			skipped++
			continue
		}

		sliceHeight := frame.Bounds().Dy() - overlap
		if sliceHeight < 10 {
			if logSkips {
				log.Printf("Skipping frame %d: insufficient new content", idx+1)
			}
			skipped++
			continue
		}

		pieces = append(pieces, cropRows(frame, overlap, sliceHeight))
		prev = frame
	}

	return pieces, skipped
}

func cropRows(img *image.RGBA, top, height int) *image.RGBA {
	width := img.Bounds().Dx()
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	src := img.SubImage(image.Rect(img.Bounds().Min.X, img.Bounds().Min.Y+top,
		img.Bounds().Min.X+width, img.Bounds().Min.Y+top+height))
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out
}

func composePieces(width int, pieces []*image.RGBA) *image.RGBA {
	total := 0
	for _, p := range pieces {
		total += p.Bounds().Dy()
	}
	out := image.NewRGBA(image.Rect(0, 0, width, total))
	y := 0
	for _, p := range pieces {
		h := p.Bounds().Dy()
		draw.Draw(out, image.Rect(0, y, width, y+h), p, p.Bounds().Min, draw.Src)
		y += h
	}
	return out
}
