package capture

// Mode selects how the capture rectangle is chosen.
type Mode string

const (
	ModeRegion     Mode = "region"
	ModeWindow     Mode = "window"
	ModeFullscreen Mode = "fullscreen"
	ModeScroll     Mode = "scroll"
)

// Point is a position in screen-logical coordinates.
type Point struct {
	X int
	Y int
}

// Rect is a screen region in screen-logical coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// TooSmall reports whether the rect is below the minimum capturable size.
func (r Rect) TooSmall() bool {
	return r.Width < 10 || r.Height < 10
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// ClampTo intersects the rect with bounds. The result is empty when the
// two rects do not overlap.
func (r Rect) ClampTo(bounds Rect) Rect {
	x1 := max(r.X, bounds.X)
	y1 := max(r.Y, bounds.Y)
	x2 := min(r.X+r.Width, bounds.X+bounds.Width)
	y2 := min(r.Y+r.Height, bounds.Y+bounds.Height)
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}
