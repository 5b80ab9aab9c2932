// Package layout provides the arithmetic used to fit rectangles to a screen
// or to a reference rectangle: safe-area anchors, stretching, and
// scale-by-reference.
package layout

import (
	"errors"
	"math"
)

// ErrZeroSize is returned when a computation would divide by a zero width or
// height.
var ErrZeroSize = errors.New("layout: zero size")

// Vec2 is a two-dimensional vector.
type Vec2 struct {
	X, Y float64
}

// Mul returns the component-wise product of v and o.
func (v Vec2) Mul(o Vec2) Vec2 {
	return Vec2{X: v.X * o.X, Y: v.Y * o.Y}
}

// Scale returns v multiplied by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Rect is an axis-aligned rectangle given by its bottom-left corner and size.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Position returns the corner of the rectangle.
func (r Rect) Position() Vec2 {
	return Vec2{X: r.X, Y: r.Y}
}

// Size returns the width and height of the rectangle.
func (r Rect) Size() Vec2 {
	return Vec2{X: r.Width, Y: r.Height}
}

// SafeAreaAnchors converts a safe area in screen pixels into normalized
// anchors in the range [0, 1].
func SafeAreaAnchors(safe Rect, screenW, screenH float64) (minAnchor, maxAnchor Vec2, err error) {
	if screenW == 0 || screenH == 0 {
		return Vec2{}, Vec2{}, ErrZeroSize
	}

	minAnchor = safe.Position()
	maxAnchor = minAnchor.Add(safe.Size())

	minAnchor.X /= screenW
	minAnchor.Y /= screenH
	maxAnchor.X /= screenW
	maxAnchor.Y /= screenH

	return minAnchor, maxAnchor, nil
}

// PaddedSize grows size by padding on both axes. Non-positive padding leaves
// the size as is.
func PaddedSize(size Vec2, padding float64) Vec2 {
	if padding <= 0 {
		return size
	}

	return Vec2{X: size.X + padding, Y: size.Y + padding}
}

// StretchMode selects which axes a Stretcher matches to the target.
type StretchMode int

// Stretch modes.
const (
	MatchWidth StretchMode = iota
	MatchHeight
	MatchAll
	// MatchMin matches the smaller axis of the target.
	MatchMin
	// MatchMax matches the larger axis of the target.
	MatchMax
)

func (m StretchMode) String() string {
	switch m {
	case MatchWidth:
		return "match_width"
	case MatchHeight:
		return "match_height"
	case MatchAll:
		return "match_all"
	case MatchMin:
		return "match_min"
	case MatchMax:
		return "match_max"
	default:
		return "unknown"
	}
}

// A Stretcher resizes a rectangle so that it covers a target size.
type Stretcher struct {
	Mode StretchMode

	// KeepAspectRatio scales the unmatched axis by the same factor as the
	// matched one.
	KeepAspectRatio bool

	// ScaleToFit stretches again along the axis that still falls short of
	// the target after the first pass. It has no effect with MatchAll.
	ScaleToFit bool

	// Offset is added to every computed size.
	Offset Vec2
}

// Apply returns the new size of a rectangle currently sized current.
func (s Stretcher) Apply(current, target Vec2) Vec2 {
	size := current

	switch s.Mode {
	case MatchWidth:
		size = s.width(size, target.X)
	case MatchHeight:
		size = s.height(size, target.Y)
	case MatchMin:
		if target.X < target.Y {
			size = s.width(size, target.X)
		} else {
			size = s.height(size, target.Y)
		}
	case MatchMax:
		if target.X < target.Y {
			size = s.height(size, target.Y)
		} else {
			size = s.width(size, target.X)
		}
	default:
		size = s.all(size, target)
	}

	if s.ScaleToFit && s.Mode != MatchAll {
		switch {
		case math.Round(size.X) < math.Round(target.X):
			size = s.width(size, target.X)
		case math.Round(size.Y) < math.Round(target.Y):
			size = s.height(size, target.Y)
		}
	}

	return size
}

func (s Stretcher) width(size Vec2, w float64) Vec2 {
	h := size.Y
	if s.KeepAspectRatio && size.X != 0 {
		h *= w / size.X
	}

	return Vec2{X: w, Y: h}.Add(s.Offset)
}

func (s Stretcher) height(size Vec2, h float64) Vec2 {
	w := size.X
	if s.KeepAspectRatio && size.Y != 0 {
		w *= h / size.Y
	}

	return Vec2{X: w, Y: h}.Add(s.Offset)
}

func (s Stretcher) all(size, target Vec2) Vec2 {
	if !s.KeepAspectRatio || size.X == 0 || size.Y == 0 {
		return target.Add(s.Offset)
	}

	// The axis that needs the larger change wins; the other follows.
	dx := math.Abs(size.X - target.X)
	dy := math.Abs(size.Y - target.Y)

	if dy > dx {
		return Vec2{X: size.X * target.Y / size.Y, Y: target.Y}.Add(s.Offset)
	}

	return Vec2{X: target.X, Y: size.Y * target.X / size.X}.Add(s.Offset)
}
