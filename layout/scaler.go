package layout

// ScaleMode selects how a Scaler derives a scale from a reference size.
type ScaleMode int

// Scale modes.
const (
	ScaleMatchWidth ScaleMode = iota
	ScaleMatchHeight
	ScaleMatchAll
	// ScaleSmart matches width when the width ratio is larger, height
	// otherwise.
	ScaleSmart
)

// ScalerOption configures a Scaler.
type ScalerOption func(s *Scaler)

// WithScaleMode sets the scale mode. The default is ScaleMatchWidth.
func WithScaleMode(m ScaleMode) ScalerOption {
	return func(s *Scaler) {
		s.mode = m
	}
}

// WithPercent multiplies the final scale by p.
func WithPercent(p float64) ScalerOption {
	return func(s *Scaler) {
		s.percent = p
	}
}

// WithOppositeAxisCap limits the unmatched axis so that it never exceeds p
// times the reference along that axis.
func WithOppositeAxisCap(p float64) ScalerOption {
	return func(s *Scaler) {
		s.capOpposite = true
		s.capPercent = p
	}
}

// WithKeepAspectRatio moves the unmatched axis by the same amount as the
// matched one. Enabled by default.
func WithKeepAspectRatio(keep bool) ScalerOption {
	return func(s *Scaler) {
		s.keepAspect = keep
	}
}

// WithSizeDeltaAdjustment makes Scale also multiply the size delta by the
// resulting scale.
func WithSizeDeltaAdjustment() ScalerOption {
	return func(s *Scaler) {
		s.adjustSizeDeltas = true
	}
}

// A Scaler computes the scale that makes a rectangle of a known original
// size and scale fit a reference rectangle.
type Scaler struct {
	originalSize  Vec2
	originalScale Vec2

	mode             ScaleMode
	percent          float64
	capOpposite      bool
	capPercent       float64
	keepAspect       bool
	adjustSizeDeltas bool
}

// NewScaler creates a Scaler for a rectangle with the given unscaled size and
// scale.
func NewScaler(originalSize, originalScale Vec2, opts ...ScalerOption) *Scaler {
	s := &Scaler{
		originalSize:  originalSize,
		originalScale: originalScale,
		mode:          ScaleMatchWidth,
		percent:       1,
		capPercent:    1,
		keepAspect:    true,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SetMode changes the scale mode.
func (s *Scaler) SetMode(m ScaleMode) {
	s.mode = m
}

// SetPercent changes the final multiplier.
func (s *Scaler) SetPercent(p float64) {
	s.percent = p
}

// SetCapPercent changes the opposite axis cap.
func (s *Scaler) SetCapPercent(p float64) {
	s.capPercent = p
}

// ScaleResult is the outcome of a Scale call.
type ScaleResult struct {
	Scale     Vec2
	SizeDelta Vec2
}

// Scale computes the scale for the given reference size. The size delta is
// returned unchanged unless size-delta adjustment is enabled.
func (s *Scaler) Scale(reference, sizeDelta Vec2) (ScaleResult, error) {
	w := s.originalSize.X * s.originalScale.X
	h := s.originalSize.Y * s.originalScale.Y

	if w == 0 || h == 0 {
		return ScaleResult{}, ErrZeroSize
	}

	dw := reference.X / w
	dh := reference.Y / h

	var scale Vec2

	switch s.mode {
	case ScaleMatchWidth:
		scale = s.matchWidth(reference, dw)
	case ScaleMatchHeight:
		scale = s.matchHeight(reference, dh)
	case ScaleMatchAll:
		scale = Vec2{X: dw, Y: dh}
	case ScaleSmart:
		if dw > dh {
			scale = s.matchWidth(reference, dw)
		} else {
			scale = s.matchHeight(reference, dh)
		}
	default:
		scale = s.originalScale
	}

	scale = scale.Scale(s.percent)

	res := ScaleResult{Scale: scale, SizeDelta: sizeDelta}
	if s.adjustSizeDeltas {
		res.SizeDelta = sizeDelta.Mul(scale)
	}

	return res, nil
}

func (s *Scaler) matchWidth(reference Vec2, dw float64) Vec2 {
	scale := Vec2{X: dw, Y: s.originalScale.Y}
	if s.keepAspect {
		scale.Y = s.originalScale.Y + (dw - s.originalScale.X)
	}

	if !s.capOpposite {
		return scale
	}

	limit := reference.Y * s.capPercent
	newHeight := s.originalSize.Y * scale.Y

	if newHeight > limit {
		ratio := limit / newHeight
		dy := scale.Y - scale.Y*ratio
		scale.Y *= ratio

		if s.keepAspect {
			scale.X -= dy
		}
	}

	return scale
}

func (s *Scaler) matchHeight(reference Vec2, dh float64) Vec2 {
	scale := Vec2{X: s.originalScale.X, Y: dh}
	if s.keepAspect {
		scale.X = s.originalScale.X + (dh - s.originalScale.Y)
	}

	if !s.capOpposite {
		return scale
	}

	limit := reference.X * s.capPercent
	newWidth := s.originalSize.X * scale.X

	if newWidth > limit {
		ratio := limit / newWidth
		dx := scale.X - scale.X*ratio
		scale.X *= ratio

		if s.keepAspect {
			scale.Y -= dx
		}
	}

	return scale
}
