package tracking

// Border classifies the current pan position against the cache edges and the
// global image edges. Plain directional values mean the cache border has been
// reached; Limit variants mean the true image edge is also exhausted on the
// same side.
type Border int

const (
	BorderCenter Border = iota
	BorderLeft
	BorderRight
	BorderTop
	BorderBottom
	BorderTopLeft
	BorderTopRight
	BorderBottomLeft
	BorderBottomRight
	BorderLeftLimit
	BorderRightLimit
	BorderTopLimit
	BorderBottomLimit
	BorderTopLeftLimit
	BorderTopRightLimit
	BorderBottomLeftLimit
	BorderBottomRightLimit
)

var borderNames = map[Border]string{
	BorderCenter:           "Center",
	BorderLeft:             "Left",
	BorderRight:            "Right",
	BorderTop:              "Top",
	BorderBottom:           "Bottom",
	BorderTopLeft:          "TopLeft",
	BorderTopRight:         "TopRight",
	BorderBottomLeft:       "BottomLeft",
	BorderBottomRight:      "BottomRight",
	BorderLeftLimit:        "LeftLimit",
	BorderRightLimit:       "RightLimit",
	BorderTopLimit:         "TopLimit",
	BorderBottomLimit:      "BottomLimit",
	BorderTopLeftLimit:     "TopLeftLimit",
	BorderTopRightLimit:    "TopRightLimit",
	BorderBottomLeftLimit:  "BottomLeftLimit",
	BorderBottomRightLimit: "BottomRightLimit",
}

func (b Border) String() string {
	if name, ok := borderNames[b]; ok {
		return name
	}
	return "Unknown"
}

// IsLimit returns true for the eight variants where the global image edge,
// not just the cache edge, has been hit.
func (b Border) IsLimit() bool {
	switch b {
	case BorderLeftLimit, BorderRightLimit, BorderTopLimit, BorderBottomLimit,
		BorderTopLeftLimit, BorderTopRightLimit, BorderBottomLeftLimit, BorderBottomRightLimit:
		return true
	}
	return false
}

// EdgeFlags marks which edges of the full-resolution image the global offset
// has reached.
type EdgeFlags struct {
	Right  bool
	Top    bool
	Left   bool
	Bottom bool
}

// XInCenter returns true when neither horizontal image edge is reached.
func (e EdgeFlags) XInCenter() bool {
	return !e.Left && !e.Right
}

// YInCenter returns true when neither vertical image edge is reached.
func (e EdgeFlags) YInCenter() bool {
	return !e.Top && !e.Bottom
}

// Limits reports the outcome of one pan step: the soft (half-distance) cache
// triggers per side, the hard global edge flags, and whether the step crossed
// a soft trigger (CacheReached) or the full cache border (BorderReached).
type Limits struct {
	CacheRight  bool
	CacheLeft   bool
	CacheBottom bool
	CacheTop    bool
	Edges       EdgeFlags

	BorderReached bool
	CacheReached  bool
}

// CurrentBorder derives the border state from the soft cache triggers and
// hard edge flags in limits. The mapping is a pure decision table:
//
//   - two orthogonal soft triggers yield the diagonal state, its Limit variant
//     when both hard counterparts are set, or the plain directional state of
//     the axis whose hard edge is hit when only one is set;
//   - a single soft trigger yields the directional state, or its Limit variant
//     when the matching hard flag is set;
//   - no soft trigger yields Center.
func (t *Tracker) CurrentBorder(limits Limits) Border {
	e := limits.Edges
	switch {
	case limits.CacheRight && limits.CacheTop:
		switch {
		case e.Top && e.Right:
			return BorderTopRightLimit
		case e.Top:
			return BorderTop
		case e.Right:
			return BorderRight
		}
		return BorderTopRight
	case limits.CacheRight && limits.CacheBottom:
		switch {
		case e.Bottom && e.Right:
			return BorderBottomRightLimit
		case e.Bottom:
			return BorderBottom
		case e.Right:
			return BorderRight
		}
		return BorderBottomRight
	case limits.CacheLeft && limits.CacheTop:
		switch {
		case e.Top && e.Left:
			return BorderTopLeftLimit
		case e.Top:
			return BorderTop
		case e.Left:
			return BorderLeft
		}
		return BorderTopLeft
	case limits.CacheLeft && limits.CacheBottom:
		switch {
		case e.Bottom && e.Left:
			return BorderBottomLeftLimit
		case e.Bottom:
			return BorderBottom
		case e.Left:
			return BorderLeft
		}
		return BorderBottomLeft
	case limits.CacheRight:
		if e.Right {
			return BorderRightLimit
		}
		return BorderRight
	case limits.CacheLeft:
		if e.Left {
			return BorderLeftLimit
		}
		return BorderLeft
	case limits.CacheTop:
		if e.Top {
			return BorderTopLimit
		}
		return BorderTop
	case limits.CacheBottom:
		if e.Bottom {
			return BorderBottomLimit
		}
		return BorderBottom
	}
	return BorderCenter
}
