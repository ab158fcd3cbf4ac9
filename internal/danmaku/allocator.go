package danmaku

import (
	"fmt"
	"math"
	"strings"
)

// rule deciding whether a busy track is skipped during the track search
type OverlapPolicy int

const (
	// skip a track only when its first on-screen occupant started earlier and its
	// recorded half width exceeds the new comment's full width
	PolicyReference OverlapPolicy = iota
	// skip a track whenever it has an occupant still on screen
	PolicyStrict
)

func (p OverlapPolicy) String() string {
	switch p {
	case PolicyReference:
		return "reference"
	case PolicyStrict:
		return "strict"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

func ParsePolicy(s string) (OverlapPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reference":
		return PolicyReference, nil
	case "strict":
		return PolicyStrict, nil
	default:
		return 0, &ConfigError{Field: "policy", Reason: fmt.Sprintf("%q is not reference or strict", s)}
	}
}

const (
	DefaultMargin = 10.0
	// measured in the large font to size the tracks
	referenceText = "Lorem ipsum"
	// head start added to every crossing time, in seconds
	crossingGrace = 0.5
)

type AllocatorConfig struct {
	Width    int
	Height   int
	Duration float64
	Margin   float64
	Fonts    map[SizeClass]Font
	Policy   OverlapPolicy
}

// a track reservation of one placed scrolling comment
type Occupancy struct {
	Track     int
	Start     float64
	End       float64
	HalfWidth float64
}

type Placement struct {
	Class MotionClass
	// -1 for top and bottom comments
	Track     int
	Start     float64
	End       float64
	HalfWidth float64
	// scrolling comments move from (X1, Y) to (X2, Y); fixed ones sit at (X1, Y)
	X1 float64
	X2 float64
	Y  float64
	// seconds the \move spans
	MoveDuration float64
}

// assigns tracks to scrolling comments fed in ascending time order; one per conversion
type Allocator struct {
	cfg         AllocatorConfig
	measurer    TextMeasurer
	glyphHeight float64
	trackHeight float64
	trackCount  int

	occupied []Occupancy
	// positions into occupied per track, insertion order
	byTrack [][]int
	// per track, leading byTrack entries that ended at or before maxTime
	expired []int
	maxTime float64
	dropped int
}

func NewAllocator(cfg AllocatorConfig, measurer TextMeasurer) (*Allocator, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &ConfigError{Field: "resolution", Reason: fmt.Sprintf("%dx%d must be positive", cfg.Width, cfg.Height)}
	}
	if cfg.Duration <= 0 || math.IsNaN(cfg.Duration) || math.IsInf(cfg.Duration, 0) {
		return nil, &ConfigError{Field: "duration", Reason: fmt.Sprintf("%v must be a positive number of seconds", cfg.Duration)}
	}
	if measurer == nil {
		return nil, &ConfigError{Field: "measurer", Reason: "is required"}
	}
	large, ok := cfg.Fonts[SizeLarge]
	if !ok {
		return nil, &ConfigError{Field: "fonts", Reason: "missing large font"}
	}
	if cfg.Margin < 0 {
		cfg.Margin = DefaultMargin
	}

	glyphHeight := measurer.Measure(large, referenceText).Height()
	trackHeight := 2*cfg.Margin + glyphHeight
	if trackHeight <= 0 {
		return nil, &ConfigError{Field: "fonts", Reason: "reference text measured with zero height"}
	}
	trackCount := int(math.Floor(float64(cfg.Height) / trackHeight))

	return &Allocator{
		cfg:         cfg,
		measurer:    measurer,
		glyphHeight: glyphHeight,
		trackHeight: trackHeight,
		trackCount:  trackCount,
		byTrack:     make([][]int, trackCount),
		expired:     make([]int, trackCount),
		maxTime:     math.Inf(-1),
	}, nil
}

func (a *Allocator) TrackCount() int {
	return a.trackCount
}

func (a *Allocator) TrackHeight() float64 {
	return a.trackHeight
}

func (a *Allocator) GlyphHeight() float64 {
	return a.glyphHeight
}

// scrolling comments rejected because every track was busy
func (a *Allocator) Dropped() int {
	return a.dropped
}

// copy of the occupancy set in placement order
func (a *Allocator) Occupied() []Occupancy {
	out := make([]Occupancy, len(a.occupied))
	copy(out, a.occupied)
	return out
}

// measures the comment in its size-class font and places it
func (a *Allocator) PlaceComment(c Comment) (Placement, bool, error) {
	if c.Type.Class() != ClassScroll {
		return a.Place(c, 0)
	}
	font, ok := a.cfg.Fonts[c.Size()]
	if !ok {
		return Placement{}, false, &UnknownStyleError{Size: c.Size()}
	}
	return a.Place(c, a.measurer.Measure(font, c.Content).Width)
}

// places a comment whose rendered width is already known; ok is false when a
// scrolling comment found no free track and was dropped
func (a *Allocator) Place(c Comment, width float64) (Placement, bool, error) {
	switch c.Type.Class() {
	case ClassScroll:
		return a.placeScrolling(c, width)
	case ClassTop:
		return Placement{
			Class: ClassTop,
			Track: -1,
			Start: c.Time,
			X1:    float64(a.cfg.Width) / 2,
			Y:     a.cfg.Margin + a.glyphHeight,
		}, true, nil
	case ClassBottom:
		return Placement{
			Class: ClassBottom,
			Track: -1,
			Start: c.Time,
			X1:    float64(a.cfg.Width) / 2,
			Y:     float64(a.cfg.Height) - a.cfg.Margin - a.glyphHeight,
		}, true, nil
	default:
		return Placement{}, false, &UnsupportedMotionTypeError{Type: c.Type}
	}
}

func (a *Allocator) placeScrolling(c Comment, width float64) (Placement, bool, error) {
	halfWidth := width / 2
	crossing := a.cfg.Duration*width/(float64(a.cfg.Width)+width) + crossingGrace
	start := c.Time

	track, ok := a.findTrack(start, width)
	if !ok {
		a.dropped++
		return Placement{}, false, nil
	}

	entry := Occupancy{
		Track:     track,
		Start:     start,
		End:       start + crossing,
		HalfWidth: halfWidth,
	}
	a.occupied = append(a.occupied, entry)
	a.byTrack[track] = append(a.byTrack[track], len(a.occupied)-1)

	y := float64(track)*a.trackHeight + a.cfg.Margin + a.glyphHeight

	return Placement{
		Class:        ClassScroll,
		Track:        track,
		Start:        entry.Start,
		End:          entry.End,
		HalfWidth:    halfWidth,
		X1:           float64(a.cfg.Width) + halfWidth,
		X2:           -halfWidth,
		Y:            y,
		MoveDuration: a.cfg.Duration,
	}, true, nil
}

// lowest track whose first still-visible occupant does not force a skip
func (a *Allocator) findTrack(start, width float64) (int, bool) {
	for track := 0; track < a.trackCount; track++ {
		blocker, busy := a.firstVisible(track, start)
		if !busy || !a.skip(blocker, start, width) {
			return track, true
		}
	}
	return 0, false
}

func (a *Allocator) skip(blocker Occupancy, start, width float64) bool {
	if a.cfg.Policy == PolicyStrict {
		return true
	}
	return blocker.Start < start && blocker.HalfWidth > width
}

// first occupant of track, in placement order, that is still on screen at t
func (a *Allocator) firstVisible(track int, t float64) (Occupancy, bool) {
	entries := a.byTrack[track]

	// with non-decreasing arrival times an entry that ended before an earlier
	// arrival can never match again, so the expired prefix is skipped
	from := 0
	if t >= a.maxTime {
		a.maxTime = t
		for a.expired[track] < len(entries) && a.occupied[entries[a.expired[track]]].End <= t {
			a.expired[track]++
		}
		from = a.expired[track]
	}

	for _, idx := range entries[from:] {
		if entry := a.occupied[idx]; entry.End > t {
			return entry, true
		}
	}
	return Occupancy{}, false
}
