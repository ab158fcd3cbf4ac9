package danmaku

import (
	"fmt"
	"math"

	"github.com/mgpai22/danmaku/internal/subtitle"
)

// name and pixel size of the style declared for a size class
type StyleSpec struct {
	Name     string
	FontSize int
}

func DefaultStyleSpecs() map[SizeClass]StyleSpec {
	return map[SizeClass]StyleSpec{
		SizeLarge: {Name: "Medium", FontSize: largeFontPx},
		SizeSmall: {Name: "Small", FontSize: smallFontPx},
	}
}

// declaration order of the style table
var sizeClasses = []SizeClass{SizeLarge, SizeSmall}

// ASS alpha byte for a transparency percentage, 0 opaque and 100 invisible
func AlphaByte(percent float64) uint8 {
	if percent <= 0 || math.IsNaN(percent) {
		return 0
	}
	if percent >= 100 {
		return 0xFF
	}
	return uint8(math.Round(percent * 255 / 100))
}

// one style per declared size class, all colour channels sharing the same alpha
func BuildStyles(fontName string, alphaPercent float64, specs map[SizeClass]StyleSpec) map[SizeClass]subtitle.Style {
	alpha := AlphaByte(alphaPercent)
	white := subtitle.RGB(White).WithAlpha(alpha)
	black := subtitle.RGB(0).WithAlpha(alpha)

	styles := make(map[SizeClass]subtitle.Style, len(specs))
	for size, spec := range specs {
		styles[size] = subtitle.Style{
			Name:         spec.Name,
			FontName:     fontName,
			FontSize:     spec.FontSize,
			Primary:      white,
			Secondary:    white,
			Outline:      black,
			Back:         black,
			ScaleX:       100,
			ScaleY:       100,
			BorderStyle:  1,
			OutlineWidth: 1,
			Alignment:    5,
		}
	}
	return styles
}

// \move for scrolling placements, \pos for fixed ones
func MotionTag(p Placement) string {
	if p.Class == ClassScroll {
		return fmt.Sprintf("\\move(%s, %s, %s, %s, 0, %s)",
			subtitle.FormatNumber(p.X1),
			subtitle.FormatNumber(p.Y),
			subtitle.FormatNumber(p.X2),
			subtitle.FormatNumber(p.Y),
			subtitle.FormatNumber(p.MoveDuration*1000),
		)
	}
	return fmt.Sprintf("\\pos(%s, %s)",
		subtitle.FormatNumber(p.X1),
		subtitle.FormatNumber(p.Y),
	)
}

// empty for white, which the style already renders
func ColorTag(color int) string {
	color &= colorMask
	if color == White {
		return ""
	}
	return subtitle.RGB(color).OverrideTag()
}

// turns a comment and its placement into a Dialogue event
type Encoder struct {
	styles   map[SizeClass]subtitle.Style
	duration float64
}

func NewEncoder(styles map[SizeClass]subtitle.Style, duration float64) *Encoder {
	return &Encoder{styles: styles, duration: duration}
}

// every event lasts the full video duration; visibility comes from the tags
func (e *Encoder) Encode(c Comment, p Placement) (subtitle.Event, error) {
	style, ok := e.styles[c.Size()]
	if !ok {
		return subtitle.Event{}, &UnknownStyleError{Size: c.Size()}
	}

	// negative times start at zero and still get the full duration
	t := math.Max(c.Time, 0)
	start, err := subtitle.Seconds(t)
	if err != nil {
		return subtitle.Event{}, &MalformedRecordError{Index: -1, Field: "time", Value: fmt.Sprint(c.Time), Err: err}
	}
	end, err := subtitle.Seconds(t + e.duration)
	if err != nil {
		return subtitle.Event{}, &MalformedRecordError{Index: -1, Field: "time", Value: fmt.Sprint(c.Time), Err: err}
	}

	return subtitle.Event{
		Start: start,
		End:   end,
		Style: style.Name,
		Text:  "{" + MotionTag(p) + ColorTag(c.Color) + "}" + subtitle.EscapeText(c.Content),
	}, nil
}
