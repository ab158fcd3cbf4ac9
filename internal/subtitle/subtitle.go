package subtitle

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ASS colour, serialized as &HAABBGGRR
type Colour struct {
	R, G, B uint8
	// 0x00 is opaque, 0xFF fully transparent
	A uint8
}

// colour from a 24-bit 0xRRGGBB integer
func RGB(rgb int) Colour {
	return Colour{
		R: uint8(rgb >> 16 & 0xFF),
		G: uint8(rgb >> 8 & 0xFF),
		B: uint8(rgb & 0xFF),
	}
}

func (c Colour) WithAlpha(a uint8) Colour {
	c.A = a
	return c
}

func (c Colour) String() string {
	return fmt.Sprintf("&H%02X%02X%02X%02X", c.A, c.B, c.G, c.R)
}

// inline primary colour override, \c&HBBGGRR&
func (c Colour) OverrideTag() string {
	return fmt.Sprintf("\\c&H%02X%02X%02X&", c.B, c.G, c.R)
}

// [Script Info] section
type ScriptInfo struct {
	Title                 string
	Comments              []string
	PlayResX              int
	PlayResY              int
	Timer                 string
	WrapStyle             int
	ScaledBorderAndShadow bool
}

// one line of the [V4+ Styles] section
type Style struct {
	Name         string
	FontName     string
	FontSize     int
	Primary      Colour
	Secondary    Colour
	Outline      Colour
	Back         Colour
	Bold         bool
	Italic       bool
	Underline    bool
	StrikeOut    bool
	ScaleX       int
	ScaleY       int
	Spacing      float64
	Angle        float64
	BorderStyle  int
	OutlineWidth float64
	Shadow       float64
	Alignment    int
	MarginL      int
	MarginR      int
	MarginV      int
	Encoding     int
}

func (s Style) String() string {
	fields := []string{
		s.Name,
		s.FontName,
		strconv.Itoa(s.FontSize),
		s.Primary.String(),
		s.Secondary.String(),
		s.Outline.String(),
		s.Back.String(),
		formatBool(s.Bold),
		formatBool(s.Italic),
		formatBool(s.Underline),
		formatBool(s.StrikeOut),
		strconv.Itoa(s.ScaleX),
		strconv.Itoa(s.ScaleY),
		FormatNumber(s.Spacing),
		FormatNumber(s.Angle),
		strconv.Itoa(s.BorderStyle),
		FormatNumber(s.OutlineWidth),
		FormatNumber(s.Shadow),
		strconv.Itoa(s.Alignment),
		strconv.Itoa(s.MarginL),
		strconv.Itoa(s.MarginR),
		strconv.Itoa(s.MarginV),
		strconv.Itoa(s.Encoding),
	}
	return "Style: " + strings.Join(fields, ",")
}

// one Dialogue line of the [Events] section
type Event struct {
	Layer   int
	Start   time.Duration
	End     time.Duration
	Style   string
	Name    string
	MarginL int
	MarginR int
	MarginV int
	Effect  string
	// may carry leading override blocks such as {\pos(1,2)}
	Text string
}

func (e Event) String() string {
	return fmt.Sprintf("Dialogue: %d,%s,%s,%s,%s,%d,%d,%d,%s,%s",
		e.Layer,
		FormatTime(e.Start),
		FormatTime(e.End),
		e.Style,
		e.Name,
		e.MarginL,
		e.MarginR,
		e.MarginV,
		e.Effect,
		e.Text,
	)
}

// complete ASS script
type Script struct {
	Info   ScriptInfo
	Styles []Style
	Events []Event
}

// style declared under the given name
func (s *Script) Style(name string) (Style, bool) {
	for _, style := range s.Styles {
		if style.Name == name {
			return style, true
		}
	}
	return Style{}, false
}

func formatBool(b bool) string {
	if b {
		return "-1"
	}
	return "0"
}

// shortest decimal form, 960 rather than 960.000000
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
