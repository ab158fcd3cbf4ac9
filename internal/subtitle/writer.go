package subtitle

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	styleFormatLine = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding"
	eventFormatLine = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"
)

func (s *Script) String() string {
	var sb strings.Builder

	// script info section
	sb.WriteString("[Script Info]\n")
	for _, comment := range s.Info.Comments {
		sb.WriteString(fmt.Sprintf("; %s\n", comment))
	}
	sb.WriteString(fmt.Sprintf("Title: %s\n", s.Info.Title))
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString(fmt.Sprintf("PlayResX: %d\n", s.Info.PlayResX))
	sb.WriteString(fmt.Sprintf("PlayResY: %d\n", s.Info.PlayResY))
	if s.Info.Timer != "" {
		sb.WriteString(fmt.Sprintf("Timer: %s\n", s.Info.Timer))
	}
	sb.WriteString(fmt.Sprintf("WrapStyle: %d\n", s.Info.WrapStyle))
	if s.Info.ScaledBorderAndShadow {
		sb.WriteString("ScaledBorderAndShadow: yes\n\n")
	} else {
		sb.WriteString("ScaledBorderAndShadow: no\n\n")
	}

	// v4+ styles section
	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString(styleFormatLine + "\n")
	for _, style := range s.Styles {
		sb.WriteString(style.String())
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	// events section
	sb.WriteString("[Events]\n")
	sb.WriteString(eventFormatLine + "\n")
	for _, event := range s.Events {
		sb.WriteString(event.String())
		sb.WriteString("\n")
	}

	return sb.String()
}

func (s *Script) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}

// writes the script to path, creating parent directories
func (s *Script) Write(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s.String()), 0644)
}

// H:MM:SS.cc, rounded to the nearest centisecond; negative durations clamp to zero
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	centis := int64(d.Round(10*time.Millisecond) / (10 * time.Millisecond))

	hours := centis / 360000
	minutes := centis / 6000 % 60
	seconds := centis / 100 % 60
	centis %= 100

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, centis)
}

// converts fractional seconds to a duration, rejecting NaN, infinities and
// values outside the time.Duration range
func Seconds(s float64) (time.Duration, error) {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, fmt.Errorf("invalid time value %v", s)
	}
	ns := math.Round(s * float64(time.Second))
	// float64(math.MaxInt64) rounds up to 2^63, which no longer fits
	if ns >= float64(math.MaxInt64) || ns < float64(math.MinInt64) {
		return 0, fmt.Errorf("time value %v out of range", s)
	}
	return time.Duration(ns), nil
}

// turns newlines into ASS hard line breaks
func EscapeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\n", "\\N")
	return text
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}
