package subtitle

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00:00.00"},
		{time.Second, "0:00:01.00"},
		{11 * time.Second, "0:00:11.00"},
		{1500 * time.Millisecond, "0:00:01.50"},
		{59*time.Second + 996*time.Millisecond, "0:01:00.00"},
		{61*time.Minute + 5*time.Second + 120*time.Millisecond, "1:01:05.12"},
		{10*time.Hour + 4*time.Millisecond, "10:00:00.00"},
		{-3 * time.Second, "0:00:00.00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatTime(tt.in); got != tt.want {
				t.Errorf("FormatTime(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatTimeRoundTrip(t *testing.T) {
	for centis := int64(0); centis < 400000; centis += 137 {
		d := time.Duration(centis) * 10 * time.Millisecond
		got, err := ParseTime(FormatTime(d))
		if err != nil {
			t.Fatalf("ParseTime(FormatTime(%v)): %v", d, err)
		}
		if got != d {
			t.Fatalf("round trip of %v gave %v", d, got)
		}
	}
}

func TestSeconds(t *testing.T) {
	d, err := Seconds(1.25)
	if err != nil {
		t.Fatalf("Seconds(1.25): %v", err)
	}
	if d != 1250*time.Millisecond {
		t.Errorf("Seconds(1.25) = %v", d)
	}

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e12, -1e12, 9.3e9} {
		if _, err := Seconds(bad); err == nil {
			t.Errorf("Seconds(%v) should fail", bad)
		}
	}

	d, err = Seconds(9e9)
	if err != nil {
		t.Fatalf("Seconds(9e9): %v", err)
	}
	if d != 9e9*time.Second {
		t.Errorf("Seconds(9e9) = %v", d)
	}
}

func TestColour(t *testing.T) {
	c := RGB(0x112233)
	if got := c.OverrideTag(); got != "\\c&H332211&" {
		t.Errorf("OverrideTag() = %q", got)
	}
	if got := c.WithAlpha(0x40).String(); got != "&H40332211" {
		t.Errorf("String() = %q", got)
	}
	if got := RGB(0x0000FF).OverrideTag(); got != "\\c&HFF0000&" {
		t.Errorf("blue OverrideTag() = %q", got)
	}
}

func TestEscapeText(t *testing.T) {
	if got := EscapeText("a\nb\r\nc"); got != "a\\Nb\\Nc" {
		t.Errorf("EscapeText = %q", got)
	}
}

func TestScriptWriteAndParse(t *testing.T) {
	white := RGB(0xFFFFFF)
	black := RGB(0)
	script := &Script{
		Info: ScriptInfo{
			Title:    "demo",
			Comments: []string{"written by a test"},
			PlayResX: 1280,
			PlayResY: 720,
			Timer:    "10.0000",
		},
		Styles: []Style{{
			Name:         "Medium",
			FontName:     "Arial",
			FontSize:     52,
			Primary:      white,
			Secondary:    white,
			Outline:      black,
			Back:         black,
			ScaleX:       100,
			ScaleY:       100,
			BorderStyle:  1,
			OutlineWidth: 1,
			Alignment:    5,
		}},
		Events: []Event{{
			Start: time.Second,
			End:   11 * time.Second,
			Style: "Medium",
			Text:  "{\\pos(640, 62)}hi, there",
		}},
	}

	out := script.String()
	wantStyle := "Style: Medium,Arial,52,&H00FFFFFF,&H00FFFFFF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,1,0,5,0,0,0,0"
	if !strings.Contains(out, wantStyle+"\n") {
		t.Errorf("style line missing, got:\n%s", out)
	}
	if !strings.Contains(out, "Dialogue: 0,0:00:01.00,0:00:11.00,Medium,,0,0,0,,{\\pos(640, 62)}hi, there\n") {
		t.Errorf("dialogue line missing, got:\n%s", out)
	}
	if !strings.HasPrefix(out, "[Script Info]\n; written by a test\nTitle: demo\n") {
		t.Errorf("unexpected header:\n%s", out)
	}

	path := filepath.Join(t.TempDir(), "nested", "out.ass")
	if err := script.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output not written: %v", err)
	}

	parsed, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if parsed.Info("PlayResY") != "720" || parsed.Info("Timer") != "10.0000" {
		t.Errorf("script info not preserved")
	}
	if len(parsed.Dialogues()) != 1 || parsed.Dialogues()[0].TextWithoutTags != "hi, there" {
		t.Errorf("unexpected dialogues %+v", parsed.Dialogues())
	}
	if _, ok := script.Style("Medium"); !ok {
		t.Error("Style(Medium) not found")
	}
	if _, ok := script.Style("Large"); ok {
		t.Error("Style(Large) should not exist")
	}
}
