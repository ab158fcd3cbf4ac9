package danmaku

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgpai22/danmaku/internal/subtitle"
)

func TestColorTag(t *testing.T) {
	tests := []struct {
		color int
		want  string
	}{
		{White, ""},
		{0xFF0000, `\c&H0000FF&`},
		{0x00FF00, `\c&H00FF00&`},
		{0x0000FF, `\c&HFF0000&`},
		{0x123456, `\c&H563412&`},
		{0x000001, `\c&H010000&`},
		{0, `\c&H000000&`},
		{-1, ""},
		{0x1FF0000, `\c&H0000FF&`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ColorTag(tt.color), "color %06X", tt.color)
	}
}

func TestAlphaByte(t *testing.T) {
	assert.Equal(t, uint8(0x00), AlphaByte(0))
	assert.Equal(t, uint8(0x80), AlphaByte(50))
	assert.Equal(t, uint8(0x33), AlphaByte(20))
	assert.Equal(t, uint8(0xFF), AlphaByte(100))
	assert.Equal(t, uint8(0xFF), AlphaByte(140))
	assert.Equal(t, uint8(0x00), AlphaByte(-5))
}

func TestBuildStyles(t *testing.T) {
	styles := BuildStyles("Noto Sans", 20, DefaultStyleSpecs())
	require.Len(t, styles, 2)

	assert.Equal(t,
		"Style: Medium,Noto Sans,52,&H33FFFFFF,&H33FFFFFF,&H33000000,&H33000000,0,0,0,0,100,100,0,0,1,1,0,5,0,0,0,0",
		styles[SizeLarge].String(),
	)
	assert.Equal(t,
		"Style: Small,Noto Sans,36,&H33FFFFFF,&H33FFFFFF,&H33000000,&H33000000,0,0,0,0,100,100,0,0,1,1,0,5,0,0,0,0",
		styles[SizeSmall].String(),
	)
}

func TestMotionTag(t *testing.T) {
	moving := Placement{Class: ClassScroll, X1: 1946, X2: -26, Y: 62, MoveDuration: 10}
	assert.Equal(t, `\move(1946, 62, -26, 62, 0, 10000)`, MotionTag(moving))

	fractional := Placement{Class: ClassScroll, X1: 1930.25, X2: -10.25, Y: 134, MoveDuration: 93.5}
	assert.Equal(t, `\move(1930.25, 134, -10.25, 134, 0, 93500)`, MotionTag(fractional))

	fixed := Placement{Class: ClassTop, X1: 960, Y: 62}
	assert.Equal(t, `\pos(960, 62)`, MotionTag(fixed))
}

func TestEncode(t *testing.T) {
	encoder := NewEncoder(BuildStyles("Go", 0, DefaultStyleSpecs()), 10)

	event, err := encoder.Encode(
		Comment{Content: "line one\nline two", Time: 61.25, Type: MotionBottom, FontSize: 18, Color: 0xFF0000},
		Placement{Class: ClassBottom, X1: 960, Y: 1018},
	)
	require.NoError(t, err)

	assert.Equal(t, "Small", event.Style)
	assert.Equal(t, 61250*time.Millisecond, event.Start)
	assert.Equal(t, 71250*time.Millisecond, event.End)
	assert.Equal(t,
		`Dialogue: 0,0:01:01.25,0:01:11.25,Small,,0,0,0,,{\pos(960, 1018)\c&H0000FF&}line one\Nline two`,
		event.String(),
	)
}

func TestEncodeClampsNegativeTime(t *testing.T) {
	encoder := NewEncoder(BuildStyles("Go", 0, DefaultStyleSpecs()), 10)

	event, err := encoder.Encode(
		Comment{Content: "early", Time: -5, Type: MotionTop, FontSize: 25, Color: White},
		Placement{Class: ClassTop, X1: 960, Y: 62},
	)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), event.Start)
	assert.Equal(t, 10*time.Second, event.End)
}

func TestEncodeRejectsTimeBeyondRange(t *testing.T) {
	encoder := NewEncoder(BuildStyles("Go", 0, DefaultStyleSpecs()), 10)

	_, err := encoder.Encode(
		Comment{Content: "late", Time: 1e12, Type: MotionTop, FontSize: 25, Color: White},
		Placement{Class: ClassTop, X1: 960, Y: 62},
	)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestEncodeUnknownStyle(t *testing.T) {
	encoder := NewEncoder(map[SizeClass]subtitle.Style{
		SizeLarge: {Name: "Medium"},
	}, 10)

	_, err := encoder.Encode(Comment{Type: MotionTop, FontSize: 18}, Placement{Class: ClassTop})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStyle))

	var unknown *UnknownStyleError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, SizeSmall, unknown.Size)
}
