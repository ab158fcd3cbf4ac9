package fontmetrics

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/mgpai22/danmaku/internal/danmaku"
)

// measures text with a single OpenType font regardless of the requested family;
// safe for concurrent use since every call opens its own face
type Measurer struct {
	font *opentype.Font
	name string
}

// measurer backed by the bundled Go Regular font
func New() (*Measurer, error) {
	return Parse(goregular.TTF, "Go")
}

// measurer backed by a TTF/OTF file on disk
func Load(path string) (*Measurer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	return Parse(data, path)
}

func Parse(data []byte, name string) (*Measurer, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
	}
	return &Measurer{font: f, name: name}, nil
}

func (m *Measurer) Name() string {
	return m.name
}

func (m *Measurer) Measure(f danmaku.Font, text string) danmaku.Metrics {
	face, err := opentype.NewFace(m.font, &opentype.FaceOptions{
		Size:    f.SizePx,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return estimate(f, text)
	}
	defer func() {
		_ = face.Close()
	}()

	metrics := face.Metrics()
	return danmaku.Metrics{
		Width:   toFloat(font.MeasureString(face, text)),
		Ascent:  toFloat(metrics.Ascent),
		Descent: toFloat(metrics.Descent),
	}
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// square glyphs, used only when a face cannot be opened at the requested size
func estimate(f danmaku.Font, text string) danmaku.Metrics {
	return danmaku.Metrics{
		Width:   float64(len([]rune(text))) * f.SizePx,
		Ascent:  f.SizePx * 0.8,
		Descent: f.SizePx * 0.2,
	}
}
