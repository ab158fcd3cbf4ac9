package danmaku

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/mgpai22/danmaku/internal/subtitle"
)

const (
	DefaultWorkers = 4
	DefaultTitle   = "Danmaku"
	DefaultFont    = "Go"

	generatorComment = "Script generated by danmaku converter"
)

// parameters of one conversion
type Config struct {
	Title    string
	FontName string
	// transparency in percent, 0 opaque
	AlphaPercent float64
	// video length in seconds
	Duration     float64
	BlockedTypes []MotionType
	Width        int
	Height       int
	Policy       OverlapPolicy
	// measurement goroutines, DefaultWorkers when zero
	Workers int
	// replaces the Medium/Small table when set
	Styles map[SizeClass]StyleSpec
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return &ConfigError{Field: "resolution", Reason: fmt.Sprintf("%dx%d must be positive", c.Width, c.Height)}
	}
	if c.Duration <= 0 || math.IsNaN(c.Duration) || math.IsInf(c.Duration, 0) {
		return &ConfigError{Field: "duration", Reason: fmt.Sprintf("%v must be a positive number of seconds", c.Duration)}
	}
	if c.AlphaPercent < 0 || c.AlphaPercent > 100 || math.IsNaN(c.AlphaPercent) {
		return &ConfigError{Field: "alpha", Reason: fmt.Sprintf("%v must be within 0..100", c.AlphaPercent)}
	}
	if strings.TrimSpace(c.FontName) == "" {
		return &ConfigError{Field: "font", Reason: "must not be empty"}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "workers", Reason: fmt.Sprintf("%d must not be negative", c.Workers)}
	}
	if c.Policy != PolicyReference && c.Policy != PolicyStrict {
		return &ConfigError{Field: "policy", Reason: fmt.Sprintf("%s is unknown", c.Policy)}
	}
	for size, spec := range c.styleSpecs() {
		if strings.TrimSpace(spec.Name) == "" || spec.FontSize <= 0 {
			return &ConfigError{Field: "styles", Reason: fmt.Sprintf("%s needs a name and a positive size", size)}
		}
	}
	if _, ok := c.styleSpecs()[SizeLarge]; !ok {
		return &UnknownStyleError{Size: SizeLarge}
	}
	return nil
}

func (c Config) styleSpecs() map[SizeClass]StyleSpec {
	if c.Styles != nil {
		return c.Styles
	}
	return DefaultStyleSpecs()
}

// counts of one conversion; Input == Blocked + Dropped + Emitted
type Stats struct {
	Input   int
	Blocked int
	Dropped int
	Emitted int
}

// finished ASS script of one conversion
type Document struct {
	Script *subtitle.Script
	Stats  Stats
}

func (d *Document) String() string {
	return d.Script.String()
}

func (d *Document) WriteTo(w io.Writer) (int64, error) {
	return d.Script.WriteTo(w)
}

// reusable and safe for concurrent Convert calls; each call owns its allocator
// and measurement cache
type Converter struct {
	cfg      Config
	measurer TextMeasurer
	styles   map[SizeClass]subtitle.Style
	fonts    map[SizeClass]Font
	blocked  map[MotionType]bool
}

func NewConverter(cfg Config, measurer TextMeasurer) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if measurer == nil {
		return nil, &ConfigError{Field: "measurer", Reason: "is required"}
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}

	specs := cfg.styleSpecs()
	fonts := make(map[SizeClass]Font, len(specs))
	for size, spec := range specs {
		fonts[size] = Font{Family: cfg.FontName, SizePx: float64(spec.FontSize)}
	}

	blocked := map[MotionType]bool{
		MotionSpecialA: true,
		MotionSpecialB: true,
	}
	for _, t := range cfg.BlockedTypes {
		blocked[t] = true
	}

	return &Converter{
		cfg:      cfg,
		measurer: measurer,
		styles:   BuildStyles(cfg.FontName, cfg.AlphaPercent, specs),
		fonts:    fonts,
		blocked:  blocked,
	}, nil
}

func (c *Converter) Config() Config {
	return c.cfg
}

// the input slice is not modified
func (c *Converter) Convert(ctx context.Context, comments []Comment) (*Document, error) {
	stats := Stats{Input: len(comments)}

	kept := make([]Comment, 0, len(comments))
	for _, comment := range comments {
		if c.blocked[comment.Type] {
			stats.Blocked++
			continue
		}
		// placement and encoding both see the clamped start
		if comment.Time < 0 {
			comment.Time = 0
		}
		kept = append(kept, comment)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Time < kept[j].Time
	})

	measurer := newMemoMeasurer(c.measurer)
	widths, err := c.measureScrolling(ctx, measurer, kept)
	if err != nil {
		return nil, err
	}

	allocator, err := NewAllocator(AllocatorConfig{
		Width:    c.cfg.Width,
		Height:   c.cfg.Height,
		Duration: c.cfg.Duration,
		Margin:   DefaultMargin,
		Fonts:    c.fonts,
		Policy:   c.cfg.Policy,
	}, measurer)
	if err != nil {
		return nil, err
	}

	encoder := NewEncoder(c.styles, c.cfg.Duration)
	events := make([]subtitle.Event, 0, len(kept))

	for i, comment := range kept {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		placement, ok, err := allocator.Place(comment, widths[i])
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		event, err := encoder.Encode(comment, placement)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	stats.Dropped = allocator.Dropped()
	stats.Emitted = len(events)

	return &Document{
		Script: &subtitle.Script{
			Info:   c.scriptInfo(),
			Styles: c.declaredStyles(),
			Events: events,
		},
		Stats: stats,
	}, nil
}

// widths of scrolling comments by position in comments; zero for fixed ones
func (c *Converter) measureScrolling(
	ctx context.Context,
	measurer TextMeasurer,
	comments []Comment,
) ([]float64, error) {
	jobs := make([]measureJob, 0, len(comments))
	positions := make([]int, 0, len(comments))

	for i, comment := range comments {
		if comment.Type.Class() != ClassScroll {
			continue
		}
		font, ok := c.fonts[comment.Size()]
		if !ok {
			return nil, &UnknownStyleError{Size: comment.Size()}
		}
		jobs = append(jobs, measureJob{font: font, text: comment.Content})
		positions = append(positions, i)
	}

	measured, err := measureAll(ctx, measurer, jobs, c.cfg.Workers)
	if err != nil {
		return nil, err
	}

	widths := make([]float64, len(comments))
	for j, pos := range positions {
		widths[pos] = measured[j]
	}
	return widths, nil
}

func (c *Converter) scriptInfo() subtitle.ScriptInfo {
	return subtitle.ScriptInfo{
		Title:                 c.cfg.Title,
		Comments:              []string{generatorComment},
		PlayResX:              c.cfg.Width,
		PlayResY:              c.cfg.Height,
		Timer:                 "10.0000",
		WrapStyle:             2,
		ScaledBorderAndShadow: false,
	}
}

func (c *Converter) declaredStyles() []subtitle.Style {
	styles := make([]subtitle.Style, 0, len(c.styles))
	for _, size := range sizeClasses {
		if style, ok := c.styles[size]; ok {
			styles = append(styles, style)
		}
	}
	return styles
}

// parses XML records and converts them in one step
func ConvertXML(ctx context.Context, r io.Reader, cfg Config, measurer TextMeasurer) (*Document, error) {
	comments, err := ParseXML(r)
	if err != nil {
		return nil, err
	}
	converter, err := NewConverter(cfg, measurer)
	if err != nil {
		return nil, err
	}
	return converter.Convert(ctx, comments)
}
