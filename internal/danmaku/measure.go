package danmaku

import (
	"context"
	"sync"
)

// font family at a pixel size
type Font struct {
	Family string
	SizePx float64
}

type Metrics struct {
	Width   float64
	Ascent  float64
	Descent float64
}

func (m Metrics) Height() float64 {
	return m.Ascent + m.Descent
}

// measures rendered text; implementations must be deterministic and safe for
// concurrent use
type TextMeasurer interface {
	Measure(font Font, text string) Metrics
}

// adapts a function to TextMeasurer
type MeasurerFunc func(font Font, text string) Metrics

func (f MeasurerFunc) Measure(font Font, text string) Metrics {
	return f(font, text)
}

const (
	largeFontPx = 52
	smallFontPx = 36
)

// pixel fonts used for the two size classes
func DefaultFonts(family string) map[SizeClass]Font {
	return map[SizeClass]Font{
		SizeLarge: {Family: family, SizePx: largeFontPx},
		SizeSmall: {Family: family, SizePx: smallFontPx},
	}
}

type measureKey struct {
	font Font
	text string
}

// memoizes measurements for one conversion; the first stored value wins
type memoMeasurer struct {
	mu    sync.Mutex
	next  TextMeasurer
	cache map[measureKey]Metrics
}

func newMemoMeasurer(next TextMeasurer) *memoMeasurer {
	return &memoMeasurer{
		next:  next,
		cache: make(map[measureKey]Metrics),
	}
}

func (m *memoMeasurer) Measure(font Font, text string) Metrics {
	key := measureKey{font: font, text: text}

	m.mu.Lock()
	if metrics, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return metrics
	}
	m.mu.Unlock()

	metrics := m.next.Measure(font, text)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.cache[key]; ok {
		return existing
	}
	m.cache[key] = metrics
	return metrics
}

type measureJob struct {
	font Font
	text string
}

// measures widths with up to workers goroutines; results are indexed like jobs
func measureAll(
	ctx context.Context,
	measurer TextMeasurer,
	jobs []measureJob,
	workers int,
) ([]float64, error) {
	widths := make([]float64, len(jobs))
	if len(jobs) == 0 {
		return widths, nil
	}
	if workers <= 1 {
		for i, job := range jobs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			widths[i] = measurer.Measure(job.font, job.text).Width
		}
		return widths, nil
	}

	if workers > len(jobs) {
		workers = len(jobs)
	}

	queue := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				widths[i] = measurer.Measure(jobs[i].font, jobs[i].text).Width
			}
		}()
	}

feed:
	for i := range jobs {
		select {
		case queue <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return widths, nil
}
