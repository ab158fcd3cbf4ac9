package danmaku

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureAllBoundsGoroutines(t *testing.T) {
	const workers = 3
	jobs := make([]measureJob, 5000)
	for i := range jobs {
		jobs[i] = measureJob{font: Font{Family: "Go", SizePx: 52}, text: string(rune('a' + i%26))}
	}

	baseline := runtime.NumGoroutine()
	var inFlight, peakInFlight, peakGoroutines atomic.Int64
	measurer := MeasurerFunc(func(font Font, text string) Metrics {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		storeMax(&peakInFlight, n)
		storeMax(&peakGoroutines, int64(runtime.NumGoroutine()))
		return fixedMeasurer(font, text)
	})

	widths, err := measureAll(context.Background(), measurer, jobs, workers)
	require.NoError(t, err)
	require.Len(t, widths, len(jobs))

	for i, job := range jobs {
		assert.Equal(t, fixedMeasurer(job.font, job.text).Width, widths[i])
	}
	assert.LessOrEqual(t, peakInFlight.Load(), int64(workers))
	assert.LessOrEqual(t, peakGoroutines.Load(), int64(baseline+workers+5))
}

func TestMeasureAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []measureJob{{font: Font{SizePx: 52}, text: "a"}, {font: Font{SizePx: 52}, text: "b"}}
	_, err := measureAll(ctx, fixedMeasurer, jobs, 4)
	assert.ErrorIs(t, err, context.Canceled)
}

func storeMax(v *atomic.Int64, n int64) {
	for {
		cur := v.Load()
		if n <= cur || v.CompareAndSwap(cur, n) {
			return
		}
	}
}
