package scope

import (
	"testing"
	"time"

	"github.com/itohio/thermwatch/pkg/sample"
	"github.com/stretchr/testify/assert"
)

func TestYRange(t *testing.T) {
	lo, hi := yRange(nil)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 120.0, hi)

	f := sample.NewFrame(3, time.Time{})
	f.Celsius = []int{-10, 50, 140}
	f.Valid = []bool{true, true, true}
	lo, hi = yRange([]sample.Frame{f})
	assert.Equal(t, -10.0, lo)
	assert.Equal(t, 140.0, hi)

	f.Valid = []bool{false, true, false}
	lo, hi = yRange([]sample.Frame{f})
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 120.0, hi)
}

func TestXRange(t *testing.T) {
	now := time.Unix(1000, 0)
	start, end := xRange(nil, time.Minute, now)
	assert.Equal(t, now, start)
	assert.Equal(t, now.Add(time.Minute), end)

	frames := []sample.Frame{{Timestamp: now}, {Timestamp: now.Add(10 * time.Second)}}
	start, end = xRange(frames, time.Minute, time.Time{})
	assert.Equal(t, now, start)
	assert.Equal(t, now.Add(time.Minute), end)

	frames[1].Timestamp = now.Add(2 * time.Minute)
	_, end = xRange(frames, time.Minute, time.Time{})
	assert.Equal(t, now.Add(2*time.Minute), end)
}

func TestPlotPos(t *testing.T) {
	now := time.Unix(1000, 0)
	p := plot{x: 10, y: 20, w: 100, h: 120, yMin: 0, yMax: 120, xMin: now, xMax: now.Add(10 * time.Second)}

	pos := p.pos(now, 0)
	assert.Equal(t, float32(10), pos.X)
	assert.Equal(t, float32(140), pos.Y)

	pos = p.pos(now.Add(5*time.Second), 60)
	assert.Equal(t, float32(60), pos.X)
	assert.Equal(t, float32(80), pos.Y)
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0s", formatElapsed(0))
	assert.Equal(t, "45s", formatElapsed(45*time.Second))
	assert.Equal(t, "1:05", formatElapsed(65*time.Second))
	assert.Equal(t, "10:00", formatElapsed(10*time.Minute))
}
