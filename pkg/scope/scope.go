// Package scope draws temperature history: a Fyne chart widget with one trace
// per channel and the colour-coded tray icon.
package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/thermwatch/pkg/history"
	"github.com/itohio/thermwatch/pkg/sample"
)

const (
	// AxisMinCelsius and AxisMaxCelsius bound the Y axis unless data exceeds them.
	AxisMinCelsius = 0
	AxisMaxCelsius = 120
)

// palette holds one trace colour per channel.
var palette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
	{R: 227, G: 119, B: 194, A: 255},
	{R: 188, G: 189, B: 34, A: 255},
}

// ChannelColor returns the trace colour of a channel.
func ChannelColor(ch int) color.RGBA {
	if ch < 0 {
		ch = -ch
	}
	return palette[ch%len(palette)]
}

// ScopeWidget is a custom Fyne widget that plots per-channel temperatures.
type ScopeWidget struct {
	widget.BaseWidget

	// Data (protected by mu)
	mu         sync.RWMutex
	frames     []sample.Frame
	thresholds history.Thresholds

	// Display buffer (reused for downsampling)
	displayFrames []sample.Frame

	yMin, yMax float64
	xMin, xMax time.Time

	window           time.Duration
	maxDisplayPoints int
}

// New creates a new ScopeWidget showing window worth of history.
func New(window time.Duration, thresholds history.Thresholds) *ScopeWidget {
	if window <= 0 {
		window = history.DefaultWindow
	}
	s := &ScopeWidget{
		thresholds:       thresholds,
		displayFrames:    make([]sample.Frame, 0, 600),
		window:           window,
		maxDisplayPoints: 600,
	}
	s.ExtendBaseWidget(s)
	s.updateScale()
	s.Refresh()
	return s
}

// UpdateData replaces the plotted frames.
// This should be called from the history callback using fyne.Do().
func (s *ScopeWidget) UpdateData(frames []sample.Frame, thresholds history.Thresholds) {
	s.mu.Lock()
	s.displayFrames = sample.DownsampleFrames(s.displayFrames, frames, s.maxDisplayPoints)
	s.frames = frames
	s.thresholds = thresholds
	s.updateScale()
	s.mu.Unlock()

	s.Refresh()
}

// updateScale must be called with mu held.
func (s *ScopeWidget) updateScale() {
	s.yMin, s.yMax = yRange(s.displayFrames)
	s.xMin, s.xMax = xRange(s.displayFrames, s.window, time.Now())
}

// yRange is the fixed axis widened to fit out of range values.
func yRange(frames []sample.Frame) (float64, float64) {
	lo, hi := float64(AxisMinCelsius), float64(AxisMaxCelsius)
	for _, f := range frames {
		for i, v := range f.Valid {
			if !v {
				continue
			}
			c := float64(f.Celsius[i])
			if c < lo {
				lo = c
			}
			if c > hi {
				hi = c
			}
		}
	}
	return lo, hi
}

// xRange starts at the oldest frame and spans at least window.
func xRange(frames []sample.Frame, window time.Duration, now time.Time) (time.Time, time.Time) {
	if len(frames) == 0 {
		return now, now.Add(window)
	}
	start := frames[0].Timestamp
	end := frames[len(frames)-1].Timestamp
	if end.Sub(start) < window {
		end = start.Add(window)
	}
	return start, end
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:   s,
		grid:    grid,
		objects: []fyne.CanvasObject{grid},
	}
}
