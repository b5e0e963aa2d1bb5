package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/thermwatch/pkg/history"
	"github.com/itohio/thermwatch/pkg/report"
	"github.com/itohio/thermwatch/pkg/sample"
)

var (
	gridColor  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	warmColor  = color.RGBA{R: 200, G: 200, B: 0, A: 160}
	hotColor   = color.RGBA{R: 220, G: 0, B: 0, A: 160}
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	grid    *canvas.Rectangle
	objects []fyne.CanvasObject

	lastSize fyne.Size
}

// plot is the drawing area and the data range mapped onto it.
type plot struct {
	x, y, w, h float32
	yMin, yMax float64
	xMin, xMax time.Time
}

func (p plot) pos(t time.Time, celsius float64) fyne.Position {
	span := p.xMax.Sub(p.xMin).Seconds()
	x := p.x
	if span > 0 {
		x += float32(t.Sub(p.xMin).Seconds()/span) * p.w
	}
	y := p.y + p.h - float32((celsius-p.yMin)/(p.yMax-p.yMin))*p.h
	return fyne.NewPos(x, y)
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh rebuilds all canvas objects from the current data.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	frames := r.scope.displayFrames
	thresholds := r.scope.thresholds
	p := plot{
		yMin: r.scope.yMin,
		yMax: r.scope.yMax,
		xMin: r.scope.xMin,
		xMax: r.scope.xMax,
	}
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.grid}

	marginLeft := float32(50.0)
	marginRight := float32(20.0)
	marginTop := float32(20.0)
	marginBottom := float32(40.0)

	p.x = marginLeft
	p.y = marginTop
	p.w = size.Width - marginLeft - marginRight
	p.h = size.Height - marginTop - marginBottom

	r.drawGrid(p)
	r.drawThresholds(p, thresholds)
	if len(frames) > 0 {
		for ch := range frames[len(frames)-1].Celsius {
			r.drawChannel(p, frames, ch)
		}
		r.drawLegend(p, frames[len(frames)-1])
	}
}

// drawGrid draws horizontal lines every 20C and ten time divisions.
func (r *scopeRenderer) drawGrid(p plot) {
	for c := p.yMin; c <= p.yMax; c += 20 {
		pos := p.pos(p.xMin, c)
		r.hline(p, pos.Y, gridColor, 1)

		text := canvas.NewText(strconv.Itoa(int(c))+"C", labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(p.x-5, pos.Y-6))
		r.objects = append(r.objects, text)
	}

	numVLines := 10
	for i := range numVLines + 1 {
		x := p.x + float32(i)*p.w/float32(numVLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, p.y)
		line.Position2 = fyne.NewPos(x, p.y+p.h)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		offset := time.Duration(float64(p.xMax.Sub(p.xMin)) * float64(i) / float64(numVLines))
		text := canvas.NewText(formatElapsed(offset), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, p.y+p.h+5))
		r.objects = append(r.objects, text)
	}
}

func (r *scopeRenderer) drawThresholds(p plot, t history.Thresholds) {
	r.hline(p, p.pos(p.xMin, float64(t.Warm)).Y, warmColor, 1)
	r.hline(p, p.pos(p.xMin, float64(t.Hot)).Y, hotColor, 1)
}

func (r *scopeRenderer) hline(p plot, y float32, c color.Color, width float32) {
	if y < p.y || y > p.y+p.h {
		return
	}
	line := canvas.NewLine(c)
	line.Position1 = fyne.NewPos(p.x, y)
	line.Position2 = fyne.NewPos(p.x+p.w, y)
	line.StrokeWidth = width
	r.objects = append(r.objects, line)
}

// drawChannel draws one trace, broken where the channel did not report.
func (r *scopeRenderer) drawChannel(p plot, frames []sample.Frame, ch int) {
	c := ChannelColor(ch)
	var prev *fyne.Position
	for _, f := range frames {
		if ch >= len(f.Valid) || !f.Valid[ch] {
			prev = nil
			continue
		}
		pos := p.pos(f.Timestamp, float64(f.Celsius[ch]))
		if prev != nil {
			line := canvas.NewLine(c)
			line.Position1 = *prev
			line.Position2 = pos
			line.StrokeWidth = 1.5
			r.objects = append(r.objects, line)
		}
		prev = &pos
	}
}

// drawLegend lists the latest value of every channel in its trace colour.
func (r *scopeRenderer) drawLegend(p plot, latest sample.Frame) {
	y := p.y + 5
	for ch, valid := range latest.Valid {
		label := "Temp " + strconv.Itoa(ch) + ": --"
		if valid {
			label = report.Format(ch, latest.Celsius[ch])
		}
		text := canvas.NewText(label, ChannelColor(ch))
		text.TextSize = 11
		text.Move(fyne.NewPos(p.x+10, y))
		r.objects = append(r.objects, text)
		y += 14
	}
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

// formatElapsed renders an axis offset as seconds below a minute and m:ss above.
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return strconv.Itoa(int(d/time.Second)) + "s"
	}
	m := int(d / time.Minute)
	s := int((d % time.Minute) / time.Second)
	ss := strconv.Itoa(s)
	if s < 10 {
		ss = "0" + ss
	}
	return strconv.Itoa(m) + ":" + ss
}
