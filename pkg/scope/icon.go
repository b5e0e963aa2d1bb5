package scope

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	"github.com/itohio/thermwatch/pkg/history"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// IconSize is the edge length of the tray icon in pixels.
const IconSize = 32

var levelColors = map[history.Level]color.RGBA{
	history.LevelNormal: {G: 255, A: 255},
	history.LevelWarm:   {R: 255, G: 255, A: 255},
	history.LevelHot:    {R: 255, A: 255},
}

// TrayIcon renders celsius in black on a square coloured by its level.
// The value is limited to three characters (-99..999).
func TrayIcon(celsius int, t history.Thresholds) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, IconSize, IconSize))
	bg := levelColors[history.Classify(celsius, t)]
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	text := strconv.Itoa(min(999, max(-99, celsius)))
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	height := face.Ascent
	d.Dot = fixed.P((IconSize-width)/2, (IconSize+height)/2)
	d.DrawString(text)

	return img
}

// TrayIconPNG encodes TrayIcon as PNG, the format tray implementations accept.
func TrayIconPNG(celsius int, t history.Thresholds) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, TrayIcon(celsius, t)); err != nil {
		return nil, fmt.Errorf("failed to encode tray icon: %w", err)
	}
	return buf.Bytes(), nil
}
