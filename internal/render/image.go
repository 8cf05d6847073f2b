package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	ImageWidth  = 800
	ImageHeight = 600

	imageMargin   = 10
	titleBaseline = 20
	entriesStart  = 60
	lineHeight    = 16
	entrySpacing  = 14
)

// ImageRenderer draws the story as black text on a white PNG canvas.
// Text that does not fit the canvas is cut off.
type ImageRenderer struct {
	face font.Face
}

func NewImageRenderer() *ImageRenderer {
	return &ImageRenderer{face: basicfont.Face7x13}
}

func (r *ImageRenderer) ContentType() string { return "image/png" }

func (r *ImageRenderer) Extension() string { return "png" }

func (r *ImageRenderer) Render(w io.Writer, doc Document) error {
	img := image.NewRGBA(image.Rect(0, 0, ImageWidth, ImageHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: r.face,
	}
	maxWidth := fixed.I(ImageWidth - 2*imageMargin)

	y := titleBaseline
	for _, line := range wrap(d, doc.Title, maxWidth) {
		r.drawLine(d, line, y)
		y += lineHeight
	}

	if y < entriesStart {
		y = entriesStart
	}
	for _, e := range doc.Entries {
		for _, raw := range strings.Split(e.Line(), "\n") {
			for _, line := range wrap(d, strings.TrimRight(raw, "\r"), maxWidth) {
				r.drawLine(d, line, y)
				y += lineHeight
			}
		}
		y += entrySpacing
		if y > ImageHeight {
			break
		}
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

func (r *ImageRenderer) drawLine(d *font.Drawer, text string, baseline int) {
	d.Dot = fixed.P(imageMargin, baseline)
	d.DrawString(text)
}

// wrap breaks text on spaces so that each line measures at most maxWidth.
// A single word wider than maxWidth is kept on its own line.
func wrap(d *font.Drawer, text string, maxWidth fixed.Int26_6) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if d.MeasureString(candidate) > maxWidth {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}
