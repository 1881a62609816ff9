package preview

import (
	"image"
	"image/color"
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/Vandanarajput/PosAPP/internal/layout"
	"github.com/Vandanarajput/PosAPP/internal/transport"
)

const (
	margin     = 8
	lineHeight = 24
	cutHeight  = 24
)

var monoFonts = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSansMono.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationMono-Regular.ttf",
	"/System/Library/Fonts/Menlo.ttc",
	"/System/Library/Fonts/Monaco.ttf",
	"C:\\Windows\\Fonts\\consola.ttf",
}

// canvas is a white page that grows as content is drawn
type canvas struct {
	width  int
	height int
	ctx    *gg.Context
	y      float64
}

func newCanvas(width int) *canvas {
	c := &canvas{width: width, height: 1000}
	c.ctx = gg.NewContext(width, c.height)
	c.ctx.SetColor(color.White)
	c.ctx.Clear()
	c.ctx.SetColor(color.Black)
	return c
}

func (c *canvas) ensureHeight(needed int) {
	if int(c.y)+needed <= c.height {
		return
	}
	newHeight := c.height * 2
	if newHeight < int(c.y)+needed {
		newHeight = int(c.y) + needed + 1000
	}

	ctx := gg.NewContext(c.width, newHeight)
	ctx.SetColor(color.White)
	ctx.Clear()
	ctx.DrawImage(c.ctx.Image(), 0, 0)
	ctx.SetColor(color.Black)
	loadMonoFont(ctx, lineHeight*0.8)

	c.ctx = ctx
	c.height = newHeight
}

func (c *canvas) crop() image.Image {
	h := int(c.y) + margin
	if h > c.height {
		h = c.height
	}
	return imaging.Crop(c.ctx.Image(), image.Rect(0, 0, c.width, h))
}

func loadMonoFont(ctx *gg.Context, points float64) bool {
	for _, path := range monoFonts {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := ctx.LoadFontFace(path, points); err == nil {
			return true
		}
	}
	return false
}

// Render draws recorded operations on a paper dotsWidth wide with chars
// characters per line. Text is laid out on a fixed character grid.
func Render(ops []Op, dotsWidth, chars int) image.Image {
	if dotsWidth <= 0 {
		dotsWidth = 576
	}
	if chars <= 0 {
		chars = layout.CharsForDots(dotsWidth, layout.DefaultDotsPerChar)
	}
	cell := float64(dotsWidth-2*margin) / float64(chars)

	c := newCanvas(dotsWidth)
	loadMonoFont(c.ctx, lineHeight*0.8)
	c.y = margin

	for _, op := range ops {
		switch op.Kind {
		case OpText:
			for _, line := range strings.Split(op.Text, "\n") {
				c.drawLine(line, op.Style, chars, cell)
			}
		case OpImage:
			c.drawImage(op)
		case OpCut:
			c.drawCut()
		}
	}
	return c.crop()
}

func (c *canvas) drawLine(line string, style transport.TextOptions, chars int, cell float64) {
	c.ensureHeight(lineHeight)

	n := layout.Len(line)
	col := 0
	switch style.Align {
	case "center":
		col = (chars - n) / 2
	case "right":
		col = chars - n
	}
	if col < 0 {
		col = 0
	}

	baseline := c.y + lineHeight*0.8
	for i, r := range []rune(line) {
		x := margin + float64(col+i)*cell
		c.ctx.DrawString(string(r), x, baseline)
		if style.Bold {
			c.ctx.DrawString(string(r), x+1, baseline)
		}
	}
	if style.Underline && n > 0 {
		c.ctx.SetLineWidth(1)
		c.ctx.DrawLine(margin+float64(col)*cell, baseline+2, margin+float64(col+n)*cell, baseline+2)
		c.ctx.Stroke()
	}
	c.y += lineHeight
}

func (c *canvas) drawImage(op Op) {
	img, err := transport.DecodeImage(op.Image)
	if err != nil {
		return
	}
	width := op.Width
	if width <= 0 || width > c.width {
		width = c.width
	}
	if img.Bounds().Dx() != width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	h := img.Bounds().Dy()
	c.ensureHeight(h)
	c.ctx.DrawImage(img, (c.width-width)/2, int(c.y))
	c.y += float64(h)
}

func (c *canvas) drawCut() {
	c.ensureHeight(cutHeight)
	y := c.y + cutHeight/2
	c.ctx.SetLineWidth(1)
	for x := 0.0; x < float64(c.width); x += 15 {
		end := x + 10
		if end > float64(c.width) {
			end = float64(c.width)
		}
		c.ctx.DrawLine(x, y, end, y)
		c.ctx.Stroke()
	}
	c.y += cutHeight
}

// EncodePNG renders ops and writes the image as PNG
func EncodePNG(w io.Writer, ops []Op, dotsWidth, chars int) error {
	return imaging.Encode(w, Render(ops, dotsWidth, chars), imaging.PNG)
}
