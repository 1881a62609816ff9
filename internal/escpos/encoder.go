package escpos

import (
	"bytes"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Encoder accumulates an ESC/POS command stream
type Encoder struct {
	buffer *bytes.Buffer
}

// NewEncoder creates an empty encoder
func NewEncoder() *Encoder {
	return &Encoder{buffer: new(bytes.Buffer)}
}

// Initialize resets the printer
func (e *Encoder) Initialize() *Encoder {
	e.buffer.Write(Init)
	return e
}

// Prime writes the full reset sequence
func (e *Encoder) Prime() *Encoder {
	e.buffer.Write(Priming())
	return e
}

// SetAlignment sets text alignment: left, center or right
func (e *Encoder) SetAlignment(align string) *Encoder {
	var n byte
	switch strings.ToLower(align) {
	case "center":
		n = 1
	case "right":
		n = 2
	}
	e.buffer.Write([]byte{ESC, 'a', n})
	return e
}

// SetBold enables or disables emphasized text
func (e *Encoder) SetBold(enabled bool) *Encoder {
	e.buffer.Write([]byte{ESC, 'E', boolByte(enabled)})
	return e
}

// SetUnderline enables or disables single underline
func (e *Encoder) SetUnderline(enabled bool) *Encoder {
	e.buffer.Write([]byte{ESC, '-', boolByte(enabled)})
	return e
}

// SetTextSize sets the character magnification, 1..8 in each direction
func (e *Encoder) SetTextSize(width, height int) *Encoder {
	width = clamp(width, 1, 8)
	height = clamp(height, 1, 8)
	e.buffer.Write([]byte{GS, '!', byte(((width - 1) << 4) | (height - 1))})
	return e
}

// WriteText writes text encoded to code page 437
func (e *Encoder) WriteText(text string) *Encoder {
	e.buffer.Write(EncodeText(text))
	return e
}

// WriteLine writes text followed by a line feed
func (e *Encoder) WriteLine(text string) *Encoder {
	return e.WriteText(text).LineFeed()
}

// LineFeed sends one line feed
func (e *Encoder) LineFeed() *Encoder {
	e.buffer.WriteByte(LF)
	return e
}

// Feed sends multiple line feeds
func (e *Encoder) Feed(lines int) *Encoder {
	e.buffer.Write(Feeds(lines))
	return e
}

// Cut sends the standard cut opcode for the mode
func (e *Encoder) Cut(mode CutMode) *Encoder {
	e.buffer.Write(CutCode(mode))
	return e
}

// Raw appends bytes unchanged
func (e *Encoder) Raw(data []byte) *Encoder {
	e.buffer.Write(data)
	return e
}

// PrintImage appends img as a GS v 0 raster bit image
func (e *Encoder) PrintImage(img image.Image) *Encoder {
	e.buffer.Write(Raster(img))
	return e
}

// Bytes returns the accumulated stream
func (e *Encoder) Bytes() []byte {
	return e.buffer.Bytes()
}

// Len returns the number of accumulated bytes
func (e *Encoder) Len() int {
	return e.buffer.Len()
}

// Reset clears the buffer
func (e *Encoder) Reset() {
	e.buffer.Reset()
}

var cp437 = encoding.ReplaceUnsupported(charmap.CodePage437.NewEncoder())

// EncodeText converts UTF-8 text to code page 437, replacing unmappable runes
func EncodeText(text string) []byte {
	out, err := cp437.Bytes([]byte(text))
	if err != nil {
		return []byte(text)
	}
	return out
}

// Raster converts an image into a GS v 0 command. Pixels darker than 50%
// grey are printed.
func Raster(img image.Image) []byte {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	bytesPerLine := (width + 7) / 8
	out := make([]byte, 0, 8+bytesPerLine*height)
	out = append(out, GS, 'v', '0', 0,
		byte(bytesPerLine&0xFF), byte((bytesPerLine>>8)&0xFF),
		byte(height&0xFF), byte((height>>8)&0xFF))

	bitmap := make([]byte, bytesPerLine*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := gray.PixOffset(x, y)
			// Transparent pixels count as paper
			if gray.Pix[off+3] < 128 || gray.Pix[off] >= 128 {
				continue
			}
			bitmap[y*bytesPerLine+x/8] |= 1 << (7 - uint(x%8))
		}
	}
	return append(out, bitmap...)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
