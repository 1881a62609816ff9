package transport

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/Vandanarajput/PosAPP/internal/escpos"
)

// EncodeText builds the byte stream for one printText call. The text is
// always terminated by a line feed, so a trailing "\n" prints a blank line.
// Styles are reset afterwards so they never leak into the next call.
func EncodeText(text string, opts TextOptions) []byte {
	enc := escpos.NewEncoder().SetAlignment(opts.Align)
	if opts.Bold {
		enc.SetBold(true)
	}
	if opts.Underline {
		enc.SetUnderline(true)
	}
	enc.WriteText(text).LineFeed()
	if opts.Bold {
		enc.SetBold(false)
	}
	if opts.Underline {
		enc.SetUnderline(false)
	}
	return enc.SetAlignment("left").Bytes()
}

// DecodeImage decodes a base64 image, accepting data: URLs
func DecodeImage(data string) (image.Image, error) {
	if i := strings.Index(data, ","); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// EncodeImageBase64 builds a centered raster command for a base64 image,
// scaled to opts.Width dots when set.
func EncodeImageBase64(data string, opts ImageOptions) ([]byte, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	if opts.Width > 0 && img.Bounds().Dx() != opts.Width {
		img = imaging.Resize(img, opts.Width, 0, imaging.Lanczos)
	}
	return escpos.NewEncoder().
		SetAlignment("center").
		PrintImage(img).
		LineFeed().
		SetAlignment("left").
		Bytes(), nil
}
