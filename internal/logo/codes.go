package logo

import (
	"fmt"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"
	"github.com/skip2/go-qrcode"
)

// QRCode renders value as a QR code size dots wide, or half the device
// width when size is 0.
func QRCode(value string, size, deviceWidth int) (Image, error) {
	if value == "" {
		return Image{}, fmt.Errorf("empty qr value")
	}
	if size <= 0 {
		size = deviceWidth / 2
	}
	size = SafeWidth(size, deviceWidth)

	qr, err := qrcode.New(value, qrcode.Medium)
	if err != nil {
		return Image{}, fmt.Errorf("failed to encode qr code: %w", err)
	}
	qr.DisableBorder = true
	return Encode(qr.Image(size), size)
}

// Barcode renders value in format (CODE128, CODE39, EAN13, EAN8) scaled to
// fit the device width.
func Barcode(value, format string, deviceWidth int) (Image, error) {
	if value == "" {
		return Image{}, fmt.Errorf("empty barcode value")
	}

	var code barcode.Barcode
	var err error
	switch strings.ToUpper(strings.TrimSpace(format)) {
	case "CODE39":
		code, err = code39.Encode(value, false, false)
	case "EAN13", "EAN8", "EAN":
		code, err = ean.Encode(value)
	default:
		code, err = code128.Encode(value)
	}
	if err != nil {
		return Image{}, fmt.Errorf("failed to encode barcode: %w", err)
	}

	width := SafeWidth(deviceWidth*3/4, deviceWidth)
	if minW := code.Bounds().Dx(); width < minW {
		width = SafeWidth(minW+7, 0)
	}
	scaled, err := barcode.Scale(code, width, 80)
	if err != nil {
		return Image{}, fmt.Errorf("failed to scale barcode: %w", err)
	}
	return Encode(scaled, width)
}
