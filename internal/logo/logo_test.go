package logo

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.Black)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}
	return buf.Bytes()
}

func decodedWidth(t *testing.T, img Image) int {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(img.Base64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	return cfg.Width
}

func TestSafeWidth(t *testing.T) {
	tests := []struct {
		w, device, want int
	}{
		{200, 384, 200},
		{203, 384, 200},
		{1000, 384, 384},
		{1000, 570, 568},
		{3, 384, 8},
		{0, 384, 8},
		{500, 0, 496},
	}
	for _, tt := range tests {
		if got := SafeWidth(tt.w, tt.device); got != tt.want {
			t.Errorf("SafeWidth(%d, %d) = %d, want %d", tt.w, tt.device, got, tt.want)
		}
	}
}

func TestFetcher_HTTP(t *testing.T) {
	var hits int32
	body := pngBytes(t, 500, 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/logo.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer srv.Close()

	f := NewFetcher(time.Second)
	ctx := context.Background()

	img, err := f.Logo(ctx, srv.URL+"/logo.png", 0, 384, 1)
	if err != nil {
		t.Fatalf("Logo failed: %v", err)
	}
	if img.Width != 384 || decodedWidth(t, img) != 384 {
		t.Errorf("Expected logo clamped to 384, got %d (png %d)", img.Width, decodedWidth(t, img))
	}

	img, err = f.Logo(ctx, srv.URL+"/logo.png", 0, 384, 0.5)
	if err != nil {
		t.Fatalf("Logo failed: %v", err)
	}
	if img.Width != 248 {
		t.Errorf("Expected scaled width 248, got %d", img.Width)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("Expected cached logo to be fetched once, got %d", hits)
	}

	if _, err := f.Logo(ctx, srv.URL+"/missing.png", 0, 384, 1); err == nil {
		t.Error("Expected error for missing logo")
	}
}

func TestFetcher_DataURL(t *testing.T) {
	url := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 100, 20))

	img, err := NewFetcher(0).Logo(context.Background(), url, 77, 384, 1)
	if err != nil {
		t.Fatalf("Logo failed: %v", err)
	}
	if img.Width != 72 {
		t.Errorf("Expected width rounded down to 72, got %d", img.Width)
	}
}

func TestFetcher_Errors(t *testing.T) {
	f := NewFetcher(0)
	for _, url := range []string{"", "data:nocomma", "/does/not/exist.png"} {
		if _, err := f.Logo(context.Background(), url, 0, 384, 1); err == nil {
			t.Errorf("Expected error for %q", url)
		}
	}
}

func TestQRCode(t *testing.T) {
	img, err := QRCode("https://example.com/r/42", 0, 384)
	if err != nil {
		t.Fatalf("QRCode failed: %v", err)
	}
	if img.Width != 192 || decodedWidth(t, img) != 192 {
		t.Errorf("Expected 192 wide qr, got %d", img.Width)
	}

	if _, err := QRCode("", 0, 384); err == nil {
		t.Error("Expected error for empty value")
	}
}

func TestBarcode(t *testing.T) {
	tests := []struct {
		value, format string
	}{
		{"ORDER-1234", "CODE128"},
		{"ORDER1234", "CODE39"},
		{"5901234123457", "EAN13"},
		{"12345", ""},
	}
	for _, tt := range tests {
		t.Run(tt.format+"/"+tt.value, func(t *testing.T) {
			img, err := Barcode(tt.value, tt.format, 384)
			if err != nil {
				t.Fatalf("Barcode failed: %v", err)
			}
			if img.Width%8 != 0 || img.Width > 384 {
				t.Errorf("Unsafe barcode width %d", img.Width)
			}
		})
	}

	if _, err := Barcode("12", "EAN13", 384); err == nil {
		t.Error("Expected error for invalid EAN")
	}
}
