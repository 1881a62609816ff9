// Package logo prepares images for the receipt renderer: logos fetched from a
// URL plus generated QR codes and barcodes, all delivered as base64 PNG at a
// printable width.
package logo

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

// maxImageBytes bounds a downloaded logo
const maxImageBytes = 8 << 20

// Image is a print-ready image
type Image struct {
	Base64 string
	Width  int
}

// Source supplies print-ready logos
type Source interface {
	Logo(ctx context.Context, url string, width, deviceWidth int, scale float64) (Image, error)
}

// SafeWidth rounds w down to a multiple of 8 and clamps it to [8, deviceWidth]
func SafeWidth(w, deviceWidth int) int {
	if deviceWidth > 0 && w > deviceWidth {
		w = deviceWidth
	}
	w -= w % 8
	if w < 8 {
		w = 8
	}
	return w
}

// Fetcher loads logos over HTTP, from data: URLs or from local files.
// Decoded images are cached by URL.
type Fetcher struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]image.Image
	limit int
}

// NewFetcher creates a Fetcher with a request timeout
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		cache:  make(map[string]image.Image),
		limit:  32,
	}
}

// Logo returns the image at url scaled to width dots (the image's own width
// when 0) times scale, made safe for a deviceWidth printer.
func (f *Fetcher) Logo(ctx context.Context, url string, width, deviceWidth int, scale float64) (Image, error) {
	img, err := f.load(ctx, url)
	if err != nil {
		return Image{}, err
	}
	if width <= 0 {
		width = img.Bounds().Dx()
	}
	if scale > 0 {
		width = int(float64(width) * scale)
	}
	return Encode(img, SafeWidth(width, deviceWidth))
}

// Encode resizes img to width and encodes it as base64 PNG
func Encode(img image.Image, width int) (Image, error) {
	if img.Bounds().Dx() != width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return Image{}, fmt.Errorf("failed to encode image: %w", err)
	}
	return Image{Base64: base64.StdEncoding.EncodeToString(buf.Bytes()), Width: width}, nil
}

func (f *Fetcher) load(ctx context.Context, url string) (image.Image, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("empty logo url")
	}

	f.mu.Lock()
	img, ok := f.cache[url]
	f.mu.Unlock()
	if ok {
		return img, nil
	}

	data, err := f.read(ctx, url)
	if err != nil {
		return nil, err
	}
	img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode logo: %w", err)
	}

	f.mu.Lock()
	if len(f.cache) >= f.limit {
		for k := range f.cache {
			delete(f.cache, k)
			break
		}
	}
	f.cache[url] = img
	f.mu.Unlock()
	return img, nil
}

func (f *Fetcher) read(ctx context.Context, url string) ([]byte, error) {
	switch {
	case strings.HasPrefix(url, "data:"):
		i := strings.Index(url, ",")
		if i < 0 {
			return nil, fmt.Errorf("malformed data url")
		}
		return base64.StdEncoding.DecodeString(url[i+1:])
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch logo: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch logo: status %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	default:
		return os.ReadFile(strings.TrimPrefix(url, "file://"))
	}
}
