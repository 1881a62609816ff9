// Package renderer prints a receipt document through a Transport as
// fixed-width text, then cuts the paper.
package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Vandanarajput/PosAPP/internal/cut"
	"github.com/Vandanarajput/PosAPP/internal/escpos"
	"github.com/Vandanarajput/PosAPP/internal/layout"
	"github.com/Vandanarajput/PosAPP/internal/logo"
	"github.com/Vandanarajput/PosAPP/internal/transport"
	"github.com/Vandanarajput/PosAPP/pkg/receiptformat"
)

// DefaultDotsWidth is the paper width used when none is configured (80mm)
const DefaultDotsWidth = 576

// Options configures a Renderer
type Options struct {
	// DotsWidth is the printable paper width in dots (384 or 576)
	DotsWidth   int
	DotsPerChar int
	// LogoScale multiplies the logo width before it is clamped to the paper
	LogoScale float64
	// DeferFooters prints footer blocks after every other block
	DeferFooters bool
	// FeedLines is the number of blank lines fed before the cut
	FeedLines int
	// KeyValueGap is the minimum space between a summary label and its value
	KeyValueGap int
	Logos       logo.Source
	Cutter      *cut.Resolver
	Logger      *slog.Logger
}

// Result describes one render
type Result struct {
	Width   int
	Skipped []string
	Cut     cut.Report
}

// Renderer prints documents. It holds no per-job state and may be shared.
type Renderer struct {
	opts Options
	log  *slog.Logger
}

// New creates a Renderer
func New(opts Options) *Renderer {
	if opts.DotsWidth <= 0 {
		opts.DotsWidth = DefaultDotsWidth
	}
	if opts.DotsPerChar <= 0 {
		opts.DotsPerChar = layout.DefaultDotsPerChar
	}
	if opts.LogoScale <= 0 {
		opts.LogoScale = 1
	}
	if opts.FeedLines <= 0 {
		opts.FeedLines = 2
	}
	if opts.KeyValueGap <= 0 {
		opts.KeyValueGap = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Cutter == nil {
		opts.Cutter = cut.New(cut.Options{Logger: opts.Logger})
	}
	return &Renderer{opts: opts, log: opts.Logger}
}

// WithDotsWidth returns a copy of r for a different paper width
func (r *Renderer) WithDotsWidth(dots int) *Renderer {
	if dots <= 0 || dots == r.opts.DotsWidth {
		return r
	}
	opts := r.opts
	opts.DotsWidth = dots
	return &Renderer{opts: opts, log: r.log}
}

// DotsWidth returns the configured paper width
func (r *Renderer) DotsWidth() int {
	return r.opts.DotsWidth
}

// Chars returns the characters per line for doc
func (r *Renderer) Chars(doc *receiptformat.Document) int {
	if hint := doc.CharsHint(); hint > 0 {
		return layout.ClampChars(hint)
	}
	return layout.CharsForDots(r.opts.DotsWidth, r.opts.DotsPerChar)
}

// job carries per-render state
type job struct {
	r       *Renderer
	t       transport.Transport
	width   int
	skipped []string
}

// Render prints doc on t and then cuts. It only fails when a required
// transport primitive fails; missing capabilities, bad logos and failed
// cuts are absorbed.
func (r *Renderer) Render(ctx context.Context, doc *receiptformat.Document, t transport.Transport) (Result, error) {
	j := &job{r: r, t: t, width: r.Chars(doc)}
	res := Result{Width: j.width}

	j.prime(ctx)

	var err error
	if doc.IsKitchenOnly() {
		err = j.kitchenTicket(ctx, doc)
	} else {
		err = j.receipt(ctx, doc)
	}
	res.Skipped = j.skipped
	if err != nil {
		return res, err
	}

	if err := j.text(ctx, []string{strings.Repeat("\n", r.opts.FeedLines-1)}, transport.TextOptions{}); err != nil {
		return res, err
	}

	res.Cut = r.opts.Cutter.Resolve(ctx, t, escpos.ParseCutMode(doc.CutMode()))
	return res, nil
}

func (j *job) prime(ctx context.Context) {
	if _, ok := j.t.(transport.RawWriter); !ok {
		return
	}
	if err := transport.PrintRaw(ctx, j.t, escpos.Priming()); err != nil {
		j.r.log.Debug("render.skip", "section", "priming", "error", err)
	}
}

func (j *job) receipt(ctx context.Context, doc *receiptformat.Document) error {
	var footers []receiptformat.Block

	for i, b := range doc.Blocks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if b.Kind() == receiptformat.KindFooter && j.r.opts.DeferFooters {
			footers = append(footers, b)
			continue
		}
		if err := j.block(ctx, i, b); err != nil {
			return err
		}
	}

	for _, b := range footers {
		if err := j.footer(ctx, b.Data); err != nil {
			return err
		}
	}

	if thanks := doc.ThankYou(); thanks != "" {
		return j.text(ctx, layout.WrapText(thanks, j.width), transport.TextOptions{Align: "center"})
	}
	return nil
}

func (j *job) block(ctx context.Context, index int, b receiptformat.Block) error {
	switch b.Kind() {
	case receiptformat.KindLogo:
		j.logo(ctx, b.Data)
		return nil
	case receiptformat.KindHeader:
		return j.header(ctx, b.Data)
	case receiptformat.KindItem:
		return j.items(ctx, b.Data.Items)
	case receiptformat.KindBigSummary:
		return j.summary(ctx, b.Data.Summary, true)
	case receiptformat.KindSummary:
		return j.summary(ctx, b.Data.Summary, false)
	case receiptformat.KindFooter:
		return j.footer(ctx, b.Data)
	case receiptformat.KindSeparator:
		return j.rule(ctx)
	case receiptformat.KindQRCode, receiptformat.KindBarcode:
		j.code(ctx, b)
		return nil
	case receiptformat.KindSetting:
		return nil
	case receiptformat.KindKitchenPrint:
		j.skip(fmt.Sprintf("%d:%s", index, b.Kind()), "routed to kitchen printers")
		return nil
	default:
		j.skip(fmt.Sprintf("%d:%s", index, b.Type), "unknown block type")
		return nil
	}
}

func (j *job) skip(section, reason string) {
	j.skipped = append(j.skipped, section)
	j.r.log.Debug("render.skip", "section", section, "reason", reason)
}

func (j *job) text(ctx context.Context, lines []string, opts transport.TextOptions) error {
	if len(lines) == 0 {
		return nil
	}
	if err := j.t.PrintText(ctx, strings.Join(lines, "\n"), opts); err != nil {
		return fmt.Errorf("failed to print text: %w", err)
	}
	return nil
}

func (j *job) rule(ctx context.Context) error {
	return j.text(ctx, []string{layout.Rule(j.width)}, transport.TextOptions{Align: "left"})
}

func (j *job) logo(ctx context.Context, d receiptformat.BlockData) {
	if j.r.opts.Logos == nil {
		j.skip("logo", "no logo source")
		return
	}
	img, err := j.r.opts.Logos.Logo(ctx, d.URL, d.Width.Int(), j.r.opts.DotsWidth, j.r.opts.LogoScale)
	if err != nil {
		j.skip("logo", err.Error())
		return
	}
	j.image(ctx, "logo", img)
}

func (j *job) code(ctx context.Context, b receiptformat.Block) {
	var img logo.Image
	var err error
	if b.Kind() == receiptformat.KindQRCode {
		img, err = logo.QRCode(b.Data.Value, b.Data.Size.Int(), j.r.opts.DotsWidth)
	} else {
		img, err = logo.Barcode(b.Data.Value, b.Data.Format, j.r.opts.DotsWidth)
	}
	if err != nil {
		j.skip(string(b.Kind()), err.Error())
		return
	}
	j.image(ctx, string(b.Kind()), img)
}

func (j *job) image(ctx context.Context, section string, img logo.Image) {
	width := logo.SafeWidth(img.Width, j.r.opts.DotsWidth)
	if err := j.t.PrintImageBase64(ctx, img.Base64, transport.ImageOptions{Width: width}); err != nil {
		j.skip(section, err.Error())
	}
}
