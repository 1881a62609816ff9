package renderer

import (
	"context"
	"strconv"
	"strings"

	"github.com/Vandanarajput/PosAPP/internal/layout"
	"github.com/Vandanarajput/PosAPP/internal/transport"
	"github.com/Vandanarajput/PosAPP/pkg/receiptformat"
)

const indent = "  "

func (j *job) header(ctx context.Context, d receiptformat.BlockData) error {
	title := strings.TrimSpace(d.TopTitle)
	if title != "" {
		if err := j.text(ctx, layout.WrapText(title, j.width), transport.TextOptions{Align: "center", Bold: true}); err != nil {
			return err
		}
	}

	var subs []string
	for _, s := range d.SubTitles {
		if s = strings.TrimSpace(s); s != "" {
			subs = append(subs, layout.WrapText(s, j.width)...)
		}
	}
	if err := j.text(ctx, subs, transport.TextOptions{Align: "center"}); err != nil {
		return err
	}

	if title == "" && len(subs) == 0 {
		return nil
	}
	return j.rule(ctx)
}

// ItemLines lays out an item table at width characters
func ItemLines(items []receiptformat.LineItem, width int) []string {
	cols := layout.ComputeColumns(width)
	lines := []string{cols.Row("Item", "Qty", "Price", "Amount")}

	for _, it := range items {
		name := layout.WrapText(strings.TrimSpace(it.Name), cols.Item)
		lines = append(lines, cols.Row(
			name[0],
			strconv.Itoa(it.Qty()),
			layout.FormatMoney(it.UnitPrice()),
			layout.FormatMoney(it.Amount.Float()),
		))
		for _, cont := range name[1:] {
			lines = append(lines, strings.TrimRight(cols.Row(cont, "", "", ""), " "))
		}

		detail := width - len(indent)
		if sub := strings.TrimSpace(it.SubLine); sub != "" {
			for _, l := range layout.WrapText(sub, detail) {
				lines = append(lines, indent+l)
			}
		}
		for _, top := range it.ToppingList() {
			for _, l := range layout.WrapText("+ "+top, detail) {
				lines = append(lines, indent+l)
			}
		}
		if remark := strings.TrimSpace(it.Remark); remark != "" {
			for _, l := range layout.WrapText("Note: "+remark, detail) {
				lines = append(lines, indent+l)
			}
		}
	}
	return lines
}

func (j *job) items(ctx context.Context, items []receiptformat.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := j.text(ctx, ItemLines(items, j.width), transport.TextOptions{Align: "left"}); err != nil {
		return err
	}
	return j.rule(ctx)
}

func (j *job) summary(ctx context.Context, rows []receiptformat.KeyValueRow, big bool) error {
	kv := layout.KeyValueWidth(j.width)
	var lines []string
	for _, row := range rows {
		if row.Key == "" && row.Value == "" {
			continue
		}
		lines = append(lines, layout.AlignedKeyValue(strings.TrimSpace(row.Key), strings.TrimSpace(row.Value), kv, j.r.opts.KeyValueGap))
	}
	if len(lines) == 0 {
		return nil
	}
	if err := j.text(ctx, lines, transport.TextOptions{Align: "left", Bold: big}); err != nil {
		return err
	}
	return j.rule(ctx)
}

// FooterLines lays out footer text: "key: value" lines align like summary
// rows, other lines wrap.
func FooterLines(text []string, width, gap int) []string {
	kv := layout.KeyValueWidth(width)
	var lines []string
	for _, chunk := range text {
		for _, line := range strings.Split(chunk, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if k, v, ok := layout.SplitKeyValue(line); ok {
				lines = append(lines, layout.AlignedKeyValue(k, v, kv, gap))
				continue
			}
			lines = append(lines, layout.WrapText(line, width)...)
		}
	}
	return lines
}

func (j *job) footer(ctx context.Context, d receiptformat.BlockData) error {
	lines := FooterLines(d.FooterText, j.width, j.r.opts.KeyValueGap)
	return j.text(ctx, lines, transport.TextOptions{Align: receiptformat.Align(d.Align)})
}

func (j *job) kitchenTicket(ctx context.Context, doc *receiptformat.Document) error {
	var block *receiptformat.BlockData
	for i := range doc.Blocks {
		if doc.Blocks[i].Kind() == receiptformat.KindKitchenPrint {
			block = &doc.Blocks[i].Data
			break
		}
	}
	if block == nil {
		return nil
	}

	if err := j.text(ctx, []string{"KITCHEN"}, transport.TextOptions{Align: "center", Bold: true}); err != nil {
		return err
	}
	if err := j.rule(ctx); err != nil {
		return err
	}

	for _, it := range block.Items {
		head := strconv.Itoa(it.Qty()) + " x " + strings.TrimSpace(it.Name)
		if err := j.text(ctx, layout.WrapText(head, j.width), transport.TextOptions{Align: "left", Bold: true}); err != nil {
			return err
		}

		var lines []string
		detail := j.width - len(indent)
		for _, top := range it.ToppingList() {
			for _, l := range layout.WrapText("+ "+top, detail) {
				lines = append(lines, indent+l)
			}
		}
		if remark := strings.TrimSpace(it.Remark); remark != "" {
			for _, l := range layout.WrapText("Note: "+remark, detail) {
				lines = append(lines, indent+l)
			}
		}
		lines = append(lines, "")
		if err := j.text(ctx, lines, transport.TextOptions{Align: "left"}); err != nil {
			return err
		}
	}

	if err := j.rule(ctx); err != nil {
		return err
	}
	return j.text(ctx, []string{"Ticket End"}, transport.TextOptions{Align: "center"})
}
