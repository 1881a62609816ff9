// Package layout turns receipt content into fixed-width text for a
// monospace thermal printer. Every function here is pure.
package layout

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	// MinChars and MaxChars bound the characters-per-line of any job
	MinChars = 24
	MaxChars = 64

	// DefaultDotsPerChar matches the 12-dot Font A of common 58/80mm printers
	DefaultDotsPerChar = 12

	QtyWidth     = 4
	PriceWidth   = 7
	AmountWidth  = 8
	MinItemWidth = 8

	minRule = 8
	maxRule = 64

	ellipsis = "..."
)

// CharsForDots derives characters-per-line from a dot width, clamped to
// [MinChars, MaxChars].
func CharsForDots(dots, dotsPerChar int) int {
	if dotsPerChar <= 0 {
		dotsPerChar = DefaultDotsPerChar
	}
	return ClampChars(dots / dotsPerChar)
}

// ClampChars clamps a character width to [MinChars, MaxChars]
func ClampChars(w int) int {
	if w < MinChars {
		return MinChars
	}
	if w > MaxChars {
		return MaxChars
	}
	return w
}

// Len is the printed width of s, in characters
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// WrapText greedily wraps s to lines of at most width characters. Words
// longer than width are hard-split into width-sized chunks. An empty input
// yields a single empty line.
func WrapText(s string, width int) []string {
	if width < 1 {
		width = 1
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = cur[:0]
		}
	}

	for _, w := range words {
		r := []rune(w)

		if len(cur) > 0 && len(cur)+1+len(r) <= width {
			cur = append(cur, ' ')
			cur = append(cur, r...)
			continue
		}

		flush()
		for len(r) > width {
			lines = append(lines, string(r[:width]))
			r = r[width:]
		}
		cur = append(cur, r...)
	}
	flush()

	return lines
}

// Clip cuts s to at most width characters. With withEllipsis, the cut text
// ends in "..." when there is room for at least one character before it.
func Clip(s string, width int, withEllipsis bool) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if withEllipsis && width > len(ellipsis) {
		return string(r[:width-len(ellipsis)]) + ellipsis
	}
	return string(r[:width])
}

// PadRight left-aligns s in a field of width characters
func PadRight(s string, width int) string {
	s = Clip(s, width, false)
	return s + strings.Repeat(" ", width-Len(s))
}

// PadLeft right-aligns s in a field of width characters
func PadLeft(s string, width int) string {
	s = Clip(s, width, false)
	return strings.Repeat(" ", width-Len(s)) + s
}

// PadCenter centers s in a field of width characters; odd slack goes right
func PadCenter(s string, width int) string {
	s = Clip(s, width, false)
	slack := width - Len(s)
	left := slack / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", slack-left)
}

// FormatMoney renders n with exactly two decimals. NaN and infinities
// render as 0.00.
func FormatMoney(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "0.00"
	}
	return decimal.NewFromFloat(n).StringFixed(2)
}

// Columns are the widths of the item table
type Columns struct {
	Item   int
	Qty    int
	Price  int
	Amount int
}

// ComputeColumns splits total into the item table columns. Item takes the
// remainder after the fixed columns and three single-space gaps, floored at
// MinItemWidth.
func ComputeColumns(total int) Columns {
	item := total - QtyWidth - PriceWidth - AmountWidth - 3
	if item < MinItemWidth {
		item = MinItemWidth
	}
	return Columns{Item: item, Qty: QtyWidth, Price: PriceWidth, Amount: AmountWidth}
}

// Width is the printed width of a full table row
func (c Columns) Width() int {
	return c.Item + c.Qty + c.Price + c.Amount + 3
}

// KeyValueWidth is the width summary and footer key/value rows are laid out
// at so their values sit under the Amount column. It equals total unless the
// item floor makes table rows wider than the line.
func KeyValueWidth(total int) int {
	if w := ComputeColumns(total).Width(); w > total {
		return w
	}
	return total
}

// Row joins four cells into a table row: item left-aligned, the rest
// right-aligned.
func (c Columns) Row(item, qty, price, amount string) string {
	return PadRight(item, c.Item) + " " +
		PadLeft(qty, c.Qty) + " " +
		PadLeft(price, c.Price) + " " +
		PadLeft(amount, c.Amount)
}

// AlignedKeyValue renders label and value on one line of exactly total
// characters, with value right-aligned in the last AmountWidth characters so
// it lines up with the item table's Amount column.
func AlignedKeyValue(label, value string, total, gap int) string {
	if total <= 0 {
		return ""
	}
	if gap < 0 {
		gap = 0
	}

	amount := AmountWidth
	if amount > total {
		amount = total
	}
	if amount+gap > total {
		gap = total - amount
	}
	labelWidth := total - amount - gap

	return PadRight(Clip(label, labelWidth, true), labelWidth) +
		strings.Repeat(" ", gap) +
		PadLeft(value, amount)
}

// Rule is a dashed divider clamped to [8, 64] characters
func Rule(width int) string {
	if width < minRule {
		width = minRule
	}
	if width > maxRule {
		width = maxRule
	}
	return strings.Repeat("-", width)
}

// SplitKeyValue splits "key: value" on the first colon. ok is false when
// there is no colon or either side is empty.
func SplitKeyValue(line string) (key, value string, ok bool) {
	i := strings.Index(line, ":")
	if i < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:i])
	value = strings.TrimSpace(line[i+1:])
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}
