package layout

import (
	"math"
	"strings"
	"testing"
)

func TestWrapText_LinesFitAndWordsSurvive(t *testing.T) {
	inputs := []string{
		"Coffee",
		"Grilled chicken sandwich with extra cheese and jalapenos",
		"Supercalifragilisticexpialidocious-and-then-some-more-characters-to-split",
		"  leading   and   trailing   spaces  ",
		"a b c d e f g h i j k l m n o p q r s t u v w x y z",
		"",
	}

	for w := MinChars; w <= MaxChars; w++ {
		for _, in := range inputs {
			lines := WrapText(in, w)
			if len(lines) == 0 {
				t.Fatalf("WrapText(%q, %d) returned no lines", in, w)
			}
			for _, l := range lines {
				if Len(l) > w {
					t.Errorf("WrapText(%q, %d) produced %d-char line %q", in, w, Len(l), l)
				}
			}

			want := strings.Join(strings.Fields(in), "")
			got := strings.ReplaceAll(strings.Join(lines, ""), " ", "")
			if got != want {
				t.Errorf("WrapText(%q, %d) lost words: got %q want %q", in, w, got, want)
			}
		}
	}
}

func TestWrapText_HardSplit(t *testing.T) {
	lines := WrapText("abcdefghij", 4)
	want := []string{"abcd", "efgh", "ij"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("Expected %v, got %v", want, lines)
	}
}

func TestPadding(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"right pads", PadRight("ab", 5), "ab   "},
		{"left pads", PadLeft("ab", 5), "   ab"},
		{"center pads", PadCenter("ab", 5), " ab  "},
		{"right clips", PadRight("abcdef", 3), "abc"},
		{"left clips", PadLeft("abcdef", 3), "abc"},
		{"clip with ellipsis", Clip("abcdefgh", 6, true), "abc..."},
		{"no room for ellipsis", Clip("abcdefgh", 3, true), "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{6, "6.00"},
		{3.005, "3.01"},
		{1234.5, "1234.50"},
		{-2.5, "-2.50"},
		{0, "0.00"},
		{math.NaN(), "0.00"},
		{math.Inf(1), "0.00"},
		{math.Inf(-1), "0.00"},
	}

	for _, tt := range tests {
		got := FormatMoney(tt.in)
		if got != tt.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
		dot := strings.LastIndex(got, ".")
		if dot < 0 || len(got)-dot-1 != 2 {
			t.Errorf("FormatMoney(%v) = %q does not have two decimals", tt.in, got)
		}
	}
}

func TestComputeColumns(t *testing.T) {
	c := ComputeColumns(32)
	if c.Item != 10 || c.Qty != 4 || c.Price != 7 || c.Amount != 8 {
		t.Errorf("Unexpected columns for 32: %+v", c)
	}
	if c.Width() != 32 {
		t.Errorf("Expected row width 32, got %d", c.Width())
	}

	if small := ComputeColumns(10); small.Item != MinItemWidth {
		t.Errorf("Expected item floor %d, got %d", MinItemWidth, small.Item)
	}
}

func TestAlignedKeyValue_ExactWidth(t *testing.T) {
	labels := []string{"", "Total", "A very long label that will certainly not fit on the line"}
	values := []string{"", "6.00", "123456789.00"}

	for w := 1; w <= MaxChars; w++ {
		for _, l := range labels {
			for _, v := range values {
				out := AlignedKeyValue(l, v, w, 1)
				if Len(out) != w {
					t.Fatalf("AlignedKeyValue(%q, %q, %d) has length %d", l, v, w, Len(out))
				}
				if w >= AmountWidth {
					tail := out[len(out)-AmountWidth:]
					if tail != PadLeft(v, AmountWidth) {
						t.Errorf("AlignedKeyValue(%q, %q, %d) tail %q", l, v, w, tail)
					}
				}
			}
		}
	}
}

func TestAlignedKeyValue_LinesUpWithTable(t *testing.T) {
	c := ComputeColumns(32)
	row := c.Row("Coffee", "2", "3.00", "6.00")
	total := AlignedKeyValue("Total", "6.00", 32, 1)

	if row[len(row)-AmountWidth:] != total[len(total)-AmountWidth:] {
		t.Errorf("Amount columns differ:\n%q\n%q", row, total)
	}
}

func TestKeyValueWidth_NarrowLinesStayAligned(t *testing.T) {
	for w := MinChars; w <= MaxChars; w++ {
		row := ComputeColumns(w).Row("Coffee", "2", "3.00", "6.00")
		total := AlignedKeyValue("Total", "6.00", KeyValueWidth(w), 1)

		if got, want := strings.LastIndex(total, "6.00"), strings.LastIndex(row, "6.00"); got != want {
			t.Errorf("width %d: total amount at %d, item amount at %d\n%q\n%q", w, got, want, row, total)
		}
		if kv := KeyValueWidth(w); kv < w {
			t.Errorf("width %d: key/value width %d is narrower than the line", w, kv)
		}
	}

	if got := KeyValueWidth(24); got != 30 {
		t.Errorf("Expected 30 for a 24-char line, got %d", got)
	}
	if got := KeyValueWidth(48); got != 48 {
		t.Errorf("Expected 48 to be unchanged, got %d", got)
	}
}

func TestRule(t *testing.T) {
	if Len(Rule(2)) != 8 {
		t.Error("Expected rule floor of 8")
	}
	if Len(Rule(100)) != 64 {
		t.Error("Expected rule cap of 64")
	}
	if Rule(32) != strings.Repeat("-", 32) {
		t.Error("Expected 32 dashes")
	}
}

func TestCharsForDots(t *testing.T) {
	if got := CharsForDots(384, 12); got != 32 {
		t.Errorf("Expected 32 chars for 384 dots, got %d", got)
	}
	if got := CharsForDots(576, 12); got != 48 {
		t.Errorf("Expected 48 chars for 576 dots, got %d", got)
	}
	if got := CharsForDots(100, 12); got != MinChars {
		t.Errorf("Expected clamp to %d, got %d", MinChars, got)
	}
	if got := CharsForDots(2000, 0); got != MaxChars {
		t.Errorf("Expected clamp to %d, got %d", MaxChars, got)
	}
}

func TestSplitKeyValue(t *testing.T) {
	k, v, ok := SplitKeyValue("Phone: 555-0100: ext 2")
	if !ok || k != "Phone" || v != "555-0100: ext 2" {
		t.Errorf("Unexpected split: %q %q %v", k, v, ok)
	}
	if _, _, ok := SplitKeyValue("No colon here"); ok {
		t.Error("Expected no split without colon")
	}
}
