// Package escpos holds the ESC/POS byte sequences the print pipeline emits
// and a small stream encoder built on them.
package escpos

// ESC/POS command prefixes
const (
	ESC byte = 0x1B
	GS  byte = 0x1D
	LF  byte = 0x0A
)

// CutMode selects a full or partial paper cut
type CutMode string

const (
	CutFull    CutMode = "full"
	CutPartial CutMode = "partial"
)

// ParseCutMode maps free text to a CutMode, defaulting to CutFull
func ParseCutMode(s string) CutMode {
	if s == string(CutPartial) {
		return CutPartial
	}
	return CutFull
}

var (
	Init          = []byte{ESC, '@'}
	InverseOff    = []byte{ESC, '{', 0x00}
	StandardMode  = []byte{ESC, 'S'}
	DefaultSpace  = []byte{ESC, '2'}
	ColorBlack    = []byte{ESC, 'r', 0x00}
	CodePageCP437 = []byte{ESC, 't', 0x00}

	CutFullCode       = []byte{GS, 'V', 0x00}
	CutPartialCode    = []byte{GS, 'V', 0x01}
	FeedCutCode       = []byte{GS, 'V', 'B', 0x03}
	AltCutFullCode    = []byte{ESC, 'i'}
	AltCutPartialCode = []byte{ESC, 'm'}
)

// Priming returns the device reset sequence sent before the first block
func Priming() []byte {
	var out []byte
	for _, seq := range [][]byte{Init, InverseOff, StandardMode, DefaultSpace, ColorBlack, CodePageCP437} {
		out = append(out, seq...)
	}
	return out
}

// CutSequence is one named cut opcode
type CutSequence struct {
	Name  string
	Bytes []byte
}

// CutSequences lists the raw cut opcodes to try for a mode, most standard first
func CutSequences(mode CutMode) []CutSequence {
	if mode == CutPartial {
		return []CutSequence{
			{Name: "gs_v_1", Bytes: CutPartialCode},
			{Name: "gs_v_b", Bytes: FeedCutCode},
			{Name: "esc_m", Bytes: AltCutPartialCode},
		}
	}
	return []CutSequence{
		{Name: "gs_v_0", Bytes: CutFullCode},
		{Name: "gs_v_b", Bytes: FeedCutCode},
		{Name: "esc_i", Bytes: AltCutFullCode},
	}
}

// CutCode returns the standard cut opcode for a mode
func CutCode(mode CutMode) []byte {
	if mode == CutPartial {
		return CutPartialCode
	}
	return CutFullCode
}

// Feeds returns n line feeds
func Feeds(n int) []byte {
	if n <= 0 {
		return nil
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = LF
	}
	return out
}
