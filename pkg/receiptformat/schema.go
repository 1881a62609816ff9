// Package receiptformat defines the types for inbound receipt documents
package receiptformat

import "strings"

// Kind identifies a block type
type Kind string

const (
	KindLogo         Kind = "logo"
	KindHeader       Kind = "header"
	KindItem         Kind = "item"
	KindBigSummary   Kind = "bigsummary"
	KindSummary      Kind = "summary"
	KindFooter       Kind = "footer"
	KindSeparator    Kind = "separator"
	KindKitchenPrint Kind = "kitchen_print"
	KindSetting      Kind = "setting"
	KindQRCode       Kind = "qrcode"
	KindBarcode      Kind = "barcode"
)

var knownKinds = map[Kind]bool{
	KindLogo:         true,
	KindHeader:       true,
	KindItem:         true,
	KindBigSummary:   true,
	KindSummary:      true,
	KindFooter:       true,
	KindSeparator:    true,
	KindKitchenPrint: true,
	KindSetting:      true,
	KindQRCode:       true,
	KindBarcode:      true,
}

// Document is the root of a receipt payload
type Document struct {
	Blocks       []Block `json:"data"`
	ThankYouText string  `json:"thank_you_text,omitempty"`
	CharsPerLine Number  `json:"chars_per_line,omitempty"`
}

// Block is one ordered section of a receipt
type Block struct {
	Type string    `json:"type"`
	Data BlockData `json:"data"`
}

// BlockData carries the fields of every block kind; each kind reads its own subset.
type BlockData struct {
	// Logo block
	URL   string `json:"url,omitempty"`
	Width Number `json:"width,omitempty"`

	// Header block
	TopTitle  string     `json:"top_title,omitempty"`
	SubTitles StringList `json:"sub_titles,omitempty"`

	// Item and kitchen_print blocks
	Items           []LineItem `json:"itemdata,omitempty"`
	IndividualPrint Flag       `json:"individual_print,omitempty"`
	IPAddress       StringList `json:"ip_address,omitempty"`

	// Summary and bigsummary blocks
	Summary []KeyValueRow `json:"summary,omitempty"`

	// Footer block
	Align      string     `json:"align,omitempty"`
	FooterText StringList `json:"footer_text,omitempty"`

	// Setting block
	CharsPerLine Number `json:"chars_per_line,omitempty"`
	ThankYouNote string `json:"thank_you_note,omitempty"`
	CutMode      string `json:"cut_mode,omitempty"`

	// QR code and barcode blocks
	Value  string `json:"value,omitempty"`
	Format string `json:"format,omitempty"`
	Size   Number `json:"size,omitempty"`
}

// LineItem is a single sold item
type LineItem struct {
	Name     string     `json:"item_name"`
	Quantity *Number    `json:"quantity,omitempty"`
	Amount   Number     `json:"item_amount"`
	Price    *Number    `json:"price,omitempty"`
	SubLine  string     `json:"sub_line,omitempty"`
	Toppings StringList `json:"toppings,omitempty"`
	Remark   string     `json:"remark,omitempty"`
}

// KeyValueRow is a pre-formatted summary row
type KeyValueRow struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Kind returns the normalized kind of the block. Unknown types that look like
// a footer are reported as KindFooter.
func (b Block) Kind() Kind {
	k := Kind(strings.ToLower(strings.TrimSpace(b.Type)))
	if knownKinds[k] {
		return k
	}
	if strings.Contains(string(k), "footer") || len(b.Data.FooterText) > 0 {
		return KindFooter
	}
	return k
}

// Known reports whether the block kind is one the renderer understands
func (b Block) Known() bool {
	return knownKinds[b.Kind()]
}

// Setting returns the first setting block's data, or nil
func (d *Document) Setting() *BlockData {
	for i := range d.Blocks {
		if d.Blocks[i].Kind() == KindSetting {
			return &d.Blocks[i].Data
		}
	}
	return nil
}

// ThankYou returns the thank-you line from the document or its setting block
func (d *Document) ThankYou() string {
	if t := strings.TrimSpace(d.ThankYouText); t != "" {
		return t
	}
	if s := d.Setting(); s != nil {
		return strings.TrimSpace(s.ThankYouNote)
	}
	return ""
}

// CharsHint returns the requested characters per line, or 0 when absent.
// The setting block wins over the root hint.
func (d *Document) CharsHint() int {
	if s := d.Setting(); s != nil && s.CharsPerLine.Int() > 0 {
		return s.CharsPerLine.Int()
	}
	return d.CharsPerLine.Int()
}

// CutMode returns "partial" when the setting block asks for it, "full" otherwise
func (d *Document) CutMode() string {
	if s := d.Setting(); s != nil && strings.EqualFold(strings.TrimSpace(s.CutMode), "partial") {
		return "partial"
	}
	return "full"
}

// IsKitchenOnly reports whether the only printable block is a kitchen_print block
func (d *Document) IsKitchenOnly() bool {
	count := 0
	kitchen := false
	for _, b := range d.Blocks {
		switch b.Kind() {
		case KindSetting:
			continue
		case KindKitchenPrint:
			kitchen = true
		}
		count++
	}
	return count == 1 && kitchen
}

// Qty returns the item quantity, defaulting to 1 when absent
func (li LineItem) Qty() int {
	if li.Quantity == nil {
		return 1
	}
	q := li.Quantity.Int()
	if q < 0 {
		return 0
	}
	return q
}

// ToppingList lists non-empty topping strings
func (li LineItem) ToppingList() []string {
	var out []string
	for _, t := range li.Toppings {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
