package routing

import (
	"fmt"
	"strconv"

	"github.com/Vandanarajput/PosAPP/internal/profiles"
	"github.com/Vandanarajput/PosAPP/pkg/receiptformat"
)

// Section is the logical part of an order a target prints
type Section string

const (
	SectionCashier Section = "cashier"
	SectionKitchen Section = "kitchen"
)

// Target pairs one printer profile with the payload it prints
type Target struct {
	Profile    profiles.Profile
	Section    Section
	BlockIndex int
	ItemKey    string
	Document   *receiptformat.Document
}

// Key identifies a target for deduplication
func (t Target) Key() string {
	return t.Profile.Host + "|" + strconv.Itoa(t.Profile.Port) + "|" + string(t.Section) + "|" +
		strconv.Itoa(t.BlockIndex) + "|" + t.ItemKey
}

func (t Target) String() string {
	s := fmt.Sprintf("%s@%s", t.Section, t.Profile.Address())
	if t.Section == SectionKitchen {
		s += fmt.Sprintf("#%d", t.BlockIndex)
	}
	if t.ItemKey != "" {
		s += "/" + t.ItemKey
	}
	return s
}

// Plan is the outcome of resolving a document against stored profiles
type Plan struct {
	// Handled is false when the document carries no hints at all
	Handled bool
	Targets []Target
	// Unmatched lists tokens that resolved to no enabled profile
	Unmatched []string
}

// Matched reports whether at least one target resolved
func (p Plan) Matched() bool {
	return len(p.Targets) > 0
}

// BuildPlan resolves doc's hints against list. Cashier targets come first,
// then kitchen targets in block order. It performs no I/O.
func BuildPlan(doc *receiptformat.Document, list []profiles.Profile) Plan {
	hints := ExtractHints(doc)
	if hints.Empty() {
		return Plan{}
	}

	plan := Plan{Handled: true}
	seen := make(map[string]bool)
	add := func(t Target) {
		if k := t.Key(); !seen[k] {
			seen[k] = true
			plan.Targets = append(plan.Targets, t)
		}
	}

	if cashier := CashierDocument(doc); cashier != nil {
		for _, tok := range hints.Cashier {
			p, ok := Match(tok, list)
			if !ok {
				plan.Unmatched = append(plan.Unmatched, tok)
				continue
			}
			add(Target{Profile: p, Section: SectionCashier, BlockIndex: -1, Document: cashier})
		}
	}

	for _, kh := range hints.Kitchen {
		block := doc.Blocks[kh.BlockIndex]
		for _, tok := range kh.Tokens {
			p, ok := Match(tok, list)
			if !ok {
				plan.Unmatched = append(plan.Unmatched, tok)
				continue
			}

			if !bool(block.Data.IndividualPrint) {
				add(Target{
					Profile:    p,
					Section:    SectionKitchen,
					BlockIndex: kh.BlockIndex,
					Document:   KitchenDocument(doc, kh.BlockIndex, block.Data.Items),
				})
				continue
			}
			for i, item := range block.Data.Items {
				add(Target{
					Profile:    p,
					Section:    SectionKitchen,
					BlockIndex: kh.BlockIndex,
					ItemKey:    ItemKey(i, item),
					Document:   KitchenDocument(doc, kh.BlockIndex, []receiptformat.LineItem{item}),
				})
			}
		}
	}

	return plan
}

// ItemKey identifies an item by its position and name
func ItemKey(index int, item receiptformat.LineItem) string {
	return strconv.Itoa(index) + ":" + item.Name
}

// CashierDocument is doc without its kitchen blocks, or nil when nothing
// printable remains.
func CashierDocument(doc *receiptformat.Document) *receiptformat.Document {
	out := &receiptformat.Document{
		ThankYouText: doc.ThankYouText,
		CharsPerLine: doc.CharsPerLine,
	}
	for _, b := range doc.Blocks {
		if b.Kind() == receiptformat.KindKitchenPrint {
			continue
		}
		out.Blocks = append(out.Blocks, b)
	}
	if receiptformat.Validate(out) != nil {
		return nil
	}
	return out
}

// KitchenDocument builds a kitchen-only document for one kitchen block
// carrying items. The setting block is kept for width and cut mode.
func KitchenDocument(doc *receiptformat.Document, blockIndex int, items []receiptformat.LineItem) *receiptformat.Document {
	out := &receiptformat.Document{CharsPerLine: doc.CharsPerLine}
	if s := doc.Setting(); s != nil {
		out.Blocks = append(out.Blocks, receiptformat.Block{Type: string(receiptformat.KindSetting), Data: *s})
	}

	block := doc.Blocks[blockIndex]
	block.Type = string(receiptformat.KindKitchenPrint)
	block.Data.Items = append([]receiptformat.LineItem(nil), items...)
	block.Data.IndividualPrint = false
	out.Blocks = append(out.Blocks, block)
	return out
}
