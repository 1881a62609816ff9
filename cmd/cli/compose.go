package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Vandanarajput/PosAPP/pkg/receiptformat"
)

// blockStarts are the compose arguments that open a new block
var blockStarts = map[string]bool{
	"printer": true, "header": true, "item": true, "kitchen": true,
	"summary": true, "bigsummary": true, "separator": true, "qrcode": true,
	"barcode": true, "footer": true, "thanks": true,
}

// compose builds a receipt document from "name:value" arguments. A block
// argument opens a block and the following property arguments refine it.
func compose(args []string) (*receiptformat.Document, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no compose arguments provided")
	}

	doc := &receiptformat.Document{}
	var current *receiptformat.Block
	var item *receiptformat.LineItem
	var row *receiptformat.KeyValueRow

	flush := func() {
		if current != nil {
			doc.Blocks = append(doc.Blocks, *current)
			current = nil
		}
	}

	for _, arg := range args {
		name, value, _ := strings.Cut(arg, ":")
		value = strings.Trim(value, `"'`)

		if name == "item" {
			// items join an open item or kitchen block
			if current == nil || (current.Type != string(receiptformat.KindItem) && current.Type != string(receiptformat.KindKitchenPrint)) {
				flush()
				current = &receiptformat.Block{Type: string(receiptformat.KindItem)}
			}
			current.Data.Items = append(current.Data.Items, receiptformat.LineItem{Name: value})
			item = &current.Data.Items[len(current.Data.Items)-1]
			row = nil
			continue
		}

		if blockStarts[name] {
			flush()
			item, row = nil, nil
			if name == "thanks" {
				doc.ThankYouText = value
				continue
			}
			current = &receiptformat.Block{}
			switch name {
			case "printer":
				current.Type = string(receiptformat.KindSetting)
				current.Data.IPAddress = receiptformat.StringList{value}
			case "kitchen":
				current.Type = string(receiptformat.KindKitchenPrint)
				current.Data.IPAddress = receiptformat.StringList{value}
			case "header":
				current.Type = string(receiptformat.KindHeader)
				current.Data.TopTitle = value
			case "summary", "bigsummary":
				current.Type = name
				current.Data.Summary = []receiptformat.KeyValueRow{{Key: value}}
				row = &current.Data.Summary[0]
			case "footer":
				current.Type = string(receiptformat.KindFooter)
				current.Data.FooterText = receiptformat.StringList{value}
			case "qrcode", "barcode":
				current.Type = name
				current.Data.Value = value
			case "separator":
				current.Type = string(receiptformat.KindSeparator)
			}
			continue
		}

		if current == nil {
			return nil, fmt.Errorf("unexpected argument '%s' (expected a block)", arg)
		}
		if err := setProperty(current, item, row, name, value); err != nil {
			return nil, fmt.Errorf("failed to parse property '%s': %w", arg, err)
		}
	}
	flush()

	if err := receiptformat.Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func setProperty(b *receiptformat.Block, item *receiptformat.LineItem, row *receiptformat.KeyValueRow, name, value string) error {
	number := func() (receiptformat.Number, error) {
		f, err := strconv.ParseFloat(value, 64)
		return receiptformat.Number(f), err
	}

	switch {
	case item != nil && (name == "qty" || name == "quantity"):
		n, err := number()
		item.Quantity = &n
		return err
	case item != nil && name == "amount":
		n, err := number()
		item.Amount = n
		return err
	case item != nil && name == "price":
		n, err := number()
		item.Price = &n
		return err
	case item != nil && name == "remark":
		item.Remark = value
	case item != nil && name == "topping":
		item.Toppings = append(item.Toppings, value)
	case row != nil && name == "value":
		row.Value = value
	case name == "sub":
		b.Data.SubTitles = append(b.Data.SubTitles, value)
	case name == "align":
		b.Data.Align = value
	case name == "size":
		n, err := number()
		b.Data.Size = n
		return err
	case name == "format":
		b.Data.Format = value
	case name == "individual":
		on, err := strconv.ParseBool(value)
		b.Data.IndividualPrint = receiptformat.Flag(on)
		return err
	case name == "cut":
		b.Data.CutMode = value
	default:
		return fmt.Errorf("unknown property %q for %s", name, b.Type)
	}
	return nil
}

func writeTemp(doc *receiptformat.Document) (string, error) {
	f, err := os.CreateTemp("", "posapp-composed-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write receipt JSON: %w", err)
	}
	return f.Name(), nil
}
