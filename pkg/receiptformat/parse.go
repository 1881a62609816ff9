package receiptformat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Parse parses a receipt document from a byte slice. Bridges that stringify
// the payload before sending it are accepted too.
func Parse(data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, fmt.Errorf("failed to parse receipt: %w", err)
		}
		data = []byte(inner)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse receipt: %w", err)
	}

	if err := Validate(&doc); err != nil {
		return nil, err
	}

	return &doc, nil
}

// ParseFile parses a receipt document from disk
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt file: %w", err)
	}

	return Parse(data)
}

// ToJSON converts a Document to JSON bytes
func (d *Document) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
