// Package routing decides which network printers receive which part of a
// receipt document, and prints each part on its printer.
package routing

import (
	"net"
	"strconv"
	"strings"

	"github.com/Vandanarajput/PosAPP/internal/profiles"
	"github.com/Vandanarajput/PosAPP/internal/transport"
	"github.com/Vandanarajput/PosAPP/pkg/receiptformat"
)

// KitchenHints are the tokens declared by one kitchen_print block
type KitchenHints struct {
	BlockIndex int
	Tokens     []string
}

// Hints are every routing token found in a document
type Hints struct {
	Cashier []string
	Kitchen []KitchenHints
}

// Empty reports whether the document declared no hints at all
func (h Hints) Empty() bool {
	if len(h.Cashier) > 0 {
		return false
	}
	for _, k := range h.Kitchen {
		if len(k.Tokens) > 0 {
			return false
		}
	}
	return true
}

// ExtractHints reads the cashier tokens from the setting block and the
// kitchen tokens from every kitchen_print block, in block order.
func ExtractHints(doc *receiptformat.Document) Hints {
	var h Hints
	if doc == nil {
		return h
	}
	if s := doc.Setting(); s != nil {
		h.Cashier = Tokens(s.IPAddress)
	}
	for i, b := range doc.Blocks {
		if b.Kind() != receiptformat.KindKitchenPrint {
			continue
		}
		if toks := Tokens(b.Data.IPAddress); len(toks) > 0 {
			h.Kitchen = append(h.Kitchen, KitchenHints{BlockIndex: i, Tokens: toks})
		}
	}
	return h
}

// Tokens splits hint values on commas, trims them and drops empties and
// repeats. A single string and a list normalize to the same tokens.
func Tokens(values []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range values {
		for _, tok := range strings.Split(v, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" || seen[strings.ToLower(tok)] {
				continue
			}
			seen[strings.ToLower(tok)] = true
			out = append(out, tok)
		}
	}
	return out
}

// ParseToken splits a hint into host and port. hasPort is false when the
// token names a host only.
func ParseToken(tok string) (host string, port int, hasPort bool) {
	tok = strings.TrimSpace(tok)
	if h, p, err := net.SplitHostPort(tok); err == nil {
		if n, err := strconv.Atoi(p); err == nil && n > 0 && n <= 65535 {
			return h, n, true
		}
		return h, 0, false
	}
	return strings.Trim(tok, "[]"), 0, false
}

// Match finds the enabled profile a token refers to. A token with a port
// must match host and port exactly. A bare host matches by host, preferring
// the profile on the default port, else the first in stored order.
func Match(tok string, list []profiles.Profile) (profiles.Profile, bool) {
	host, port, hasPort := ParseToken(tok)
	if host == "" {
		return profiles.Profile{}, false
	}

	var first *profiles.Profile
	for i := range list {
		p := &list[i]
		if !p.Enabled || !strings.EqualFold(p.Host, host) {
			continue
		}
		if hasPort {
			if p.Port == port {
				return *p, true
			}
			continue
		}
		if p.Port == transport.DefaultPort {
			return *p, true
		}
		if first == nil {
			first = p
		}
	}
	if first != nil {
		return *first, true
	}
	return profiles.Profile{}, false
}
