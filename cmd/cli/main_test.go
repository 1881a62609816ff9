package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Vandanarajput/PosAPP/pkg/receiptformat"
)

func TestCompose(t *testing.T) {
	doc, err := compose([]string{
		"printer:10.0.0.5", "cut:partial",
		`header:"Cafe"`, `sub:"Main St"`,
		`item:"Latte"`, "qty:2", "amount:7.00",
		`item:"Bagel"`, "amount:3", "remark:toasted",
		"kitchen:10.0.0.6", "individual:true",
		`item:"Latte"`, "qty:2",
		`bigsummary:"Total"`, `value:"10.00"`,
		"separator",
		`footer:"Come again"`, "align:left",
		`thanks:"Thank you!"`,
	})
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	var kinds []string
	for _, b := range doc.Blocks {
		kinds = append(kinds, string(b.Kind()))
	}
	want := "setting,header,item,kitchen_print,bigsummary,separator,footer"
	if got := strings.Join(kinds, ","); got != want {
		t.Fatalf("Blocks = %s, want %s", got, want)
	}

	if doc.CutMode() != "partial" || doc.ThankYou() != "Thank you!" {
		t.Errorf("Unexpected settings: cut=%s thanks=%q", doc.CutMode(), doc.ThankYou())
	}
	items := doc.Blocks[2].Data.Items
	if len(items) != 2 || items[0].Qty() != 2 || items[0].Amount != 7 || items[1].Remark != "toasted" {
		t.Errorf("Unexpected items %+v", items)
	}
	kitchen := doc.Blocks[3].Data
	if !bool(kitchen.IndividualPrint) || kitchen.IPAddress[0] != "10.0.0.6" || len(kitchen.Items) != 1 {
		t.Errorf("Unexpected kitchen block %+v", kitchen)
	}
	if row := doc.Blocks[4].Data.Summary[0]; row.Key != "Total" || row.Value != "10.00" {
		t.Errorf("Unexpected summary row %+v", row)
	}
}

func TestCompose_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"empty", nil},
		{"property first", []string{"qty:2"}},
		{"unknown property", []string{"header:x", "colour:red"}},
		{"bad number", []string{"item:x", "qty:two"}},
		{"only settings", []string{"printer:10.0.0.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := compose(tt.args); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestBuildCommand(t *testing.T) {
	cmd, cleanup, err := buildCommand([]string{"profile", "add", "10.0.0.5", "9100", "576", "1", "Front Bar"})
	cleanup()
	if err != nil || cmd != `profile add 10.0.0.5 9100 576 1 "Front Bar"` {
		t.Errorf("Unexpected command %q (%v)", cmd, err)
	}

	cmd, cleanup, _ = buildCommand([]string{"print", "https://example.com/r.json"})
	cleanup()
	if cmd != "print https://example.com/r.json" {
		t.Errorf("Expected URL untouched, got %q", cmd)
	}

	cmd, cleanup, _ = buildCommand([]string{"print", "order.json"})
	cleanup()
	if !strings.HasPrefix(cmd, "print ") || !filepath.IsAbs(strings.TrimPrefix(cmd, "print ")) {
		t.Errorf("Expected absolute path, got %q", cmd)
	}

	cmd, cleanup, err = buildCommand([]string{"print", "--compose", "header:Cafe"})
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	path := strings.TrimPrefix(cmd, "print ")
	if _, err := receiptformat.ParseFile(path); err != nil {
		t.Errorf("Composed file does not parse: %v", err)
	}
	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected temp file to be removed")
	}
}

func TestDecodeResult(t *testing.T) {
	res := decodeResult([]byte(`{"success":true,"message":"Found 1 job(s)","jobs":[{"id":"a"}]}`))
	if !res.Success || res.Message != "Found 1 job(s)" || len(res.Data["jobs"].([]any)) != 1 {
		t.Errorf("Unexpected result %+v", res)
	}

	res = decodeResult([]byte(`{"success":false,"error":"boom"}`))
	if res.Success || res.Error != "boom" {
		t.Errorf("Unexpected result %+v", res)
	}

	if res := decodeResult([]byte("not json")); res.Success || !strings.Contains(res.Error, "failed to parse") {
		t.Errorf("Unexpected result %+v", res)
	}
}
