package transport

import (
	"bytes"
	"errors"
	"testing"

	"tinygo.org/x/bluetooth"

	"github.com/Vandanarajput/PosAPP/internal/escpos"
)

type fakeChar struct {
	uuid     bluetooth.UUID
	writable bool
	writes   [][]byte
}

func (f *fakeChar) UUID() bluetooth.UUID { return f.uuid }

func (f *fakeChar) WriteWithoutResponse(p []byte) (int, error) {
	if !f.writable {
		return 0, errors.New("not permitted")
	}
	f.writes = append(f.writes, append([]byte(nil), p...))
	return len(p), nil
}

func TestPickWriteChar(t *testing.T) {
	notify := &fakeChar{uuid: bluetooth.New16BitUUID(0x2a19)}
	plain := &fakeChar{uuid: bluetooth.New16BitUUID(0xfff2), writable: true}
	known := &fakeChar{uuid: bluetooth.New16BitUUID(0xff02), writable: true}

	tests := []struct {
		name  string
		chars []*fakeChar
		want  *fakeChar
	}{
		{"preferred uuid wins", []*fakeChar{notify, plain, known}, known},
		{"skips non-writable", []*fakeChar{notify, plain}, plain},
		{"none writable", []*fakeChar{notify}, nil},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pickWriteChar(tt.chars, defaultWriteChars)
			if tt.want == nil {
				if err == nil {
					t.Fatalf("Expected error, got %v", got.UUID())
				}
				return
			}
			if err != nil {
				t.Fatalf("pickWriteChar failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Picked %v, want %v", got.UUID(), tt.want.UUID())
			}
		})
	}
}

func TestPickWriteChar_ProbeIsInit(t *testing.T) {
	readOnly := &fakeChar{uuid: bluetooth.New16BitUUID(0x2a00)}
	writable := &fakeChar{uuid: bluetooth.New16BitUUID(0xfff2), writable: true}

	if _, err := pickWriteChar([]*fakeChar{readOnly, writable}, nil); err != nil {
		t.Fatalf("pickWriteChar failed: %v", err)
	}
	if len(writable.writes) != 1 || !bytes.Equal(writable.writes[0], escpos.Init) {
		t.Errorf("Expected one init write, got %x", writable.writes)
	}
}
