package imgutil

import (
	"bytes"
	"errors"
	"testing"
)

func TestDetectHeader(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   Kind
	}{
		{"png", PNGSignature, KindPNG},
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F'}, KindJPEG},
		{"tiff le", []byte{'I', 'I', 0x2a, 0, 8, 0, 0, 0}, KindTIFF},
		{"tiff be", []byte{'M', 'M', 0, 0x2a, 0, 0, 0, 8}, KindTIFF},
		{"gif", []byte("GIF89a\x01\x00"), KindUnknown},
	}
	for _, tt := range tests {
		got, err := DetectHeader(tt.header)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: kind %v, want %v", tt.name, got, tt.want)
		}
	}

	if _, err := DetectHeader(PNGSignature[:7]); !errors.Is(err, ErrShortHeader) {
		t.Errorf("short header err = %v", err)
	}
}

func TestSniffReader(t *testing.T) {
	data := append(append([]byte(nil), PNGSignature...), "rest of file"...)
	kind, err := SniffReader(bytes.NewReader(data))
	if err != nil || kind != KindPNG {
		t.Errorf("SniffReader = %v, %v", kind, err)
	}

	if _, err := SniffReader(bytes.NewReader([]byte{0x89, 'P'})); !errors.Is(err, ErrShortHeader) {
		t.Errorf("short reader err = %v", err)
	}
	if _, err := SniffReader(bytes.NewReader(nil)); !errors.Is(err, ErrShortHeader) {
		t.Errorf("empty reader err = %v", err)
	}
}
