package imgutil

import (
	"errors"
	"io"
)

// Kind identifies an image container by its leading signature.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindTIFF
)

// PNGSignature is the eight byte magic number that opens every PNG stream.
var PNGSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

var (
	jpegSig   = []byte{0xff, 0xd8, 0xff}
	tiffSigLE = []byte{0x49, 0x49, 0x2a, 0x00}
	tiffSigBE = []byte{0x4d, 0x4d, 0x00, 0x2a}
)

// ErrShortHeader is returned when fewer than eight bytes are available.
var ErrShortHeader = errors.New("imgutil: header too short")

// DetectHeader inspects the first 8 bytes of a buffer for known signatures.
func DetectHeader(header []byte) (Kind, error) {
	if len(header) < len(PNGSignature) {
		return KindUnknown, ErrShortHeader
	}

	switch {
	case hasPrefix(header, PNGSignature):
		return KindPNG, nil
	case hasPrefix(header, jpegSig):
		return KindJPEG, nil
	case hasPrefix(header, tiffSigLE), hasPrefix(header, tiffSigBE):
		return KindTIFF, nil
	}
	return KindUnknown, nil
}

// SniffReader reads the first 8 bytes from r and determines its kind.
func SniffReader(r io.Reader) (Kind, error) {
	header := make([]byte, len(PNGSignature))
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return KindUnknown, ErrShortHeader
		}
		return KindUnknown, err
	}
	return DetectHeader(header)
}

func hasPrefix(buf, prefix []byte) bool {
	if len(buf) < len(prefix) {
		return false
	}
	for i := range prefix {
		if buf[i] != prefix[i] {
			return false
		}
	}
	return true
}
