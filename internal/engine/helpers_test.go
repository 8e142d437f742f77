package engine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func buildPNGChunk(chunkType string, data []byte) []byte {
	chunkTypeBytes := []byte(chunkType)
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(data)))
	crc := crc32.ChecksumIEEE(append(chunkTypeBytes, data...))
	crcBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(crcBuf, crc)

	chunk := make([]byte, 0, 12+len(data))
	chunk = append(chunk, lenBuf...)
	chunk = append(chunk, chunkTypeBytes...)
	chunk = append(chunk, data...)
	chunk = append(chunk, crcBuf...)
	return chunk
}

// afterIHDR is the offset of the first chunk following the signature and IHDR.
const afterIHDR = 8 + 12 + 13

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

// insertChunks places extra chunks right after IHDR.
func insertChunks(data []byte, chunks ...[]byte) []byte {
	out := append([]byte{}, data[:afterIHDR]...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return append(out, data[afterIHDR:]...)
}

func gradientRGBA(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 30), B: uint8(x*y + 7), A: 0xff})
		}
	}
	return img
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return img
}

func samePixels(a, b color.Color) bool {
	return color.NRGBA64Model.Convert(a) == color.NRGBA64Model.Convert(b)
}

func assertPixels(t *testing.T, got image.Image, want func(x, y int) color.Color, w, h int) {
	t.Helper()
	if b := got.Bounds(); b.Dx() != w || b.Dy() != h {
		t.Fatalf("bounds = %v, want %dx%d", b, w, h)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !samePixels(got.At(x, y), want(x, y)) {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got.At(x, y), want(x, y))
			}
		}
	}
}

func chunkNames(t *testing.T, data []byte) []string {
	t.Helper()
	var names []string
	pos := 8
	for pos+8 <= len(data) {
		n := int(binary.BigEndian.Uint32(data[pos:]))
		names = append(names, string(data[pos+4:pos+8]))
		pos += 12 + n
	}
	return names
}

func kindOf(err error) ErrorKind {
	var pe *PngError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return -1
}
