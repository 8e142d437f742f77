package engine

import (
	"context"
	"math"
	"math/bits"
	"slices"
)

// maxDimension is the largest width or height an IHDR chunk can carry.
const maxDimension = 1<<31 - 1

// ColorKind values are the IHDR color type codes.
type ColorKind uint8

const (
	ColorGrayscale      ColorKind = 0
	ColorRGB            ColorKind = 2
	ColorIndexed        ColorKind = 3
	ColorGrayscaleAlpha ColorKind = 4
	ColorRGBA           ColorKind = 6
)

func (k ColorKind) String() string {
	switch k {
	case ColorGrayscale:
		return "Grayscale"
	case ColorRGB:
		return "RGB"
	case ColorIndexed:
		return "Indexed"
	case ColorGrayscaleAlpha:
		return "Grayscale + Alpha"
	case ColorRGBA:
		return "RGB + Alpha"
	default:
		return "unknown"
	}
}

func (k ColorKind) Channels() int {
	switch k {
	case ColorRGB:
		return 3
	case ColorGrayscaleAlpha:
		return 2
	case ColorRGBA:
		return 4
	default:
		return 1
	}
}

func (k ColorKind) hasAlpha() bool {
	return k == ColorGrayscaleAlpha || k == ColorRGBA
}

type RGB16 struct{ R, G, B uint16 }

type RGBA8 struct{ R, G, B, A uint8 }

type ColorType struct {
	Kind             ColorKind
	TransparentShade *uint16
	TransparentColor *RGB16
	Palette          []RGBA8
}

func (c ColorType) clone() ColorType {
	n := c
	if c.TransparentShade != nil {
		v := *c.TransparentShade
		n.TransparentShade = &v
	}
	if c.TransparentColor != nil {
		v := *c.TransparentColor
		n.TransparentColor = &v
	}
	n.Palette = slices.Clone(c.Palette)
	return n
}

type BitDepth uint8

const (
	DepthOne     BitDepth = 1
	DepthTwo     BitDepth = 2
	DepthFour    BitDepth = 4
	DepthEight   BitDepth = 8
	DepthSixteen BitDepth = 16
)

func validDepth(k ColorKind, d BitDepth) bool {
	switch d {
	case DepthOne, DepthTwo, DepthFour:
		return k == ColorGrayscale || k == ColorIndexed
	case DepthEight:
		return true
	case DepthSixteen:
		return k != ColorIndexed
	default:
		return false
	}
}

type Chunk struct {
	Name ChunkName
	Data []byte
}

// RawImage is an uncompressed, non-interlaced bitmap staged for encoding.
type RawImage struct {
	Width  uint32
	Height uint32
	Color  ColorType
	Depth  BitDepth
	Data   []byte
	Chunks []Chunk
	ICC    []byte

	// interlace of the source file, used when Options.Interlace is nil.
	sourceInterlace Interlacing
}

// NewRawImage validates the color type, bit depth and data length.
func NewRawImage(width, height uint32, color ColorType, depth BitDepth, data []byte) (*RawImage, error) {
	if !validDepth(color.Kind, depth) {
		return nil, &PngError{Kind: KindInvalidDepthForType, Depth: depth, Color: color.Kind}
	}
	if width > maxDimension || height > maxDimension {
		return nil, errKind(KindInvalidData)
	}
	expected, ok := imageBytes(width, height, color.Kind, depth)
	if !ok {
		return nil, &PngError{Kind: KindIncorrectDataLength, Size: len(data), Expected: -1}
	}
	if len(data) != expected {
		return nil, &PngError{Kind: KindIncorrectDataLength, Size: len(data), Expected: expected}
	}
	if width == 0 || height == 0 {
		return nil, errOther("image dimensions must be non-zero", nil)
	}
	return &RawImage{
		Width:  width,
		Height: height,
		Color:  color.clone(),
		Depth:  depth,
		Data:   data,
	}, nil
}

func (r *RawImage) AddPNGChunk(name ChunkName, data []byte) {
	r.Chunks = append(r.Chunks, Chunk{Name: name, Data: data})
}

func (r *RawImage) AddICCProfile(data []byte) {
	r.ICC = data
}

// CreateOptimizedPNG encodes the image. The receiver is not modified.
func (r *RawImage) CreateOptimizedPNG(ctx context.Context, opts *Options) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, opts)
	defer cancel()

	img := r.clone()
	return encodeImage(ctx, img, opts)
}

func (r *RawImage) clone() *RawImage {
	c := *r
	c.Color = r.Color.clone()
	c.Data = slices.Clone(r.Data)
	c.Chunks = slices.Clone(r.Chunks)
	return &c
}

func bitsPerPixel(k ColorKind, d BitDepth) int {
	return k.Channels() * int(d)
}

func rowBytes(width uint32, k ColorKind, d BitDepth) int {
	return (int(width)*bitsPerPixel(k, d) + 7) / 8
}

// imageBytes is the packed size of a width x height image. ok is false when it
// does not fit in an int.
func imageBytes(width, height uint32, k ColorKind, d BitDepth) (n int, ok bool) {
	row := (uint64(width)*uint64(bitsPerPixel(k, d)) + 7) / 8
	hi, lo := bits.Mul64(row, uint64(height))
	if hi != 0 || lo > math.MaxInt {
		return 0, false
	}
	return int(lo), true
}

// filterStride is the byte distance to the corresponding byte of the previous pixel.
func filterStride(k ColorKind, d BitDepth) int {
	return max(1, bitsPerPixel(k, d)/8)
}
