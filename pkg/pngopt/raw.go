package pngopt

import (
	"context"
	"fmt"
	"slices"

	"pngopt/internal/engine"
)

// RawImage is an uncompressed bitmap with the chunks to write alongside it.
// Encoding never modifies it, so one image may be encoded with several
// configurations. It must not be mutated while an encode is in flight.
type RawImage struct {
	img *engine.RawImage
}

type rawConfig struct {
	color ColorType
	depth int
}

type RawOption func(*rawConfig)

// WithColorType sets the pixel layout. The default is RGBA.
func WithColorType(c ColorType) RawOption {
	return func(r *rawConfig) { r.color = c }
}

// WithBitDepth sets bits per sample: 1, 2, 4, 8 or 16. The default is 8.
func WithBitDepth(depth int) RawOption {
	return func(r *rawConfig) { r.depth = depth }
}

// NewRawImage stages pixel data for encoding. data holds height rows, each packed
// at the bit depth and padded to a whole byte.
func NewRawImage(data []byte, width, height uint32, opts ...RawOption) (*RawImage, error) {
	cfg := rawConfig{color: RGBA(), depth: 8}
	for _, opt := range opts {
		opt(&cfg)
	}

	var depth engine.BitDepth
	switch cfg.depth {
	case 1, 2, 4, 8, 16:
		depth = engine.BitDepth(cfg.depth)
	default:
		return nil, &Error{
			Category: CategoryInvalidValue,
			Key:      "bit_depth",
			Message:  fmt.Sprintf("bit depth %d not in {1, 2, 4, 8, 16}", cfg.depth),
		}
	}

	img, err := engine.NewRawImage(width, height, cfg.color.c, depth, slices.Clone(data))
	if err != nil {
		return nil, translate(err)
	}
	return &RawImage{img: img}, nil
}

// AddChunk attaches an ancillary chunk. Chunks are written in the order added and
// duplicates are kept.
func (r *RawImage) AddChunk(tag string, data []byte) error {
	if err := validTag(tag); err != nil {
		return &Error{Category: CategoryInvalidValue, Key: "tag", Message: err.Error()}
	}
	r.img.AddPNGChunk(engine.NameOf(tag), slices.Clone(data))
	return nil
}

// AddICCProfile stages an ICC profile, replacing any added before.
func (r *RawImage) AddICCProfile(data []byte) {
	r.img.AddICCProfile(slices.Clone(data))
}

// CreateOptimizedPNG encodes the image with cfg.
func (r *RawImage) CreateOptimizedPNG(ctx context.Context, cfg Configuration) ([]byte, error) {
	out, err := r.img.CreateOptimizedPNG(ctx, cfg.native())
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}
