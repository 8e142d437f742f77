package pngopt

import (
	"fmt"

	"pngopt/internal/engine"
)

// ColorType describes the pixel layout of a RawImage.
type ColorType struct {
	c engine.ColorType
}

// Grayscale pixels; shade, when set, is the fully transparent gray level.
func Grayscale(shade *uint16) ColorType {
	c := engine.ColorType{Kind: engine.ColorGrayscale}
	if shade != nil {
		v := *shade
		c.TransparentShade = &v
	}
	return ColorType{c: c}
}

// RGB pixels; color, when set, is the fully transparent color.
func RGB(color *[3]uint16) ColorType {
	c := engine.ColorType{Kind: engine.ColorRGB}
	if color != nil {
		c.TransparentColor = &engine.RGB16{R: color[0], G: color[1], B: color[2]}
	}
	return ColorType{c: c}
}

// Indexed pixels referring to a palette of 1 to 256 RGBA entries.
func Indexed(palette [][4]uint8) (ColorType, error) {
	if len(palette) == 0 || len(palette) > 256 {
		return ColorType{}, &Error{
			Category: CategoryInvalidValue,
			Key:      "palette",
			Message:  fmt.Sprintf("palette length %d out of range [1, 256]", len(palette)),
		}
	}
	c := engine.ColorType{Kind: engine.ColorIndexed, Palette: make([]engine.RGBA8, len(palette))}
	for i, p := range palette {
		c.Palette[i] = engine.RGBA8{R: p[0], G: p[1], B: p[2], A: p[3]}
	}
	return ColorType{c: c}, nil
}

func GrayscaleAlpha() ColorType {
	return ColorType{c: engine.ColorType{Kind: engine.ColorGrayscaleAlpha}}
}

func RGBA() ColorType {
	return ColorType{c: engine.ColorType{Kind: engine.ColorRGBA}}
}

func (c ColorType) String() string {
	switch {
	case c.c.TransparentShade != nil:
		return fmt.Sprintf("%s (transparent %d)", c.c.Kind, *c.c.TransparentShade)
	case c.c.TransparentColor != nil:
		t := c.c.TransparentColor
		return fmt.Sprintf("%s (transparent %d,%d,%d)", c.c.Kind, t.R, t.G, t.B)
	case c.c.Kind == engine.ColorIndexed:
		return fmt.Sprintf("%s (%d colors)", c.c.Kind, len(c.c.Palette))
	}
	return c.c.Kind.String()
}
