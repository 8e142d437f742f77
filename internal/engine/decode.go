package engine

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
)

// decodeFile turns a parsed PNG into a RawImage in its stored color type where
// image/png preserves it. Gray and RGB images with a tRNS key, and gray with alpha,
// come back as RGBA; the reductions bring them down again.
func decodeFile(f *pngFile) (*RawImage, error) {
	img, err := png.Decode(bytes.NewReader(f.criticalOnly()))
	if err != nil {
		if _, ok := err.(png.FormatError); ok {
			return nil, errKind(KindInvalidData)
		}
		return nil, readErr(err)
	}

	h := f.header
	raw := &RawImage{
		Width:           h.width,
		Height:          h.height,
		Chunks:          f.chunks,
		sourceInterlace: h.interlace,
	}
	w, ht := int(h.width), int(h.height)

	switch m := img.(type) {
	case *image.Gray:
		raw.Color = ColorType{Kind: ColorGrayscale}
		raw.Depth = h.depth
		shift := 8 - int(h.depth)
		samples := make([]byte, 0, w*ht)
		for y := 0; y < ht; y++ {
			for _, v := range m.Pix[y*m.Stride : y*m.Stride+w] {
				samples = append(samples, v>>shift)
			}
		}
		raw.Data = packSamples(samples, w, ht, h.depth)
	case *image.Gray16:
		raw.Color = ColorType{Kind: ColorGrayscale}
		raw.Depth = DepthSixteen
		raw.Data = copyRows(m.Pix, m.Stride, w*2, ht)
	case *image.Paletted:
		raw.Color = ColorType{Kind: ColorIndexed, Palette: paletteFromChunks(f.palette, f.trns)}
		raw.Depth = h.depth
		samples := make([]byte, 0, w*ht)
		for y := 0; y < ht; y++ {
			samples = append(samples, m.Pix[y*m.Stride:y*m.Stride+w]...)
		}
		raw.Data = packSamples(samples, w, ht, h.depth)
	case *image.RGBA:
		raw.Color = ColorType{Kind: ColorRGB}
		raw.Depth = DepthEight
		raw.Data = dropAlpha(m.Pix, m.Stride, w, ht, 1)
	case *image.RGBA64:
		raw.Color = ColorType{Kind: ColorRGB}
		raw.Depth = DepthSixteen
		raw.Data = dropAlpha(m.Pix, m.Stride, w, ht, 2)
	case *image.NRGBA:
		raw.Color = ColorType{Kind: ColorRGBA}
		raw.Depth = DepthEight
		raw.Data = copyRows(m.Pix, m.Stride, w*4, ht)
	case *image.NRGBA64:
		raw.Color = ColorType{Kind: ColorRGBA}
		raw.Depth = DepthSixteen
		raw.Data = copyRows(m.Pix, m.Stride, w*8, ht)
	default:
		n := image.NewNRGBA(image.Rect(0, 0, w, ht))
		draw.Draw(n, n.Bounds(), img, img.Bounds().Min, draw.Src)
		raw.Color = ColorType{Kind: ColorRGBA}
		raw.Depth = DepthEight
		raw.Data = copyRows(n.Pix, n.Stride, w*4, ht)
	}

	return raw, nil
}

func paletteFromChunks(plte, trns []byte) []RGBA8 {
	pal := make([]RGBA8, len(plte)/3)
	for i := range pal {
		pal[i] = RGBA8{R: plte[3*i], G: plte[3*i+1], B: plte[3*i+2], A: 0xff}
		if i < len(trns) {
			pal[i].A = trns[i]
		}
	}
	return pal
}

func copyRows(pix []byte, stride, n, height int) []byte {
	out := make([]byte, 0, n*height)
	for y := 0; y < height; y++ {
		out = append(out, pix[y*stride:y*stride+n]...)
	}
	return out
}

// dropAlpha strips the fourth channel of an RGBA buffer with size bytes per sample.
func dropAlpha(pix []byte, stride, width, height, size int) []byte {
	out := make([]byte, 0, width*height*3*size)
	for y := 0; y < height; y++ {
		row := pix[y*stride:]
		for x := 0; x < width; x++ {
			p := row[x*4*size:]
			out = append(out, p[:3*size]...)
		}
	}
	return out
}

// packSamples packs one sample per byte into rows of the given bit depth.
func packSamples(samples []byte, width, height int, depth BitDepth) []byte {
	if depth == DepthEight {
		return samples
	}
	d := int(depth)
	stride := (width*d + 7) / 8
	out := make([]byte, stride*height)
	for y := 0; y < height; y++ {
		row := out[y*stride : (y+1)*stride]
		for x := 0; x < width; x++ {
			bit := x * d
			row[bit/8] |= samples[y*width+x] << (8 - d - bit%8)
		}
	}
	return out
}

// unpackSamples is the inverse of packSamples.
func unpackSamples(data []byte, width, height int, depth BitDepth) []byte {
	if depth == DepthEight {
		return data
	}
	d := int(depth)
	stride := (width*d + 7) / 8
	mask := byte(1<<d - 1)
	out := make([]byte, 0, width*height)
	for y := 0; y < height; y++ {
		row := data[y*stride:]
		for x := 0; x < width; x++ {
			bit := x * d
			out = append(out, row[bit/8]>>(8-d-bit%8)&mask)
		}
	}
	return out
}
