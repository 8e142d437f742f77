package engine

// adam7 holds x start, y start, x step and y step for each of the seven passes.
var adam7 = [7][4]int{
	{0, 0, 8, 8},
	{4, 0, 8, 8},
	{0, 4, 4, 8},
	{2, 0, 4, 4},
	{0, 2, 2, 4},
	{1, 0, 2, 2},
	{0, 1, 1, 2},
}

type pass struct {
	width, height int
	data          []byte
}

// passes splits the image into the scanline groups it is stored as.
// A non-interlaced image is a single pass.
func passes(img *RawImage, il Interlacing) []pass {
	w, h := int(img.Width), int(img.Height)
	if il != InterlaceAdam7 {
		return []pass{{width: w, height: h, data: img.Data}}
	}

	bpp := bitsPerPixel(img.Color.Kind, img.Depth)
	stride := rowBytes(img.Width, img.Color.Kind, img.Depth)
	var out []pass
	for _, p := range adam7 {
		x0, y0, dx, dy := p[0], p[1], p[2], p[3]
		pw, ph := (w-x0+dx-1)/dx, (h-y0+dy-1)/dy
		if pw <= 0 || ph <= 0 {
			continue
		}
		prow := (pw*bpp + 7) / 8
		data := make([]byte, prow*ph)
		for py := 0; py < ph; py++ {
			src := img.Data[(y0+py*dy)*stride:]
			dst := data[py*prow:]
			for px := 0; px < pw; px++ {
				copyBits(dst, px*bpp, src, (x0+px*dx)*bpp, bpp)
			}
		}
		out = append(out, pass{width: pw, height: ph, data: data})
	}
	return out
}

// copyBits copies n bits starting at bit offset from in src to bit offset to in dst.
// Offsets of whole pixels are byte aligned whenever n is a multiple of eight.
func copyBits(dst []byte, to int, src []byte, from, n int) {
	if n%8 == 0 {
		copy(dst[to/8:to/8+n/8], src[from/8:from/8+n/8])
		return
	}
	for i := 0; i < n; i++ {
		s, d := from+i, to+i
		bit := src[s/8] >> (7 - s%8) & 1
		dst[d/8] |= bit << (7 - d%8)
	}
}
