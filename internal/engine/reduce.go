package engine

// reduce applies the lossless reductions enabled in opts, plus scale_16 which is lossy.
// It reports whether the color type or bit depth changed.
func reduce(img *RawImage, opts *Options) bool {
	kind, depth := img.Color.Kind, img.Depth

	if opts.OptimizeAlpha {
		optimizeAlpha(img)
	}
	switch {
	case opts.Scale16:
		scale16(img)
	case opts.BitDepthReduction:
		reduce16(img)
	}
	if opts.ColorTypeReduction {
		dropOpaqueAlpha(img)
	}
	if opts.GrayscaleReduction {
		toGrayscale(img)
	}
	if opts.PaletteReduction {
		compactPalette(img)
	}
	if opts.BitDepthReduction {
		reduceLowDepth(img)
	}

	return kind != img.Color.Kind || depth != img.Depth
}

func sampleSize(img *RawImage) int { return int(img.Depth) / 8 }

func pixelCount(img *RawImage) int { return int(img.Width) * int(img.Height) }

// optimizeAlpha clears the color of fully transparent pixels.
func optimizeAlpha(img *RawImage) {
	if !img.Color.Kind.hasAlpha() || img.Depth < DepthEight {
		return
	}
	s := sampleSize(img)
	px := img.Color.Kind.Channels() * s
	for i := 0; i+px <= len(img.Data); i += px {
		if allZero(img.Data[i+px-s : i+px]) {
			clear(img.Data[i : i+px-s])
		}
	}
}

// reduce16 halves 16 bit samples whose high and low bytes are equal.
func reduce16(img *RawImage) {
	if img.Depth != DepthSixteen {
		return
	}
	for i := 0; i+1 < len(img.Data); i += 2 {
		if img.Data[i] != img.Data[i+1] {
			return
		}
	}
	if v := img.Color.TransparentShade; v != nil && !evenSample(*v) {
		return
	}
	if c := img.Color.TransparentColor; c != nil && !(evenSample(c.R) && evenSample(c.G) && evenSample(c.B)) {
		return
	}
	narrow(img, func(hi, _ byte) byte { return hi })
	mapKey(img, func(v uint16) uint16 { return v & 0xff })
}

// scale16 converts 16 bit samples to 8 bit with rounding.
func scale16(img *RawImage) {
	if img.Depth != DepthSixteen {
		return
	}
	scale := func(v uint16) uint16 { return uint16((uint32(v)*255 + 32895) >> 16) }
	narrow(img, func(hi, lo byte) byte { return byte(scale(uint16(hi)<<8 | uint16(lo))) })
	mapKey(img, scale)
}

func narrow(img *RawImage, f func(hi, lo byte) byte) {
	out := make([]byte, len(img.Data)/2)
	for i := range out {
		out[i] = f(img.Data[2*i], img.Data[2*i+1])
	}
	img.Data = out
	img.Depth = DepthEight
}

func mapKey(img *RawImage, f func(uint16) uint16) {
	if v := img.Color.TransparentShade; v != nil {
		n := f(*v)
		img.Color.TransparentShade = &n
	}
	if c := img.Color.TransparentColor; c != nil {
		n := RGB16{R: f(c.R), G: f(c.G), B: f(c.B)}
		img.Color.TransparentColor = &n
	}
}

func evenSample(v uint16) bool { return v>>8 == v&0xff }

// dropOpaqueAlpha removes an alpha channel that is fully opaque everywhere.
func dropOpaqueAlpha(img *RawImage) {
	if !img.Color.Kind.hasAlpha() || img.Depth < DepthEight {
		return
	}
	s := sampleSize(img)
	px := img.Color.Kind.Channels() * s
	for i := px - s; i < len(img.Data); i += px {
		for _, b := range img.Data[i : i+s] {
			if b != 0xff {
				return
			}
		}
	}
	out := make([]byte, 0, len(img.Data)/px*(px-s))
	for i := 0; i < len(img.Data); i += px {
		out = append(out, img.Data[i:i+px-s]...)
	}
	img.Data = out
	if img.Color.Kind == ColorRGBA {
		img.Color.Kind = ColorRGB
	} else {
		img.Color.Kind = ColorGrayscale
	}
}

// toGrayscale collapses RGB(A) images whose channels are equal in every pixel.
func toGrayscale(img *RawImage) {
	k := img.Color.Kind
	if (k != ColorRGB && k != ColorRGBA) || img.Depth < DepthEight {
		return
	}
	if c := img.Color.TransparentColor; c != nil && (c.R != c.G || c.G != c.B) {
		return
	}
	s := sampleSize(img)
	px := k.Channels() * s
	for i := 0; i < len(img.Data); i += px {
		r, g, b := img.Data[i:i+s], img.Data[i+s:i+2*s], img.Data[i+2*s:i+3*s]
		if string(r) != string(g) || string(g) != string(b) {
			return
		}
	}
	keep := s
	if k == ColorRGBA {
		keep = 2 * s
	}
	out := make([]byte, 0, pixelCount(img)*keep)
	for i := 0; i < len(img.Data); i += px {
		out = append(out, img.Data[i:i+s]...)
		if k == ColorRGBA {
			out = append(out, img.Data[i+3*s:i+4*s]...)
		}
	}
	img.Data = out
	if c := img.Color.TransparentColor; c != nil {
		shade := c.R
		img.Color.TransparentShade = &shade
		img.Color.TransparentColor = nil
	}
	if k == ColorRGBA {
		img.Color.Kind = ColorGrayscaleAlpha
	} else {
		img.Color.Kind = ColorGrayscale
	}
}

// compactPalette drops palette entries no pixel refers to.
func compactPalette(img *RawImage) {
	if img.Color.Kind != ColorIndexed {
		return
	}
	w, h := int(img.Width), int(img.Height)
	idx := unpackSamples(img.Data, w, h, img.Depth)

	var used [256]bool
	for _, i := range idx {
		used[i] = true
	}
	var remap [256]byte
	var pal []RGBA8
	for i, entry := range img.Color.Palette {
		if used[i] {
			remap[i] = byte(len(pal))
			pal = append(pal, entry)
		}
	}
	if len(pal) == len(img.Color.Palette) || len(pal) == 0 {
		return
	}
	out := make([]byte, len(idx))
	for i, v := range idx {
		out[i] = remap[v]
	}
	img.Color.Palette = pal
	img.Data = packSamples(out, w, h, img.Depth)
}

// reduceLowDepth packs 8 bit indexed and grayscale images into 1, 2 or 4 bits.
func reduceLowDepth(img *RawImage) {
	if img.Depth != DepthEight {
		return
	}
	w, h := int(img.Width), int(img.Height)

	switch img.Color.Kind {
	case ColorIndexed:
		var d BitDepth
		switch n := len(img.Color.Palette); {
		case n <= 2:
			d = DepthOne
		case n <= 4:
			d = DepthTwo
		case n <= 16:
			d = DepthFour
		default:
			return
		}
		img.Data = packSamples(img.Data, w, h, d)
		img.Depth = d
	case ColorGrayscale:
		for _, d := range []BitDepth{DepthOne, DepthTwo, DepthFour} {
			if !grayFits(img, d) {
				continue
			}
			shift := 8 - int(d)
			samples := make([]byte, len(img.Data))
			for i, v := range img.Data {
				samples[i] = v >> shift
			}
			img.Data = packSamples(samples, w, h, d)
			img.Depth = d
			if v := img.Color.TransparentShade; v != nil {
				n := *v >> shift
				img.Color.TransparentShade = &n
			}
			return
		}
	}
}

func grayFits(img *RawImage, d BitDepth) bool {
	step := 255 / (1<<d - 1)
	fits := func(v int) bool { return v%step == 0 }
	if s := img.Color.TransparentShade; s != nil && (*s > 0xff || !fits(int(*s))) {
		return false
	}
	for _, v := range img.Data {
		if !fits(int(v)) {
			return false
		}
	}
	return true
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
