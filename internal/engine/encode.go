package engine

import (
	"bytes"
	"context"
	"encoding/binary"
	"slices"

	"pngopt/pkg/imgutil"
)

// beforePLTE are ancillary chunks that must precede PLTE and IDAT.
var beforePLTE = []ChunkName{
	NameOf("cHRM"),
	NameOf("gAMA"),
	nameICCP,
	NameOf("sBIT"),
	NameOf("sRGB"),
	NameOf("cICP"),
}

// withTimeout bounds ctx by the configured timeout, if any.
func withTimeout(ctx context.Context, opts *Options) (context.Context, context.CancelFunc) {
	if opts.Timeout == nil {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, *opts.Timeout)
}

// encodeImage reduces img in place and writes the smallest PNG found across
// the configured filter and deflate trials.
func encodeImage(ctx context.Context, img *RawImage, opts *Options) ([]byte, error) {
	changed := reduce(img, opts)

	il := img.sourceInterlace
	if opts.Interlace != nil {
		il = *opts.Interlace
	}
	idat, err := compressImage(ctx, img, il, opts)
	if err != nil {
		return nil, err
	}

	chunks := opts.Strip.apply(img.Chunks)
	if changed {
		chunks = slices.DeleteFunc(chunks, func(c Chunk) bool {
			return slices.Contains(colorDependentChunks, c.Name)
		})
	}
	if img.ICC != nil && opts.Strip.keepsName(nameICCP) {
		iccp, err := iccpChunk(img.ICC)
		if err != nil {
			return nil, err
		}
		chunks = slices.DeleteFunc(chunks, func(c Chunk) bool { return c.Name == nameICCP })
		chunks = append([]Chunk{iccp}, chunks...)
	}

	h := header{
		width:     img.Width,
		height:    img.Height,
		depth:     img.Depth,
		color:     img.Color.Kind,
		interlace: il,
	}
	return assemble(h, img.Color, chunks, idat), nil
}

// compressImage runs the trial loop and returns the smallest zlib stream.
func compressImage(ctx context.Context, img *RawImage, il Interlacing, opts *Options) ([]byte, error) {
	filters := slices.Clone(opts.Filter)
	if len(filters) == 0 || opts.UseHeuristics {
		filters = []RowFilter{defaultFilter(img.Color.Kind, img.Depth)}
	}
	slices.Sort(filters)
	levels := opts.Deflate.levels()
	if opts.UseHeuristics {
		levels = levels[:1]
	}

	ps := passes(img, il)
	stride := filterStride(img.Color.Kind, img.Depth)
	filtered := func(f RowFilter) []byte {
		var out []byte
		for _, p := range ps {
			rowLen := (p.width*bitsPerPixel(img.Color.Kind, img.Depth) + 7) / 8
			out = append(out, filterPass(p.data, rowLen, p.height, stride, f)...)
		}
		return out
	}

	if opts.FastEvaluation && len(filters) > 1 {
		var bestFilter RowFilter
		bestSize := -1
		for _, f := range filters {
			if ctx.Err() != nil {
				break
			}
			out, err := compress(filtered(f), fastLevel)
			if err != nil {
				return nil, err
			}
			if bestSize < 0 || len(out) < bestSize {
				bestFilter, bestSize = f, len(out)
			}
		}
		if bestSize >= 0 {
			filters = []RowFilter{bestFilter}
		}
	}

	var best []byte
	for _, f := range filters {
		data := filtered(f)
		for _, l := range levels {
			if ctx.Err() != nil {
				if best == nil {
					return nil, errKind(KindTimedOut)
				}
				return best, nil
			}
			out, err := compress(data, l)
			if err != nil {
				return nil, err
			}
			if best == nil || len(out) < len(best) {
				best = out
			}
		}
	}
	return best, nil
}

// iccpChunk builds an iCCP chunk with a fixed profile name and compressed profile.
func iccpChunk(profile []byte) (Chunk, error) {
	z, err := compress(profile, 9)
	if err != nil {
		return Chunk{}, err
	}
	data := append([]byte("icc\x00\x00"), z...)
	return Chunk{Name: nameICCP, Data: data}, nil
}

func assemble(h header, color ColorType, chunks []Chunk, idat []byte) []byte {
	var buf bytes.Buffer
	buf.Write(imgutil.PNGSignature)
	writeChunk(&buf, nameIHDR, h.bytes())

	for _, c := range chunks {
		if slices.Contains(beforePLTE, c.Name) {
			writeChunk(&buf, c.Name, c.Data)
		}
	}
	if color.Kind == ColorIndexed {
		plte := make([]byte, 0, 3*len(color.Palette))
		for _, e := range color.Palette {
			plte = append(plte, e.R, e.G, e.B)
		}
		writeChunk(&buf, namePLTE, plte)
	}
	if trns := transparency(color); trns != nil {
		writeChunk(&buf, nameTRNS, trns)
	}
	for _, c := range chunks {
		if !slices.Contains(beforePLTE, c.Name) {
			writeChunk(&buf, c.Name, c.Data)
		}
	}

	writeChunk(&buf, nameIDAT, idat)
	writeChunk(&buf, nameIEND, nil)
	return buf.Bytes()
}

// transparency returns the tRNS payload for color, or nil when there is none.
func transparency(color ColorType) []byte {
	switch color.Kind {
	case ColorGrayscale:
		if color.TransparentShade == nil {
			return nil
		}
		return binary.BigEndian.AppendUint16(nil, *color.TransparentShade)
	case ColorRGB:
		c := color.TransparentColor
		if c == nil {
			return nil
		}
		b := binary.BigEndian.AppendUint16(nil, c.R)
		b = binary.BigEndian.AppendUint16(b, c.G)
		return binary.BigEndian.AppendUint16(b, c.B)
	case ColorIndexed:
		last := -1
		for i, e := range color.Palette {
			if e.A != 0xff {
				last = i
			}
		}
		if last < 0 {
			return nil
		}
		alphas := make([]byte, last+1)
		for i := range alphas {
			alphas[i] = color.Palette[i].A
		}
		return alphas
	}
	return nil
}
