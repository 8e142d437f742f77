package engine

import (
	"bytes"
	"slices"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// zlib strategy codes as accepted in Deflaters.Strategies.
const (
	strategyDefault = iota
	strategyFiltered
	strategyHuffman
	strategyRLE
)

// levels expands a deflater choice into the distinct zlib levels to try, best first.
func (d Deflaters) levels() []int {
	switch d.Kind {
	case DeflateZlib:
		var out []int
		for _, s := range d.Strategies {
			for _, c := range d.Compression {
				var l int
				switch s {
				case strategyHuffman:
					l = zlib.HuffmanOnly
				case strategyRLE:
					l = zlib.BestSpeed
				default:
					l = int(c)
				}
				if !slices.Contains(out, l) {
					out = append(out, l)
				}
			}
		}
		if len(out) == 0 {
			out = append(out, zlib.BestCompression)
		}
		return out
	case DeflateZopfli:
		return []int{zlib.BestCompression}
	default:
		return []int{min(max(int(d.Level), 1), zlib.BestCompression)}
	}
}

// compress zlib-wraps data at the given level.
func compress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, errOther("create deflater", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, errOther("deflate", err)
	}
	if err := w.Close(); err != nil {
		return nil, errOther("deflate", err)
	}
	if buf.Len() > maxChunkLength {
		return nil, &PngError{Kind: KindDeflatedDataTooLong, Size: buf.Len()}
	}
	return buf.Bytes(), nil
}

// fastLevel is the level used to rank filters under fast evaluation.
const fastLevel = flate.BestSpeed
