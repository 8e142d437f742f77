package engine

import (
	"bytes"
	"math"

	"github.com/klauspost/compress/flate"
)

var basicFilters = []RowFilter{FilterNone, FilterSub, FilterUp, FilterAverage, FilterPaeth}

// bruteContext is the number of previously chosen rows fed to the trial compressor.
const bruteContext = 4

// defaultFilter is used when the option set lists no filter at all.
func defaultFilter(k ColorKind, d BitDepth) RowFilter {
	if k == ColorIndexed || d < DepthEight {
		return FilterNone
	}
	return FilterMinSum
}

// filterPass filters rows of rowLen bytes and prefixes each with its filter type byte.
func filterPass(data []byte, rowLen, rows, stride int, f RowFilter) []byte {
	out := make([]byte, 0, (rowLen+1)*rows)
	prev := make([]byte, rowLen)
	scratch := make([]byte, rowLen)
	var chosen [][]byte

	for y := 0; y < rows; y++ {
		cur := data[y*rowLen : (y+1)*rowLen]
		ft := f
		if !f.basic() {
			ft = pickFilter(f, cur, prev, stride, scratch, chosen)
		}
		start := len(out)
		out = append(out, byte(ft))
		out = append(out, applyFilter(ft, cur, prev, stride, scratch)...)
		if f == FilterBrute {
			chosen = append(chosen, out[start:])
			if len(chosen) > bruteContext {
				chosen = chosen[1:]
			}
		}
		prev = cur
	}
	return out
}

// applyFilter writes the filtered row into dst and returns it.
func applyFilter(f RowFilter, cur, prev []byte, stride int, dst []byte) []byte {
	switch f {
	case FilterSub:
		for i := range cur {
			var a byte
			if i >= stride {
				a = cur[i-stride]
			}
			dst[i] = cur[i] - a
		}
	case FilterUp:
		for i := range cur {
			dst[i] = cur[i] - prev[i]
		}
	case FilterAverage:
		for i := range cur {
			var a int
			if i >= stride {
				a = int(cur[i-stride])
			}
			dst[i] = cur[i] - byte((a+int(prev[i]))/2)
		}
	case FilterPaeth:
		for i := range cur {
			var a, c byte
			if i >= stride {
				a, c = cur[i-stride], prev[i-stride]
			}
			dst[i] = cur[i] - paeth(a, prev[i], c)
		}
	default:
		copy(dst, cur)
	}
	return dst[:len(cur)]
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// pickFilter scores each basic filter on the row with heuristic h; lower is better.
func pickFilter(h RowFilter, cur, prev []byte, stride int, scratch []byte, chosen [][]byte) RowFilter {
	best, bestScore := FilterNone, math.Inf(1)
	for _, f := range basicFilters {
		row := applyFilter(f, cur, prev, stride, scratch)
		var score float64
		switch h {
		case FilterMinSum:
			score = minSum(row)
		case FilterEntropy:
			score = entropy(row)
		case FilterBigrams:
			score = float64(len(bigrams(row)))
		case FilterBigEnt:
			score = bigramEntropy(row)
		case FilterBrute:
			score = bruteSize(f, row, chosen)
		}
		if score < bestScore {
			best, bestScore = f, score
		}
	}
	return best
}

func minSum(row []byte) float64 {
	var sum int
	for _, b := range row {
		sum += abs(int(int8(b)))
	}
	return float64(sum)
}

func entropy(row []byte) float64 {
	var hist [256]int
	for _, b := range row {
		hist[b]++
	}
	return shannon(hist[:], len(row))
}

func bigrams(row []byte) map[uint16]int {
	m := make(map[uint16]int)
	for i := 1; i < len(row); i++ {
		m[uint16(row[i-1])<<8|uint16(row[i])]++
	}
	return m
}

func bigramEntropy(row []byte) float64 {
	m := bigrams(row)
	counts := make([]int, 0, len(m))
	for _, c := range m {
		counts = append(counts, c)
	}
	return shannon(counts, max(len(row)-1, 1))
}

// shannon returns the total information content in bits.
func shannon(counts []int, total int) float64 {
	var bits float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		bits -= float64(c) * math.Log2(p)
	}
	return bits
}

// bruteSize compresses the row together with its recent predecessors.
func bruteSize(f RowFilter, row []byte, chosen [][]byte) float64 {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestSpeed)
	if err != nil {
		return minSum(row)
	}
	for _, prev := range chosen {
		w.Write(prev)
	}
	w.Write([]byte{byte(f)})
	w.Write(row)
	w.Close()
	return float64(buf.Len())
}
