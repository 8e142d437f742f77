package pngopt

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"pngopt/internal/engine"
)

// Deflaters selects the DEFLATE backend and its tuning. Exactly one of Zlib, Zopfli
// or Libdeflater is active.
type Deflaters struct {
	kind        engine.DeflaterKind
	compression []int
	strategies  []int
	window      int
	level       int
	iterations  int
	unordered   bool
}

type zlibConfig struct {
	compression Collection[int]
	strategies  Collection[int]
	window      int
}

type ZlibOption func(*zlibConfig)

// ZlibCompression sets the compression levels to try, each in 1..9. Default {9}.
func ZlibCompression(levels Collection[int]) ZlibOption {
	return func(c *zlibConfig) { c.compression = levels }
}

// ZlibStrategies sets the zlib strategies to try, each in 0..3. Default {0,1,2,3}.
func ZlibStrategies(strategies Collection[int]) ZlibOption {
	return func(c *zlibConfig) { c.strategies = strategies }
}

// ZlibWindow sets the window size exponent, 8..15. Default 15.
func ZlibWindow(bits int) ZlibOption {
	return func(c *zlibConfig) { c.window = bits }
}

func Zlib(opts ...ZlibOption) (Deflaters, error) {
	cfg := zlibConfig{
		compression: Seq[int]{9},
		strategies:  Seq[int]{0, 1, 2, 3},
		window:      15,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	compression, u1 := collect(cfg.compression)
	strategies, u2 := collect(cfg.strategies)
	if err := checkRange("compression", compression, 1, 9); err != nil {
		return Deflaters{}, err
	}
	if err := checkRange("strategies", strategies, 0, 3); err != nil {
		return Deflaters{}, err
	}
	if cfg.window < 8 || cfg.window > 15 {
		return Deflaters{}, rangeError("window", cfg.window, 8, 15)
	}
	slices.Sort(compression)
	slices.Sort(strategies)
	return Deflaters{
		kind:        engine.DeflateZlib,
		compression: compression,
		strategies:  strategies,
		window:      cfg.window,
		unordered:   u1 || u2,
	}, nil
}

// Zopfli selects the zopfli backend. iterations must be in 1..255.
func Zopfli(iterations int) (Deflaters, error) {
	if iterations < 1 || iterations > 255 {
		return Deflaters{}, rangeError("iterations", iterations, 1, 255)
	}
	return Deflaters{kind: engine.DeflateZopfli, iterations: iterations}, nil
}

// Libdeflater selects the libdeflate-compatible backend at level 1..12.
func Libdeflater(compression int) (Deflaters, error) {
	if compression < 1 || compression > 12 {
		return Deflaters{}, rangeError("compression", compression, 1, 12)
	}
	return Deflaters{kind: engine.DeflateLibdeflater, level: compression}, nil
}

func checkRange(key string, values []int, lo, hi int) error {
	if len(values) == 0 {
		return &Error{Category: CategoryInvalidValue, Key: key, Message: "must not be empty"}
	}
	for _, v := range values {
		if v < lo || v > hi {
			return rangeError(key, v, lo, hi)
		}
	}
	return nil
}

func rangeError(key string, v, lo, hi int) error {
	return &Error{
		Category: CategoryInvalidValue,
		Key:      key,
		Message:  fmt.Sprintf("%d out of range [%d, %d]", v, lo, hi),
	}
}

func (d Deflaters) IsZlib() bool        { return d.kind == engine.DeflateZlib }
func (d Deflaters) IsZopfli() bool      { return d.kind == engine.DeflateZopfli }
func (d Deflaters) IsLibdeflater() bool { return d.kind == engine.DeflateLibdeflater }

// Compression returns the zlib levels, or the single libdeflater level.
func (d Deflaters) Compression() []int {
	if d.kind == engine.DeflateLibdeflater {
		return []int{d.level}
	}
	return slices.Clone(d.compression)
}

func (d Deflaters) Strategies() []int { return slices.Clone(d.strategies) }
func (d Deflaters) Window() int       { return d.window }
func (d Deflaters) Iterations() int   { return d.iterations }

func (d Deflaters) String() string {
	switch d.kind {
	case engine.DeflateZlib:
		return fmt.Sprintf("zlib:%s/%s/%d", joinInts(d.compression), joinInts(d.strategies), d.window)
	case engine.DeflateZopfli:
		return fmt.Sprintf("zopfli:%d", d.iterations)
	default:
		return fmt.Sprintf("libdeflater:%d", d.level)
	}
}

// ParseDeflaters reads the compact form produced by String. The zlib form is
// zlib[:<levels>[/<strategies>[/<window>]]] with comma separated lists.
func ParseDeflaters(s string) (Deflaters, error) {
	kind, arg, _ := strings.Cut(s, ":")
	switch kind {
	case "zopfli":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return Deflaters{}, parseError(s, err)
		}
		return Zopfli(n)
	case "libdeflater":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return Deflaters{}, parseError(s, err)
		}
		return Libdeflater(n)
	case "zlib":
		var opts []ZlibOption
		parts := strings.Split(arg, "/")
		if arg == "" {
			parts = nil
		}
		if len(parts) > 3 {
			return Deflaters{}, parseError(s, fmt.Errorf("too many fields"))
		}
		for i, p := range parts {
			ints, err := splitInts(p)
			if err != nil {
				return Deflaters{}, parseError(s, err)
			}
			switch i {
			case 0:
				opts = append(opts, ZlibCompression(Seq[int](ints)))
			case 1:
				opts = append(opts, ZlibStrategies(Seq[int](ints)))
			case 2:
				if len(ints) != 1 {
					return Deflaters{}, parseError(s, fmt.Errorf("window takes one value"))
				}
				opts = append(opts, ZlibWindow(ints[0]))
			}
		}
		return Zlib(opts...)
	}
	return Deflaters{}, parseError(s, fmt.Errorf("unknown deflater %q", kind))
}

func parseError(s string, err error) error {
	return &Error{Category: CategoryInvalidValue, Key: "deflate", Message: fmt.Sprintf("cannot parse %q: %v", s, err), Err: err}
}

func splitInts(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func (d Deflaters) native() engine.Deflaters {
	n := engine.Deflaters{Kind: d.kind}
	switch d.kind {
	case engine.DeflateZlib:
		for _, c := range d.compression {
			n.Compression = append(n.Compression, uint8(c))
		}
		for _, s := range d.strategies {
			n.Strategies = append(n.Strategies, uint8(s))
		}
		n.Window = uint8(d.window)
	case engine.DeflateZopfli:
		n.Iterations = uint8(d.iterations)
	default:
		n.Level = uint8(d.level)
	}
	return n
}

func deflatersFromNative(n engine.Deflaters) Deflaters {
	d := Deflaters{kind: n.Kind, window: int(n.Window), level: int(n.Level), iterations: int(n.Iterations)}
	for _, c := range n.Compression {
		d.compression = append(d.compression, int(c))
	}
	for _, s := range n.Strategies {
		d.strategies = append(d.strategies, int(s))
	}
	return d
}
