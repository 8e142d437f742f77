package pngopt

import (
	"fmt"
	"math"
	"os"
	"reflect"
	"slices"
	"sort"
	"strings"
	"time"

	"pngopt/internal/engine"
)

// Configuration is a resolved, validated option set. It is a value type: the
// accessors hand out copies, so a Configuration never changes once returned by
// Resolve and may be shared between goroutines.
type Configuration struct {
	opts engine.Options
}

func (c Configuration) FixErrors() bool          { return c.opts.FixErrors }
func (c Configuration) Force() bool              { return c.opts.Force }
func (c Configuration) OptimizeAlpha() bool      { return c.opts.OptimizeAlpha }
func (c Configuration) BitDepthReduction() bool  { return c.opts.BitDepthReduction }
func (c Configuration) ColorTypeReduction() bool { return c.opts.ColorTypeReduction }
func (c Configuration) PaletteReduction() bool   { return c.opts.PaletteReduction }
func (c Configuration) GrayscaleReduction() bool { return c.opts.GrayscaleReduction }
func (c Configuration) IDATRecoding() bool       { return c.opts.IDATRecoding }
func (c Configuration) Scale16() bool            { return c.opts.Scale16 }
func (c Configuration) FastEvaluation() bool     { return c.opts.FastEvaluation }
func (c Configuration) UseHeuristics() bool      { return c.opts.UseHeuristics }
func (c Configuration) Backup() bool             { return c.opts.Backup }
func (c Configuration) Check() bool              { return c.opts.Check }
func (c Configuration) Pretend() bool            { return c.opts.Pretend }
func (c Configuration) PreserveAttrs() bool      { return c.opts.PreserveAttrs }

// Filter returns the filter set in ascending order. An empty set lets the engine choose.
func (c Configuration) Filter() []RowFilter {
	out := make([]RowFilter, 0, len(c.opts.Filter))
	for _, n := range c.opts.Filter {
		if f, ok := rowFilterFromNative(n); ok {
			out = append(out, f)
		}
	}
	return out
}

// Interlace reports the requested interlacing; ok is false when the input's
// interlacing is left unchanged.
func (c Configuration) Interlace() (mode Interlacing, ok bool) {
	if c.opts.Interlace == nil {
		return 0, false
	}
	return interlacingFromNative(*c.opts.Interlace)
}

func (c Configuration) Strip() StripChunks { return stripFromNative(c.opts.Strip) }

func (c Configuration) Deflate() Deflaters { return deflatersFromNative(c.opts.Deflate) }

// Timeout reports the time limit; ok is false when there is none.
func (c Configuration) Timeout() (d time.Duration, ok bool) {
	if c.opts.Timeout == nil {
		return 0, false
	}
	return *c.opts.Timeout, true
}

// Equal reports whether both configurations would drive the engine identically.
func (c Configuration) Equal(o Configuration) bool {
	a, b := c.opts, o.opts
	if !slices.Equal(a.Filter, b.Filter) ||
		!slices.Equal(a.Strip.Names, b.Strip.Names) ||
		!slices.Equal(a.Deflate.Compression, b.Deflate.Compression) ||
		!slices.Equal(a.Deflate.Strategies, b.Deflate.Strategies) ||
		!equalPtr(a.Interlace, b.Interlace) ||
		!equalPtr(a.Timeout, b.Timeout) {
		return false
	}
	a.Filter, b.Filter = nil, nil
	a.Strip.Names, b.Strip.Names = nil, nil
	a.Deflate.Compression, b.Deflate.Compression = nil, nil
	a.Deflate.Strategies, b.Deflate.Strategies = nil, nil
	a.Interlace, b.Interlace = nil, nil
	a.Timeout, b.Timeout = nil, nil
	return reflect.DeepEqual(a, b)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (c Configuration) String() string {
	var b strings.Builder
	b.WriteString("filter=[")
	for i, f := range c.Filter() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f.String())
	}
	b.WriteString("] interlace=")
	if mode, ok := c.Interlace(); ok {
		b.WriteString(mode.String())
	} else {
		b.WriteString("unchanged")
	}
	fmt.Fprintf(&b, " strip=%s deflate=%s timeout=", c.Strip(), c.Deflate())
	if d, ok := c.Timeout(); ok {
		b.WriteString(d.String())
	} else {
		b.WriteString("none")
	}
	for _, key := range boolKeys {
		fmt.Fprintf(&b, " %s=%t", key, *boolFields[key](&c.opts))
	}
	return b.String()
}

func (c Configuration) native() *engine.Options {
	o := c.opts.Clone()
	return &o
}

// Override is one named option in the order it should be applied.
type Override struct {
	Key   string
	Value any
}

func Opt(key string, value any) Override { return Override{Key: key, Value: value} }

// Level returns a pointer to n for use as Resolve's preset argument.
func Level(n int) *int { return &n }

// OptionSet is an unordered option mapping.
//
// Deprecated: map iteration order is undefined; pass []Override to Resolve.
type OptionSet map[string]any

type ResolveOption func(*resolution)

// WithDeprecationHandler routes deprecation notices to fn instead of stderr.
func WithDeprecationHandler(fn func(msg string)) ResolveOption {
	return func(r *resolution) { r.notify = fn }
}

const deprecationNotice = "unordered collections are deprecated for multi-valued options; use an ordered sequence"

func stderrNotice(msg string) {
	fmt.Fprintln(os.Stderr, "(pngopt) "+msg)
}

type resolution struct {
	notify    func(string)
	unordered bool
	warned    bool
}

// warn sends the deprecation notice the first time unordered input is seen.
func (r *resolution) warn() {
	if r.unordered && !r.warned && r.notify != nil {
		r.warned = true
		r.notify(deprecationNotice)
	}
}

// Resolve builds a Configuration from a preset level and ordered overrides. A nil
// level uses the engine defaults, unless an override named "level" supplies one.
// Later overrides of the same key replace earlier ones.
func Resolve(level *int, overrides []Override, opts ...ResolveOption) (Configuration, error) {
	r := &resolution{notify: stderrNotice}
	for _, opt := range opts {
		opt(r)
	}
	return r.resolve(level, overrides)
}

// ResolveSet resolves an unordered option mapping.
//
// Deprecated: use Resolve with ordered overrides.
func ResolveSet(level *int, set OptionSet, opts ...ResolveOption) (Configuration, error) {
	r := &resolution{notify: stderrNotice, unordered: true}
	for _, opt := range opts {
		opt(r)
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	overrides := make([]Override, 0, len(keys))
	for _, k := range keys {
		overrides = append(overrides, Override{Key: k, Value: set[k]})
	}
	return r.resolve(level, overrides)
}

func (r *resolution) resolve(level *int, overrides []Override) (Configuration, error) {
	r.warn()
	if level == nil {
		for _, o := range overrides {
			if o.Key != keyLevel {
				continue
			}
			n, ok := asInt(o.Value)
			if !ok {
				return Configuration{}, typeError(keyLevel, "int", o.Value)
			}
			level = &n
		}
	}

	base := engine.Default()
	if level != nil {
		if *level < 0 || *level > engine.MaxPreset {
			return Configuration{}, &Error{
				Category: CategoryInvalidValue,
				Key:      keyLevel,
				Message:  fmt.Sprintf("preset level %d out of range [0, %d]", *level, engine.MaxPreset),
			}
		}
		var err error
		if base, err = engine.FromPreset(*level); err != nil {
			return Configuration{}, &Error{Category: CategoryInvalidValue, Key: keyLevel, Message: err.Error(), Err: err}
		}
	}

	for _, o := range overrides {
		if o.Key == keyLevel {
			continue
		}
		dec, ok := registry[o.Key]
		if !ok {
			return Configuration{}, &Error{
				Category: CategoryUnsupportedOption,
				Key:      o.Key,
				Message:  fmt.Sprintf("unsupported option %q", o.Key),
			}
		}
		err := dec(&base, o.Value, r)
		r.warn()
		if err != nil {
			return Configuration{}, optionError(o.Key, err)
		}
	}
	return Configuration{opts: base}, nil
}

func optionError(key string, err error) error {
	if e, ok := err.(*Error); ok {
		if e.Key == "" || e.Key != key {
			msg := e.Message
			if e.Key != "" {
				msg = e.Key + ": " + msg
			}
			return &Error{Category: e.Category, Key: key, Message: msg, Err: e}
		}
		return e
	}
	return &Error{Category: CategoryInvalidValue, Key: key, Message: err.Error(), Err: err}
}

func typeError(key, want string, got any) error {
	return &Error{
		Category: CategoryInvalidOption,
		Key:      key,
		Message:  fmt.Sprintf("expected %s, got %T", want, got),
	}
}

const keyLevel = "level"

// Keys lists every recognized option name.
var Keys = []string{
	keyLevel, "fix_errors", "force", "filter", "interlace", "optimize_alpha",
	"bit_depth_reduction", "color_type_reduction", "palette_reduction",
	"grayscale_reduction", "idat_recoding", "scale_16", "strip", "deflate",
	"fast_evaluation", "timeout", "backup", "check", "pretend", "preserve_attrs",
	"use_heuristics",
}

type decoder func(o *engine.Options, v any, r *resolution) error

var boolFields = map[string]func(*engine.Options) *bool{
	"fix_errors":           func(o *engine.Options) *bool { return &o.FixErrors },
	"force":                func(o *engine.Options) *bool { return &o.Force },
	"optimize_alpha":       func(o *engine.Options) *bool { return &o.OptimizeAlpha },
	"bit_depth_reduction":  func(o *engine.Options) *bool { return &o.BitDepthReduction },
	"color_type_reduction": func(o *engine.Options) *bool { return &o.ColorTypeReduction },
	"palette_reduction":    func(o *engine.Options) *bool { return &o.PaletteReduction },
	"grayscale_reduction":  func(o *engine.Options) *bool { return &o.GrayscaleReduction },
	"idat_recoding":        func(o *engine.Options) *bool { return &o.IDATRecoding },
	"scale_16":             func(o *engine.Options) *bool { return &o.Scale16 },
	"fast_evaluation":      func(o *engine.Options) *bool { return &o.FastEvaluation },
	"backup":               func(o *engine.Options) *bool { return &o.Backup },
	"check":                func(o *engine.Options) *bool { return &o.Check },
	"pretend":              func(o *engine.Options) *bool { return &o.Pretend },
	"preserve_attrs":       func(o *engine.Options) *bool { return &o.PreserveAttrs },
	"use_heuristics":       func(o *engine.Options) *bool { return &o.UseHeuristics },
}

// boolKeys is boolFields in Keys order.
var boolKeys = func() []string {
	var out []string
	for _, k := range Keys {
		if _, ok := boolFields[k]; ok {
			out = append(out, k)
		}
	}
	return out
}()

var registry = func() map[string]decoder {
	m := map[string]decoder{
		"filter":    decodeFilter,
		"interlace": decodeInterlace,
		"strip":     decodeStrip,
		"deflate":   decodeDeflate,
		"timeout":   decodeTimeout,
	}
	for key, field := range boolFields {
		m[key] = boolDecoder(field)
	}
	return m
}()

func boolDecoder(field func(*engine.Options) *bool) decoder {
	return func(o *engine.Options, v any, _ *resolution) error {
		b, ok := v.(bool)
		if !ok {
			return typeError("", "bool", v)
		}
		*field(o) = b
		return nil
	}
}

func decodeFilter(o *engine.Options, v any, r *resolution) error {
	var filters []RowFilter
	switch t := v.(type) {
	case []RowFilter:
		filters = dedupe(t)
	case Collection[RowFilter]:
		var unordered bool
		filters, unordered = collect(t)
		r.unordered = r.unordered || unordered
	case []string:
		for _, name := range t {
			f, err := ParseRowFilter(name)
			if err != nil {
				return err
			}
			filters = append(filters, f)
		}
	case []any:
		for _, item := range t {
			switch e := item.(type) {
			case RowFilter:
				filters = append(filters, e)
			case string:
				f, err := ParseRowFilter(e)
				if err != nil {
					return err
				}
				filters = append(filters, f)
			default:
				return typeError("", "RowFilter or filter name", item)
			}
		}
	default:
		return typeError("", "collection of RowFilter", v)
	}

	var native []engine.RowFilter
	for _, f := range dedupe(filters) {
		n, ok := f.native()
		if !ok {
			return fmt.Errorf("unknown row filter %d", int(f))
		}
		native = append(native, n)
	}
	slices.Sort(native)
	o.Filter = native
	return nil
}

func decodeInterlace(o *engine.Options, v any, _ *resolution) error {
	var mode Interlacing
	switch t := v.(type) {
	case nil, noInstruction:
		o.Interlace = nil
		return nil
	case *Interlacing:
		if t == nil {
			o.Interlace = nil
			return nil
		}
		mode = *t
	case Interlacing:
		mode = t
	case string:
		m, err := ParseInterlacing(t)
		if err != nil {
			return err
		}
		mode = m
	default:
		return typeError("", "Interlacing or NoInstruction", v)
	}
	n, ok := mode.native()
	if !ok {
		return fmt.Errorf("unknown interlacing %d", int(mode))
	}
	o.Interlace = &n
	return nil
}

func decodeStrip(o *engine.Options, v any, r *resolution) error {
	var s StripChunks
	switch t := v.(type) {
	case StripChunks:
		s = t
	case *StripChunks:
		if t == nil {
			return typeError("", "StripChunks", v)
		}
		s = *t
	case string:
		p, err := ParseStripChunks(t)
		if err != nil {
			return err
		}
		s = p
	default:
		return typeError("", "StripChunks", v)
	}
	r.unordered = r.unordered || s.unordered
	o.Strip = s.native()
	return nil
}

func decodeDeflate(o *engine.Options, v any, r *resolution) error {
	var d Deflaters
	switch t := v.(type) {
	case Deflaters:
		d = t
	case *Deflaters:
		if t == nil {
			return typeError("", "Deflaters", v)
		}
		d = *t
	case string:
		p, err := ParseDeflaters(t)
		if err != nil {
			return err
		}
		d = p
	default:
		return typeError("", "Deflaters", v)
	}
	if d.kind == engine.DeflateLibdeflater && d.level == 0 {
		return fmt.Errorf("zero-value Deflaters; use Zlib, Zopfli or Libdeflater")
	}
	r.unordered = r.unordered || d.unordered
	o.Deflate = d.native()
	return nil
}

// maxTimeoutMillis is the largest whole-millisecond count a time.Duration holds.
const maxTimeoutMillis = math.MaxInt64 / int64(time.Millisecond)

func decodeTimeout(o *engine.Options, v any, _ *resolution) error {
	var seconds float64
	switch t := v.(type) {
	case nil:
		o.Timeout = nil
		return nil
	case time.Duration:
		if t < 0 {
			return fmt.Errorf("negative timeout %v", t)
		}
		d := t
		o.Timeout = &d
		return nil
	case *float64:
		if t == nil {
			o.Timeout = nil
			return nil
		}
		seconds = *t
	case float64:
		seconds = t
	case float32:
		seconds = float64(t)
	default:
		n, ok := asInt(v)
		if !ok {
			return typeError("", "seconds as float64, int or time.Duration", v)
		}
		seconds = float64(n)
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return fmt.Errorf("invalid timeout %v", seconds)
	}
	ms := math.Round(seconds * 1000)
	if ms > float64(maxTimeoutMillis) {
		return fmt.Errorf("timeout %v s exceeds the maximum of %v", seconds, time.Duration(maxTimeoutMillis)*time.Millisecond)
	}
	d := time.Duration(ms) * time.Millisecond
	o.Timeout = &d
	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	}
	return 0, false
}
