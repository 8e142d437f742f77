package pngopt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"pngopt/internal/engine"
)

func quiet() ResolveOption { return WithDeprecationHandler(func(string) {}) }

func TestResolvePresets(t *testing.T) {
	for level := 0; level <= engine.MaxPreset; level++ {
		want, err := engine.FromPreset(level)
		if err != nil {
			t.Fatalf("FromPreset(%d): %v", level, err)
		}
		got, err := Resolve(Level(level), nil)
		if err != nil {
			t.Fatalf("Resolve(%d): %v", level, err)
		}
		if !got.Equal(Configuration{opts: want}) {
			t.Errorf("Resolve(%d) = %v, want %v", level, got, Configuration{opts: want})
		}
		again, err := Resolve(Level(level), nil)
		if err != nil {
			t.Fatalf("Resolve(%d) again: %v", level, err)
		}
		if !again.Equal(got) {
			t.Errorf("Resolve(%d) is not idempotent", level)
		}
	}
}

func TestResolveDefaultIsPresetTwo(t *testing.T) {
	def, err := Resolve(nil, nil)
	if err != nil {
		t.Fatalf("Resolve(nil): %v", err)
	}
	two, err := Resolve(Level(2), nil)
	if err != nil {
		t.Fatalf("Resolve(2): %v", err)
	}
	if !def.Equal(two) {
		t.Errorf("default %v differs from preset 2 %v", def, two)
	}
}

func TestResolveLevelOutOfRange(t *testing.T) {
	tests := []struct {
		name      string
		level     *int
		overrides []Override
	}{
		{"keyword", nil, []Override{Opt("level", 7)}},
		{"argument", Level(-1), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.level, tt.overrides)
			if !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("err = %v, want invalid value", err)
			}
			if !strings.Contains(err.Error(), "level") {
				t.Errorf("error %q does not name level", err)
			}
		})
	}
}

func TestResolveLevelKeywordSeedsPreset(t *testing.T) {
	got, err := Resolve(nil, []Override{Opt("force", true), Opt("level", 5)})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.FastEvaluation() {
		t.Error("level 5 keyword did not seed the preset")
	}
	if !got.Force() {
		t.Error("force override lost")
	}

	explicit, err := Resolve(Level(0), []Override{Opt("level", 5)})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(explicit.Filter()) != 0 {
		t.Error("level keyword overrode the explicit level argument")
	}
}

func TestResolveUnsupportedOption(t *testing.T) {
	_, err := Resolve(nil, []Override{Opt("foo", true)})
	if !errors.Is(err, ErrUnsupportedOption) {
		t.Fatalf("err = %v, want unsupported option", err)
	}
	var e *Error
	if !errors.As(err, &e) || e.Key != "foo" {
		t.Fatalf("error does not name foo: %v", err)
	}
	if !strings.Contains(err.Error(), `"foo"`) {
		t.Errorf("message %q does not name foo", err)
	}
}

func TestResolveOverridesSingleField(t *testing.T) {
	base, err := Resolve(Level(3), nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got, err := Resolve(Level(3), []Override{Opt("interlace", Adam7)})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if mode, ok := got.Interlace(); !ok || mode != Adam7 {
		t.Fatalf("interlace = %v/%v, want Adam7", mode, ok)
	}

	want := base.opts.Clone()
	adam7 := engine.InterlaceAdam7
	want.Interlace = &adam7
	if !got.Equal(Configuration{opts: want}) {
		t.Errorf("got %v, want %v", got, Configuration{opts: want})
	}
}

func TestResolveLastWriteWins(t *testing.T) {
	got, err := Resolve(nil, []Override{Opt("force", true), Opt("force", false)})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Force() {
		t.Error("force = true, want false")
	}
}

func TestResolveBoolTypeError(t *testing.T) {
	_, err := Resolve(nil, []Override{Opt("force", 1)})
	if !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("err = %v, want invalid option", err)
	}
	if !strings.Contains(err.Error(), "force") || !strings.Contains(err.Error(), "bool") {
		t.Errorf("message %q should name the key and the expected type", err)
	}
}

func TestResolveTimeout(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Duration
	}{
		{"float seconds", 1.5, 1500 * time.Millisecond},
		{"int seconds", 2, 2 * time.Second},
		{"rounded", 0.0004, 0},
		{"rounded up", 0.0015, 2 * time.Millisecond},
		{"duration", 250 * time.Millisecond, 250 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Resolve(nil, []Override{Opt("timeout", tt.value)})
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			d, ok := cfg.Timeout()
			if !ok || d != tt.want {
				t.Errorf("timeout = %v/%v, want %v", d, ok, tt.want)
			}
		})
	}

	cfg, err := Resolve(nil, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := cfg.Timeout(); ok {
		t.Error("omitted timeout should mean no timeout")
	}
	cfg, err = Resolve(nil, []Override{Opt("timeout", 3.0), Opt("timeout", nil)})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := cfg.Timeout(); ok {
		t.Error("nil timeout should clear the limit")
	}

	if _, err := Resolve(nil, []Override{Opt("timeout", -1.0)}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("negative timeout err = %v, want invalid value", err)
	}

	for _, huge := range []any{1e10, 1e300, int64(1) << 62} {
		_, err := Resolve(nil, []Override{Opt("timeout", huge)})
		var e *Error
		if !errors.As(err, &e) || e.Category != CategoryInvalidValue || e.Key != "timeout" {
			t.Errorf("timeout %v err = %v, want invalid value naming timeout", huge, err)
		}
	}
	cfg, err = Resolve(nil, []Override{Opt("timeout", 1e9)})
	if err != nil {
		t.Fatalf("Resolve(1e9): %v", err)
	}
	if d, _ := cfg.Timeout(); d != 1e9*time.Second {
		t.Errorf("timeout 1e9 = %v", d)
	}
}

func TestResolveFilter(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  []RowFilter
	}{
		{"slice", []RowFilter{Paeth, Sub, Paeth}, []RowFilter{Sub, Paeth}},
		{"seq", Seq[RowFilter]{Brute, NoOp}, []RowFilter{NoOp, Brute}},
		{"names", []string{"Up", "None"}, []RowFilter{NoOp, Up}},
		{"mixed", []any{MinSum, "Entropy"}, []RowFilter{MinSum, Entropy}},
		{"empty", []RowFilter{}, []RowFilter{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Resolve(nil, []Override{Opt("filter", tt.value)})
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			got := cfg.Filter()
			if len(got) != len(tt.want) {
				t.Fatalf("filter = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("filter = %v, want %v", got, tt.want)
				}
			}
		})
	}

	if _, err := Resolve(nil, []Override{Opt("filter", []string{"Sideways"})}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("unknown filter name err = %v, want invalid value", err)
	}
	if _, err := Resolve(nil, []Override{Opt("filter", "Sub")}); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("bare string filter err = %v, want invalid option", err)
	}
}

func TestResolveInterlaceNoInstruction(t *testing.T) {
	for _, v := range []any{nil, NoInstruction, (*Interlacing)(nil)} {
		cfg, err := Resolve(nil, []Override{Opt("interlace", v)})
		if err != nil {
			t.Fatalf("Resolve(%v): %v", v, err)
		}
		if _, ok := cfg.Interlace(); ok {
			t.Errorf("interlace %v should leave the input unchanged", v)
		}
	}

	cfg, err := Resolve(nil, []Override{Opt("interlace", "Off")})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if mode, ok := cfg.Interlace(); !ok || mode != Off {
		t.Errorf("interlace = %v/%v, want Off", mode, ok)
	}
}

func TestResolveStripAndDeflate(t *testing.T) {
	keep, err := KeepList(Seq[string]{"sRGB", "pHYs"})
	if err != nil {
		t.Fatalf("KeepList: %v", err)
	}
	zopfli, err := Zopfli(15)
	if err != nil {
		t.Fatalf("Zopfli: %v", err)
	}
	libdeflater, err := Libdeflater(12)
	if err != nil {
		t.Fatalf("Libdeflater: %v", err)
	}

	var legacy Headers = StripSafe()
	cfg, err := Resolve(nil, []Override{
		Opt("strip", keep),
		Opt("deflate", libdeflater),
		Opt("deflate", zopfli),
		Opt("strip", legacy),
	}, quiet())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Strip().String() != "safe" {
		t.Errorf("strip = %v, want safe", cfg.Strip())
	}
	if d := cfg.Deflate(); !d.IsZopfli() || d.Iterations() != 15 {
		t.Errorf("deflate = %v, want zopfli:15", d)
	}

	if _, err := Resolve(nil, []Override{Opt("deflate", Deflaters{})}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("zero Deflaters err = %v, want invalid value", err)
	}
	if _, err := Resolve(nil, []Override{Opt("strip", 3)}); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("int strip err = %v, want invalid option", err)
	}
}

func TestResolveDeprecationNotice(t *testing.T) {
	var notices []string
	notify := WithDeprecationHandler(func(msg string) { notices = append(notices, msg) })

	strip, err := StripList(SetOf("tEXt", "tIME"))
	if err != nil {
		t.Fatalf("StripList: %v", err)
	}
	cfg, err := Resolve(nil, []Override{
		Opt("filter", SetOf(Sub, Up)),
		Opt("strip", strip),
	}, notify)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(notices) != 1 {
		t.Fatalf("got %d notices, want exactly 1", len(notices))
	}
	if f := cfg.Filter(); len(f) != 2 || f[0] != Sub || f[1] != Up {
		t.Errorf("filter = %v, want [Sub Up]", f)
	}

	notices = nil
	if _, err := Resolve(nil, []Override{Opt("filter", Seq[RowFilter]{Sub})}, notify); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(notices) != 0 {
		t.Errorf("ordered input produced %d notices", len(notices))
	}

	notices = nil
	got, err := ResolveSet(Level(4), OptionSet{"force": true, "timeout": 1.5}, notify)
	if err != nil {
		t.Fatalf("ResolveSet: %v", err)
	}
	if len(notices) != 1 {
		t.Errorf("ResolveSet produced %d notices, want 1", len(notices))
	}
	if !got.Force() {
		t.Error("ResolveSet lost force")
	}
}

func TestResolveDeprecationNoticeBeforeError(t *testing.T) {
	var notices int
	notify := WithDeprecationHandler(func(string) { notices++ })

	_, err := Resolve(nil, []Override{
		Opt("filter", SetOf(Sub, Up)),
		Opt("force", "yes"),
	}, notify)
	if !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("err = %v, want invalid option", err)
	}
	if notices != 1 {
		t.Errorf("got %d notices before the failing override, want 1", notices)
	}

	notices = 0
	if _, err := ResolveSet(nil, OptionSet{"colour": "red"}, notify); !errors.Is(err, ErrUnsupportedOption) {
		t.Fatalf("ResolveSet err = %v, want unsupported option", err)
	}
	if notices != 1 {
		t.Errorf("ResolveSet failure sent %d notices, want 1", notices)
	}
}

func TestConfigurationIsImmutable(t *testing.T) {
	cfg, err := Resolve(Level(6), nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	before := cfg.String()
	f := cfg.Filter()
	f[0] = Brute
	cfg.Strip()
	cfg.Deflate().Compression()[0] = 1
	if cfg.String() != before {
		t.Errorf("configuration changed through an accessor: %s", cfg)
	}
}

func TestKeysAllDecodable(t *testing.T) {
	if len(Keys) != 21 {
		t.Fatalf("len(Keys) = %d, want 21", len(Keys))
	}
	for _, key := range Keys {
		if key == "level" {
			continue
		}
		if _, ok := registry[key]; !ok {
			t.Errorf("key %q has no decoder", key)
		}
	}
	if len(registry) != len(Keys)-1 {
		t.Errorf("registry has %d decoders, want %d", len(registry), len(Keys)-1)
	}
}
