package pngopt

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

const sampleOptions = `
level: 4
filter: [Up, Sub]
interlace: Adam7
strip: {keep: [sRGB, pHYs]}
deflate: {zlib: {compression: [8, 9], strategies: [0], window: 12}}
timeout: 1.5
force: true
`

func TestParseOptionsDocumentOrder(t *testing.T) {
	overrides, err := ParseOptions([]byte(sampleOptions))
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	var keys []string
	for _, o := range overrides {
		keys = append(keys, o.Key)
	}
	want := []string{"level", "filter", "interlace", "strip", "deflate", "timeout", "force"}
	if !slices.Equal(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}

	cfg, err := Resolve(nil, overrides, quiet())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := cfg.Filter(); !slices.Equal(got, []RowFilter{Sub, Up}) {
		t.Errorf("filter = %v, want [Sub Up]", got)
	}
	if mode, ok := cfg.Interlace(); !ok || mode != Adam7 {
		t.Errorf("interlace = %v, %v", mode, ok)
	}
	if got := cfg.Strip().String(); got != "keep:sRGB,pHYs" {
		t.Errorf("strip = %s", got)
	}
	if got := cfg.Deflate().String(); got != "zlib:8,9/0/12" {
		t.Errorf("deflate = %s", got)
	}
	if d, ok := cfg.Timeout(); !ok || d != 1500*time.Millisecond {
		t.Errorf("timeout = %v, %v", d, ok)
	}
	if !cfg.Force() {
		t.Error("force not set")
	}
	// Preset 4 turns fast evaluation off; nothing above turns it back on.
	if cfg.FastEvaluation() {
		t.Error("level keyword did not seed preset 4")
	}
}

func TestParseOptionsScalarForms(t *testing.T) {
	doc := `
interlace: null
strip: safe
deflate: zopfli:15
timeout: ~
`
	overrides, err := ParseOptions([]byte(doc))
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	cfg, err := Resolve(Level(2), overrides)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := cfg.Interlace(); ok {
		t.Error("null interlace should leave interlacing unchanged")
	}
	if cfg.Strip().String() != "safe" {
		t.Errorf("strip = %s", cfg.Strip())
	}
	if d := cfg.Deflate(); !d.IsZopfli() || d.Iterations() != 15 {
		t.Errorf("deflate = %s", d)
	}
	if _, ok := cfg.Timeout(); ok {
		t.Error("null timeout should clear the limit")
	}
}

func TestParseOptionsErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		cat  Category
		key  string
	}{
		{"unknown key", "colour: red\n", CategoryUnsupportedOption, "colour"},
		{"zopfli zero", "deflate: {zopfli: {iterations: 0}}\n", CategoryInvalidValue, "deflate"},
		{"bad tag", "strip: {strip: [tEXtx]}\n", CategoryInvalidValue, "strip"},
		{"bad interlace", "interlace: sideways\n", CategoryInvalidValue, "interlace"},
		{"bool type", "force: maybe\n", CategoryInvalidValue, "force"},
		{"not a mapping", "- level\n", CategoryInvalidOption, ""},
		{"syntax", "level: [\n", CategoryInvalidOption, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOptions([]byte(tt.doc))
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if e.Category != tt.cat {
				t.Errorf("category = %v, want %v (%v)", e.Category, tt.cat, err)
			}
			if e.Key != tt.key {
				t.Errorf("key = %q, want %q", e.Key, tt.key)
			}
		})
	}
}

func TestParseOptionsEmpty(t *testing.T) {
	overrides, err := ParseOptions(nil)
	if err != nil || len(overrides) != 0 {
		t.Errorf("ParseOptions(nil) = %v, %v", overrides, err)
	}
}

func TestLoadOptionsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pngopt.yaml")
	if err := os.WriteFile(path, []byte("level: 1\nstrip: all\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	overrides, err := LoadOptionsFile(path)
	if err != nil {
		t.Fatalf("LoadOptionsFile: %v", err)
	}
	if len(overrides) != 2 || overrides[1].Key != "strip" {
		t.Errorf("overrides = %v", overrides)
	}

	_, err = LoadOptionsFile(filepath.Join(dir, "missing.yaml"))
	if !errors.Is(err, ErrOther) || !strings.Contains(err.Error(), "missing.yaml") {
		t.Errorf("missing file err = %v", err)
	}
}
