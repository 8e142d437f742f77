package pngopt

import (
	"fmt"
	"slices"
	"strings"

	"pngopt/internal/engine"
)

// RowFilter is a per-scanline filter strategy tried before compression.
type RowFilter int

const (
	NoOp RowFilter = iota
	Sub
	Up
	Average
	Paeth
	MinSum
	Entropy
	Bigrams
	BigEnt
	Brute
)

var rowFilterTable = []struct {
	filter RowFilter
	name   string
	native engine.RowFilter
}{
	{NoOp, "NoOp", engine.FilterNone},
	{Sub, "Sub", engine.FilterSub},
	{Up, "Up", engine.FilterUp},
	{Average, "Average", engine.FilterAverage},
	{Paeth, "Paeth", engine.FilterPaeth},
	{MinSum, "MinSum", engine.FilterMinSum},
	{Entropy, "Entropy", engine.FilterEntropy},
	{Bigrams, "Bigrams", engine.FilterBigrams},
	{BigEnt, "BigEnt", engine.FilterBigEnt},
	{Brute, "Brute", engine.FilterBrute},
}

// RowFilters returns every filter in registry order.
func RowFilters() []RowFilter {
	out := make([]RowFilter, len(rowFilterTable))
	for i, e := range rowFilterTable {
		out[i] = e.filter
	}
	return out
}

func (f RowFilter) String() string {
	for _, e := range rowFilterTable {
		if e.filter == f {
			return e.name
		}
	}
	return fmt.Sprintf("RowFilter(%d)", int(f))
}

// ParseRowFilter looks a filter up by its registry name. "None" is accepted for NoOp.
func ParseRowFilter(name string) (RowFilter, error) {
	if name == "None" {
		return NoOp, nil
	}
	for _, e := range rowFilterTable {
		if e.name == name {
			return e.filter, nil
		}
	}
	return 0, fmt.Errorf("unknown row filter %q", name)
}

func (f RowFilter) native() (engine.RowFilter, bool) {
	for _, e := range rowFilterTable {
		if e.filter == f {
			return e.native, true
		}
	}
	return 0, false
}

func rowFilterFromNative(n engine.RowFilter) (RowFilter, bool) {
	for _, e := range rowFilterTable {
		if e.native == n {
			return e.filter, true
		}
	}
	return 0, false
}

// Interlacing selects progressive (Adam7) or sequential output.
type Interlacing int

const (
	Off Interlacing = iota
	Adam7
)

var interlacingTable = []struct {
	mode   Interlacing
	name   string
	native engine.Interlacing
}{
	{Off, "Off", engine.InterlaceNone},
	{Adam7, "Adam7", engine.InterlaceAdam7},
}

func (i Interlacing) String() string {
	for _, e := range interlacingTable {
		if e.mode == i {
			return e.name
		}
	}
	return fmt.Sprintf("Interlacing(%d)", int(i))
}

func ParseInterlacing(name string) (Interlacing, error) {
	for _, e := range interlacingTable {
		if e.name == name {
			return e.mode, nil
		}
	}
	return 0, fmt.Errorf("unknown interlacing %q", name)
}

func (i Interlacing) native() (engine.Interlacing, bool) {
	for _, e := range interlacingTable {
		if e.mode == i {
			return e.native, true
		}
	}
	return 0, false
}

func interlacingFromNative(n engine.Interlacing) (Interlacing, bool) {
	for _, e := range interlacingTable {
		if e.native == n {
			return e.mode, true
		}
	}
	return 0, false
}

type noInstruction struct{}

// NoInstruction as an interlace value leaves the input's interlacing unchanged.
var NoInstruction = noInstruction{}

// StripChunks decides which ancillary chunks are removed. Critical chunks are
// never removed whatever the policy says.
type StripChunks struct {
	mode      engine.StripMode
	names     []string
	unordered bool
}

// Headers is the former name of StripChunks.
//
// Deprecated: use StripChunks.
type Headers = StripChunks

func StripNone() StripChunks { return StripChunks{mode: engine.StripNone} }

// StripSafe removes every chunk that does not affect rendering.
func StripSafe() StripChunks { return StripChunks{mode: engine.StripSafe} }

func StripAll() StripChunks { return StripChunks{mode: engine.StripAll} }

// StripList removes the named chunks.
func StripList(chunks Collection[string]) (StripChunks, error) {
	return chunkPolicy(engine.StripList, chunks)
}

// KeepList removes every chunk except the named ones.
func KeepList(chunks Collection[string]) (StripChunks, error) {
	return chunkPolicy(engine.StripKeep, chunks)
}

func chunkPolicy(mode engine.StripMode, chunks Collection[string]) (StripChunks, error) {
	names, unordered := collect(chunks)
	for _, n := range names {
		if err := validTag(n); err != nil {
			return StripChunks{}, &Error{Category: CategoryInvalidValue, Key: "chunks", Message: err.Error()}
		}
	}
	return StripChunks{mode: mode, names: names, unordered: unordered}, nil
}

// validTag accepts exactly four ASCII letters.
func validTag(tag string) error {
	if len(tag) != 4 {
		return fmt.Errorf("invalid chunk name %q: must be exactly 4 bytes", tag)
	}
	for i := 0; i < 4; i++ {
		c := tag[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return fmt.Errorf("invalid chunk name %q: must be ASCII letters", tag)
		}
	}
	return nil
}

// Chunks returns the names carried by a StripList or KeepList policy.
func (s StripChunks) Chunks() []string { return slices.Clone(s.names) }

func (s StripChunks) String() string {
	switch s.mode {
	case engine.StripNone:
		return "none"
	case engine.StripSafe:
		return "safe"
	case engine.StripAll:
		return "all"
	case engine.StripList:
		return "strip:" + strings.Join(s.names, ",")
	case engine.StripKeep:
		return "keep:" + strings.Join(s.names, ",")
	}
	return "unknown"
}

// ParseStripChunks reads the compact form produced by String: none, safe, all,
// strip:<names> or keep:<names> with comma separated names.
func ParseStripChunks(s string) (StripChunks, error) {
	kind, list, hasList := strings.Cut(s, ":")
	var names Seq[string]
	if hasList && list != "" {
		names = strings.Split(list, ",")
	}
	switch {
	case kind == "none" && !hasList:
		return StripNone(), nil
	case kind == "safe" && !hasList:
		return StripSafe(), nil
	case kind == "all" && !hasList:
		return StripAll(), nil
	case kind == "strip":
		return StripList(names)
	case kind == "keep":
		return KeepList(names)
	}
	return StripChunks{}, &Error{Category: CategoryInvalidValue, Key: "strip", Message: fmt.Sprintf("unknown strip policy %q", s)}
}

func (s StripChunks) native() engine.StripChunks {
	out := engine.StripChunks{Mode: s.mode}
	for _, n := range s.names {
		out.Names = append(out.Names, engine.NameOf(n))
	}
	return out
}

func stripFromNative(n engine.StripChunks) StripChunks {
	s := StripChunks{mode: n.Mode}
	for _, name := range n.Names {
		s.names = append(s.names, name.String())
	}
	return s
}
