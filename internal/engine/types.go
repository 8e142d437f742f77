package engine

import (
	"slices"
	"time"
)

type RowFilter uint8

const (
	FilterNone RowFilter = iota
	FilterSub
	FilterUp
	FilterAverage
	FilterPaeth
	FilterMinSum
	FilterEntropy
	FilterBigrams
	FilterBigEnt
	FilterBrute
)

// Filters lists every filter discriminant the engine understands.
var Filters = []RowFilter{
	FilterNone, FilterSub, FilterUp, FilterAverage, FilterPaeth,
	FilterMinSum, FilterEntropy, FilterBigrams, FilterBigEnt, FilterBrute,
}

func (f RowFilter) String() string {
	switch f {
	case FilterNone:
		return "None"
	case FilterSub:
		return "Sub"
	case FilterUp:
		return "Up"
	case FilterAverage:
		return "Average"
	case FilterPaeth:
		return "Paeth"
	case FilterMinSum:
		return "MinSum"
	case FilterEntropy:
		return "Entropy"
	case FilterBigrams:
		return "Bigrams"
	case FilterBigEnt:
		return "BigEnt"
	case FilterBrute:
		return "Brute"
	default:
		return "unknown"
	}
}

// basic reports whether f is one of the five filter types stored in a scanline.
func (f RowFilter) basic() bool {
	return f <= FilterPaeth
}

type Interlacing uint8

const (
	InterlaceNone Interlacing = iota
	InterlaceAdam7
)

// Interlacings lists every interlacing discriminant the engine understands.
var Interlacings = []Interlacing{InterlaceNone, InterlaceAdam7}

func (i Interlacing) String() string {
	switch i {
	case InterlaceNone:
		return "None"
	case InterlaceAdam7:
		return "Adam7"
	default:
		return "unknown"
	}
}

// ChunkName is a four byte PNG chunk type.
type ChunkName [4]byte

func (n ChunkName) String() string { return string(n[:]) }

// Critical chunks have an upper-case first letter and are never stripped.
func (n ChunkName) Critical() bool { return n[0]&0x20 == 0 }

func NameOf(s string) ChunkName {
	var n ChunkName
	copy(n[:], s)
	return n
}

type StripMode uint8

const (
	StripNone StripMode = iota
	StripList
	StripSafe
	StripKeep
	StripAll
)

type StripChunks struct {
	Mode  StripMode
	Names []ChunkName
}

type DeflaterKind uint8

const (
	DeflateLibdeflater DeflaterKind = iota
	DeflateZlib
	DeflateZopfli
)

type Deflaters struct {
	Kind DeflaterKind

	// Zlib
	Compression []uint8
	Strategies  []uint8
	Window      uint8

	// Libdeflater
	Level uint8

	// Zopfli
	Iterations uint8
}

type Options struct {
	FixErrors          bool
	Force              bool
	Filter             []RowFilter
	Interlace          *Interlacing
	OptimizeAlpha      bool
	BitDepthReduction  bool
	ColorTypeReduction bool
	PaletteReduction   bool
	GrayscaleReduction bool
	IDATRecoding       bool
	Scale16            bool
	Strip              StripChunks
	Deflate            Deflaters
	FastEvaluation     bool
	Timeout            *time.Duration

	UseHeuristics bool
	Backup        bool
	Check         bool
	Pretend       bool
	PreserveAttrs bool
}

// Clone returns a deep copy so callers never share slices or pointers.
func (o Options) Clone() Options {
	c := o
	c.Filter = slices.Clone(o.Filter)
	if o.Interlace != nil {
		i := *o.Interlace
		c.Interlace = &i
	}
	c.Strip.Names = slices.Clone(o.Strip.Names)
	c.Deflate.Compression = slices.Clone(o.Deflate.Compression)
	c.Deflate.Strategies = slices.Clone(o.Deflate.Strategies)
	if o.Timeout != nil {
		t := *o.Timeout
		c.Timeout = &t
	}
	return c
}

type OutMode int

const (
	OutPath OutMode = iota
	OutInPlace
	OutNone
)

type InFile struct {
	Path string
}

type OutFile struct {
	Mode          OutMode
	Path          string
	PreserveAttrs bool
}
