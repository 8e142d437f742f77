package engine

import (
	"fmt"
	"slices"
)

// MaxPreset is the most aggressive preset level.
const MaxPreset = 6

// Default returns the engine defaults, identical to preset level 2.
func Default() Options {
	none := InterlaceNone
	return Options{
		Filter:             []RowFilter{FilterNone, FilterSub, FilterEntropy, FilterBigrams},
		Interlace:          &none,
		BitDepthReduction:  true,
		ColorTypeReduction: true,
		PaletteReduction:   true,
		GrayscaleReduction: true,
		IDATRecoding:       true,
		Strip:              StripChunks{Mode: StripNone},
		Deflate:            Deflaters{Kind: DeflateLibdeflater, Level: 11},
		FastEvaluation:     true,
	}
}

// FromPreset builds the options for a preset level in [0, MaxPreset].
func FromPreset(level int) (Options, error) {
	if level < 0 || level > MaxPreset {
		return Options{}, fmt.Errorf("preset level %d out of range [0, %d]", level, MaxPreset)
	}
	o := Default()
	switch level {
	case 0:
		o.Filter = nil
		o.Deflate.Level = 5
	case 1:
		o.Filter = nil
		o.Deflate.Level = 10
	case 2:
	case 3:
		o.FastEvaluation = false
		o.Filter = []RowFilter{FilterNone, FilterBigrams, FilterBigEnt, FilterBrute}
	case 4:
		o.FastEvaluation = false
		o.Filter = []RowFilter{FilterNone, FilterBigrams, FilterBigEnt, FilterBrute}
		o.Deflate.Level = 12
	case 5:
		o.FastEvaluation = false
		o.Filter = []RowFilter{
			FilterNone, FilterSub, FilterUp, FilterMinSum,
			FilterEntropy, FilterBigrams, FilterBigEnt, FilterBrute,
		}
		o.Deflate.Level = 12
	case 6:
		o.FastEvaluation = false
		o.Filter = slices.Clone(Filters)
		o.Deflate.Level = 12
	}
	return o, nil
}
