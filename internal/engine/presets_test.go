package engine

import (
	"reflect"
	"slices"
	"testing"
)

func TestFromPresetDefaultMatchesLevelTwo(t *testing.T) {
	got, err := FromPreset(2)
	if err != nil {
		t.Fatalf("FromPreset(2): %v", err)
	}
	if !reflect.DeepEqual(got, Default()) {
		t.Errorf("FromPreset(2) = %+v, want %+v", got, Default())
	}
}

func TestFromPresetTable(t *testing.T) {
	tests := []struct {
		level   int
		filters int
		fast    bool
		deflate uint8
	}{
		{0, 0, true, 5},
		{1, 0, true, 10},
		{2, 4, true, 11},
		{3, 4, false, 11},
		{4, 4, false, 12},
		{5, 8, false, 12},
		{6, 10, false, 12},
	}

	for _, tt := range tests {
		o, err := FromPreset(tt.level)
		if err != nil {
			t.Fatalf("FromPreset(%d): %v", tt.level, err)
		}
		if len(o.Filter) != tt.filters {
			t.Errorf("level %d: %d filters, want %d", tt.level, len(o.Filter), tt.filters)
		}
		if o.FastEvaluation != tt.fast {
			t.Errorf("level %d: FastEvaluation = %v, want %v", tt.level, o.FastEvaluation, tt.fast)
		}
		if o.Deflate.Kind != DeflateLibdeflater || o.Deflate.Level != tt.deflate {
			t.Errorf("level %d: deflate = %+v, want libdeflater %d", tt.level, o.Deflate, tt.deflate)
		}
		for i := 1; i < len(o.Filter); i++ {
			if o.Filter[i-1] >= o.Filter[i] {
				t.Errorf("level %d: filters not ascending: %v", tt.level, o.Filter)
			}
		}
	}
}

func TestFromPresetHighLevelsExtendDefaultFilters(t *testing.T) {
	base := Default().Filter
	for _, level := range []int{5, 6} {
		o, err := FromPreset(level)
		if err != nil {
			t.Fatalf("FromPreset(%d): %v", level, err)
		}
		for _, f := range base {
			if !slices.Contains(o.Filter, f) {
				t.Errorf("level %d drops default filter %v", level, f)
			}
		}
	}
	six, _ := FromPreset(MaxPreset)
	if !slices.Equal(six.Filter, Filters) {
		t.Errorf("level %d filters = %v, want all of %v", MaxPreset, six.Filter, Filters)
	}
}

func TestFromPresetOutOfRange(t *testing.T) {
	for _, level := range []int{-1, MaxPreset + 1} {
		if _, err := FromPreset(level); err == nil {
			t.Errorf("FromPreset(%d) succeeded, want error", level)
		}
	}
}

func TestOptionsCloneIsDeep(t *testing.T) {
	o := Default()
	c := o.Clone()
	c.Filter[0] = FilterBrute
	*c.Interlace = InterlaceAdam7
	if o.Filter[0] == FilterBrute || *o.Interlace == InterlaceAdam7 {
		t.Fatal("Clone shares state with the original")
	}
}
