package engine

import (
	"bytes"
	"slices"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"pngopt/pkg/imgutil"
)

var nameEXIF = NameOf("eXIf")

// displayChunks affect how the image is rendered and survive StripSafe.
var displayChunks = []ChunkName{
	NameOf("cICP"),
	NameOf("iCCP"),
	NameOf("sRGB"),
	NameOf("pHYs"),
	NameOf("gAMA"),
	NameOf("cHRM"),
}

// colorDependentChunks are only valid for the color type and depth they were written for.
var colorDependentChunks = []ChunkName{
	NameOf("bKGD"),
	NameOf("sBIT"),
	NameOf("hIST"),
}

func (s StripChunks) keeps(c Chunk) bool {
	if c.Name.Critical() {
		return true
	}
	switch s.Mode {
	case StripNone:
		return true
	case StripList:
		return !slices.Contains(s.Names, c.Name)
	case StripSafe:
		if c.Name == nameEXIF {
			return hasOrientation(c.Data)
		}
		return slices.Contains(displayChunks, c.Name)
	case StripKeep:
		return slices.Contains(s.Names, c.Name)
	case StripAll:
		return false
	default:
		return true
	}
}

func (s StripChunks) keepsName(name ChunkName) bool {
	return s.keeps(Chunk{Name: name})
}

func (s StripChunks) apply(chunks []Chunk) []Chunk {
	kept := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		if s.keeps(c) {
			kept = append(kept, c)
		}
	}
	return kept
}

// hasOrientation reports whether an eXIf payload carries an Orientation tag.
func hasOrientation(data []byte) bool {
	if kind, err := imgutil.DetectHeader(data); err != nil || kind != imgutil.KindTIFF {
		return false
	}
	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(bytes.NewReader(data), nil, true)
	if err != nil {
		return false
	}
	for _, tag := range tags {
		if tag.TagName == "Orientation" && !strings.Contains(tag.IfdPath, "GPS") {
			return true
		}
	}
	return false
}
