package engine

import (
	"fmt"
)

type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindNotPNG
	KindTruncatedData
	KindInvalidData
	KindTimedOut
	KindAPNGNotSupported
	KindChunkMissing
	KindDeflatedDataTooLong
	KindInvalidDepthForType
	KindIncorrectDataLength
)

// PngError is the only error type returned by the engine.
type PngError struct {
	Kind ErrorKind

	Chunk    string // KindChunkMissing
	Size     int    // KindDeflatedDataTooLong, KindIncorrectDataLength (actual)
	Expected int    // KindIncorrectDataLength; -1 when the size overflows
	Depth    BitDepth
	Color    ColorKind
	Msg      string // KindOther
	Err      error
}

func (e *PngError) Error() string {
	switch e.Kind {
	case KindNotPNG:
		return "invalid header detected; not a PNG file"
	case KindTruncatedData:
		return "missing data in the file; the file is truncated"
	case KindInvalidData:
		return "invalid data found; unable to read PNG file"
	case KindTimedOut:
		return "timed out"
	case KindAPNGNotSupported:
		return "APNG files are not (yet) supported"
	case KindChunkMissing:
		return fmt.Sprintf("chunk %s missing or empty", e.Chunk)
	case KindDeflatedDataTooLong:
		return fmt.Sprintf("deflated data too long: %d", e.Size)
	case KindInvalidDepthForType:
		return fmt.Sprintf("invalid bit depth %d for color type %s", e.Depth, e.Color)
	case KindIncorrectDataLength:
		if e.Expected < 0 {
			return fmt.Sprintf("data length %d does not match the image size, which overflows", e.Size)
		}
		return fmt.Sprintf("data length %d does not match the expected length %d", e.Size, e.Expected)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Msg, e.Err)
		}
		return e.Msg
	}
}

func (e *PngError) Unwrap() error { return e.Err }

func errKind(k ErrorKind) *PngError { return &PngError{Kind: k} }

func errChunkMissing(name string) *PngError {
	return &PngError{Kind: KindChunkMissing, Chunk: name}
}

func errOther(msg string, err error) *PngError {
	return &PngError{Kind: KindOther, Msg: msg, Err: err}
}
