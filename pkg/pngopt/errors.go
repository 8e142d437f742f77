package pngopt

import (
	"errors"
	"fmt"

	"pngopt/internal/engine"
)

// Category classifies an Error so callers can branch without parsing messages.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryOther
	CategoryNotPNG
	CategoryTruncatedData
	CategoryInvalidData
	CategoryTimedOut
	CategoryAPNGNotSupported
	CategoryChunkMissing
	CategoryDeflatedDataTooLong
	CategoryInvalidDepthForType
	CategoryIncorrectDataLength

	// Raised before the engine is called.
	CategoryInvalidOption
	CategoryUnsupportedOption
	CategoryInvalidValue
)

func (c Category) String() string {
	switch c {
	case CategoryOther:
		return "other"
	case CategoryNotPNG:
		return "not png"
	case CategoryTruncatedData:
		return "truncated data"
	case CategoryInvalidData:
		return "invalid data"
	case CategoryTimedOut:
		return "timed out"
	case CategoryAPNGNotSupported:
		return "apng not supported"
	case CategoryChunkMissing:
		return "chunk missing"
	case CategoryDeflatedDataTooLong:
		return "deflated data too long"
	case CategoryInvalidDepthForType:
		return "invalid depth for type"
	case CategoryIncorrectDataLength:
		return "incorrect data length"
	case CategoryInvalidOption:
		return "invalid option"
	case CategoryUnsupportedOption:
		return "unsupported option"
	case CategoryInvalidValue:
		return "invalid value"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by this package.
type Error struct {
	Category Category
	// Key names the option or argument at fault, if any.
	Key     string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Category.String()
	}
	if e.Key != "" {
		return fmt.Sprintf("pngopt: %s: %s", e.Key, msg)
	}
	return "pngopt: " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same category, so the Err* sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Category == e.Category && t.Key == "" && t.Message == ""
}

var (
	ErrOther               = &Error{Category: CategoryOther}
	ErrNotPNG              = &Error{Category: CategoryNotPNG}
	ErrTruncatedData       = &Error{Category: CategoryTruncatedData}
	ErrInvalidData         = &Error{Category: CategoryInvalidData}
	ErrTimedOut            = &Error{Category: CategoryTimedOut}
	ErrAPNGNotSupported    = &Error{Category: CategoryAPNGNotSupported}
	ErrChunkMissing        = &Error{Category: CategoryChunkMissing}
	ErrDeflatedDataTooLong = &Error{Category: CategoryDeflatedDataTooLong}
	ErrInvalidDepthForType = &Error{Category: CategoryInvalidDepthForType}
	ErrIncorrectDataLength = &Error{Category: CategoryIncorrectDataLength}
	ErrInvalidOption       = &Error{Category: CategoryInvalidOption}
	ErrUnsupportedOption   = &Error{Category: CategoryUnsupportedOption}
	ErrInvalidValue        = &Error{Category: CategoryInvalidValue}
	ErrUnknown             = &Error{Category: CategoryUnknown}
)

const unknownMessage = "An unknown error occurred!"

// translate maps an engine failure onto Error. Kinds without an entry fall back to
// CategoryUnknown.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pe *engine.PngError
	if !errors.As(err, &pe) {
		return &Error{Category: CategoryUnknown, Message: unknownMessage, Err: err}
	}

	e := &Error{Err: err}
	switch pe.Kind {
	case engine.KindDeflatedDataTooLong:
		e.Category, e.Message = CategoryDeflatedDataTooLong, fmt.Sprintf("Deflated Data Too Long: %d", pe.Size)
	case engine.KindTimedOut:
		e.Category, e.Message = CategoryTimedOut, "Timed Out"
	case engine.KindNotPNG:
		e.Category, e.Message = CategoryNotPNG, "Not PNG"
	case engine.KindAPNGNotSupported:
		e.Category, e.Message = CategoryAPNGNotSupported, "APNG Not Supported"
	case engine.KindInvalidData:
		e.Category, e.Message = CategoryInvalidData, "Invalid Data"
	case engine.KindTruncatedData:
		e.Category, e.Message = CategoryTruncatedData, "Truncated Data"
	case engine.KindChunkMissing:
		e.Category, e.Message = CategoryChunkMissing, fmt.Sprintf("Chunk Missing: %s", pe.Chunk)
	case engine.KindOther:
		e.Category, e.Message = CategoryOther, fmt.Sprintf("Other: %s", pe.Error())
	case engine.KindInvalidDepthForType:
		e.Category, e.Message = CategoryInvalidDepthForType, pe.Error()
	case engine.KindIncorrectDataLength:
		e.Category, e.Message = CategoryIncorrectDataLength, pe.Error()
	default:
		e.Category, e.Message = CategoryUnknown, unknownMessage
	}
	return e
}
