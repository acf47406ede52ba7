// Package errors holds the failure taxonomy shared by every stage of the
// bundle pipeline. Callers distinguish failures with errors.Is against the
// sentinels below or with KindOf.
package errors

import (
	"errors"
	"fmt"
)

var (
	// Input errors 🖼️
	ErrDecode = errors.New("❌ source image could not be decoded")

	// Codec errors 🎨
	ErrEncode = errors.New("❌ image encoding failed")

	// Capacity errors 📦
	ErrCapacityExceeded = errors.New("❌ archive capacity exceeded")

	// Protocol errors 🔒
	ErrProtocol = errors.New("❌ archive protocol violation")

	ErrEntryOpen      = fmt.Errorf("%w: an entry is already open", ErrProtocol)
	ErrNoEntryOpen    = fmt.Errorf("%w: no entry is open", ErrProtocol)
	ErrDuplicatePath  = fmt.Errorf("%w: duplicate entry path", ErrProtocol)
	ErrEmptyPath      = fmt.Errorf("%w: empty entry path", ErrProtocol)
	ErrFinalized      = fmt.Errorf("%w: archive already finalized", ErrProtocol)
	ErrTooManyEntries = fmt.Errorf("%w: too many entries", ErrProtocol)
)

// Kind classifies a pipeline failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindDecode
	KindEncode
	KindCapacity
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindEncode:
		return "encode"
	case KindCapacity:
		return "capacity"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// KindOf reports which of the four pipeline failure kinds err belongs to.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrEncode):
		return KindEncode
	case errors.Is(err, ErrCapacityExceeded):
		return KindCapacity
	case errors.Is(err, ErrProtocol):
		return KindProtocol
	default:
		return KindUnknown
	}
}
