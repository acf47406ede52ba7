package main

import (
	"errors"

	"github.com/provide-io/pwakit/pkg"
	perrors "github.com/provide-io/pwakit/pkg/pwa/errors"
)

// Exit codes for different error types
const (
	ExitSuccess            = 0
	ExitFailure            = 1
	ExitPanic              = 101
	ExitDecodeError        = 102
	ExitEncodeError        = 103
	ExitCapacityError      = 104
	ExitProtocolError      = 105
	ExitInvalidArgs        = 106
	ExitIOError            = 107
	ExitVerificationFailed = 108
)

var errInvalidArgs = errors.New("❌ invalid arguments")

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch perrors.KindOf(err) {
	case perrors.KindDecode:
		return ExitDecodeError
	case perrors.KindEncode:
		return ExitEncodeError
	case perrors.KindCapacity:
		return ExitCapacityError
	case perrors.KindProtocol:
		return ExitProtocolError
	}

	switch {
	case errors.Is(err, errInvalidArgs):
		return ExitInvalidArgs
	case errors.Is(err, pkg.ErrSourceUnreadable), errors.Is(err, pkg.ErrOutputUnwritable):
		return ExitIOError
	case errors.Is(err, pkg.ErrVerificationFailed):
		return ExitVerificationFailed
	default:
		return ExitFailure
	}
}
