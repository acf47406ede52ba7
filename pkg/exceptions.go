package pkg

import "errors"

var (
	// Host I/O errors 💾
	ErrSourceUnreadable = errors.New("❌ source image could not be read")
	ErrOutputUnwritable = errors.New("❌ bundle could not be written")

	// Integrity errors 🔒
	ErrVerificationFailed = errors.New("❌ archive verification failed")
)
