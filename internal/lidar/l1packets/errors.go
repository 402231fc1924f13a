package l1packets

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHeader means byte 0 of a candidate packet is not HeaderByte.
	ErrInvalidHeader = errors.New("l1packets: invalid packet header")

	// ErrInvalidLength means a byte slice handed to DecodeBytes is not exactly
	// PacketSize long.
	ErrInvalidLength = errors.New("l1packets: invalid packet length")

	// ErrShortRead means a header was found but the payload did not arrive in
	// full. The partial payload has been discarded.
	ErrShortRead = errors.New("l1packets: short read")

	// ErrScanLimit means no header was found within the configured number of
	// single-byte reads.
	ErrScanLimit = errors.New("l1packets: no header within scan limit")

	// ErrIdle means the source timed out with no data while scanning for a
	// header.
	ErrIdle = errors.New("l1packets: source idle")
)

// TransportError wraps a failure of the underlying byte source. It is fatal to
// a collection session.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Recoverable reports whether err only affects the current packet, meaning the
// caller should resynchronise and carry on.
func Recoverable(err error) bool {
	return errors.Is(err, ErrShortRead) ||
		errors.Is(err, ErrScanLimit) ||
		errors.Is(err, ErrIdle) ||
		errors.Is(err, ErrInvalidHeader) ||
		errors.Is(err, ErrInvalidLength)
}
