package l1packets

import (
	"errors"
	"io"
)

// DefaultMaxScanReads bounds the non-header bytes read while looking for a
// header in one call to Next.
const DefaultMaxScanReads = 4096

// State is the position of a Synchronizer in its framing cycle.
type State int

const (
	// StateScanning: discarding bytes until a header byte is read.
	StateScanning State = iota
	// StateFraming: header seen, reading the fixed-size payload.
	StateFraming
	// StateDecoded: a complete packet was handed to the caller for decoding.
	StateDecoded
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateFraming:
		return "framing"
	case StateDecoded:
		return "decoded"
	default:
		return "unknown"
	}
}

// SyncStats counts what a Synchronizer has seen.
type SyncStats struct {
	Packets        uint64 // complete packets returned
	ShortReads     uint64 // headers whose payload did not arrive in full
	BytesDiscarded uint64 // non-header bytes skipped while scanning
	EmptyReads     uint64 // scanning reads that timed out with no data
	ScanLimits     uint64 // calls that gave up without finding a header
}

// Synchronizer turns an unframed byte stream into RawPackets. It is not safe
// for concurrent use; one goroutine owns the source.
type Synchronizer struct {
	src          io.Reader
	maxScanReads int
	state        State
	stats        SyncStats
	one          [1]byte
}

// SyncOption configures a Synchronizer.
type SyncOption func(*Synchronizer)

// WithMaxScanReads overrides DefaultMaxScanReads. n <= 0 removes the bound.
func WithMaxScanReads(n int) SyncOption {
	return func(s *Synchronizer) {
		s.maxScanReads = n
	}
}

// NewSynchronizer creates a Synchronizer reading from src.
func NewSynchronizer(src io.Reader, opts ...SyncOption) *Synchronizer {
	s := &Synchronizer{
		src:          src,
		maxScanReads: DefaultMaxScanReads,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current framing state.
func (s *Synchronizer) State() State { return s.state }

// Stats returns a copy of the counters.
func (s *Synchronizer) Stats() SyncStats { return s.stats }

// Next scans for the next header byte one byte at a time, then requests the
// 46 payload bytes that follow it.
//
// It returns ErrShortRead when the payload does not arrive in full (the partial
// payload is dropped and the next call resumes scanning), ErrIdle as soon as a
// scanning read times out with no data, ErrScanLimit when no header turned up
// within the scan bound, io.EOF when a finite source is exhausted, and a
// *TransportError for any other source failure. A silent source therefore
// returns from Next once per read timeout.
func (s *Synchronizer) Next() (RawPacket, error) {
	var pkt RawPacket

	if err := s.scan(); err != nil {
		return pkt, err
	}

	s.state = StateFraming
	pkt[0] = HeaderByte
	n, err := s.fill(pkt[1:])
	if n < PayloadSize {
		s.state = StateScanning
		s.stats.ShortReads++
		opsf("incomplete packet: %d of %d payload bytes: %x", n, PayloadSize, pkt[1:1+n])
		if err != nil && !errors.Is(err, io.EOF) {
			return RawPacket{}, &TransportError{Op: "read", Err: err}
		}
		return RawPacket{}, ErrShortRead
	}

	s.state = StateDecoded
	s.stats.Packets++
	tracef("raw packet: %x", pkt[:])
	return pkt, nil
}

func (s *Synchronizer) scan() error {
	s.state = StateScanning
	discarded := 0
	for reads := 0; s.maxScanReads <= 0 || reads < s.maxScanReads; reads++ {
		n, err := s.src.Read(s.one[:])
		if n == 1 {
			if s.one[0] == HeaderByte {
				if discarded > 0 {
					diagf("resynchronised after discarding %d bytes", discarded)
				}
				return nil
			}
			discarded++
			s.stats.BytesDiscarded++
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return &TransportError{Op: "read", Err: err}
		}
		if n == 0 {
			s.stats.EmptyReads++
			return ErrIdle
		}
	}
	s.stats.ScanLimits++
	return ErrScanLimit
}

// fill reads into buf until it is full, the source times out with no data, or
// the source fails. It returns the number of bytes read.
func (s *Synchronizer) fill(buf []byte) (int, error) {
	got := 0
	for got < len(buf) {
		n, err := s.src.Read(buf[got:])
		got += n
		if err != nil {
			return got, err
		}
		if n == 0 {
			return got, nil
		}
	}
	return got, nil
}
