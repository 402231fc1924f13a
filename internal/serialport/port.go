// Package serialport provides the byte sources a LiDAR collection session reads
// from: a real serial device, a recorded capture file, and a scripted port for
// tests.
package serialport

import "io"

// Port is the minimal capability a collection session needs from a transport.
// Read may return fewer bytes than requested, including zero bytes with a nil
// error when a read timeout elapses with no data.
type Port interface {
	io.Reader
	io.Closer
}

// Factory opens ports. It exists so sessions can be driven by fakes in tests.
type Factory interface {
	// Open opens the port at path with the given options.
	Open(path string, opts PortOptions) (Port, error)
}
