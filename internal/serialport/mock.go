package serialport

import (
	"errors"
	"io"
	"sync"
)

// ErrPortClosed is returned by TestablePort reads after Close.
var ErrPortClosed = errors.New("serial port closed")

type readStep struct {
	data []byte
	err  error
}

// TestablePort is a scripted Port for tests. Each queued step answers one or
// more Read calls: data steps are drained across as many reads as needed,
// timeout steps answer a single read with zero bytes, and error steps answer a
// single read with the error. Once the script is drained every read returns
// Drained (io.EOF unless changed).
type TestablePort struct {
	mu sync.Mutex

	steps []readStep

	// Drained is returned once all steps are consumed.
	Drained error

	// CloseError is returned by Close if set.
	CloseError error

	// ReadCalls records the number of Read calls.
	ReadCalls int

	// CloseCalls records the number of Close calls.
	CloseCalls int

	closed bool
}

// NewTestablePort creates an empty scripted port.
func NewTestablePort() *TestablePort {
	return &TestablePort{Drained: io.EOF}
}

// AddReadData queues bytes to be returned by subsequent reads.
func (t *TestablePort) AddReadData(data []byte) *TestablePort {
	t.mu.Lock()
	defer t.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	t.steps = append(t.steps, readStep{data: buf})
	return t
}

// AddTimeout queues a read that returns no data and no error, as a serial
// port does when its read timeout elapses.
func (t *TestablePort) AddTimeout() *TestablePort {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, readStep{})
	return t
}

// AddReadError queues a read that fails with err.
func (t *TestablePort) AddReadError(err error) *TestablePort {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, readStep{err: err})
	return t
}

// Read implements io.Reader.
func (t *TestablePort) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadCalls++

	if t.closed {
		return 0, ErrPortClosed
	}
	if len(t.steps) == 0 {
		return 0, t.Drained
	}

	step := &t.steps[0]
	if step.err != nil {
		err := step.err
		t.steps = t.steps[1:]
		return 0, err
	}
	if len(step.data) == 0 {
		t.steps = t.steps[1:]
		return 0, nil
	}

	n := copy(p, step.data)
	step.data = step.data[n:]
	if len(step.data) == 0 {
		t.steps = t.steps[1:]
	}
	return n, nil
}

// Close marks the port closed and counts the call.
func (t *TestablePort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.CloseCalls++
	t.closed = true
	return t.CloseError
}

// Closes returns the number of Close calls so far.
func (t *TestablePort) Closes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.CloseCalls
}

// Pending reports whether any scripted steps remain.
func (t *TestablePort) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.steps) > 0
}

// MockFactory implements Factory for testing.
type MockFactory struct {
	mu sync.Mutex

	// Port is returned from Open.
	Port Port

	// Error is returned by Open if set.
	Error error

	// OpenCalls records all Open calls.
	OpenCalls []MockOpenCall
}

// MockOpenCall records details of an Open call.
type MockOpenCall struct {
	Path string
	Opts PortOptions
}

// NewMockFactory creates a factory that hands out port.
func NewMockFactory(port Port) *MockFactory {
	return &MockFactory{Port: port}
}

// Open returns the configured port or error.
func (f *MockFactory) Open(path string, opts PortOptions) (Port, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.OpenCalls = append(f.OpenCalls, MockOpenCall{Path: path, Opts: opts})

	if f.Error != nil {
		return nil, f.Error
	}
	return f.Port, nil
}

// LastCall returns the most recent Open call, or nil if none.
func (f *MockFactory) LastCall() *MockOpenCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.OpenCalls) == 0 {
		return nil
	}
	return &f.OpenCalls[len(f.OpenCalls)-1]
}
