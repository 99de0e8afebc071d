package http

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// Mode selects where response bytes go.
type Mode int

const (
	// ModeBuffer collects the full response in memory.
	ModeBuffer Mode = iota
	// ModeStream forwards bytes to a sink as they are received.
	ModeStream
)

func (m Mode) String() string {
	switch m {
	case ModeBuffer:
		return "buffer"
	case ModeStream:
		return "stream"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps "buffer" or "stream" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "buffer":
		return ModeBuffer, nil
	case "stream":
		return ModeStream, nil
	default:
		return ModeBuffer, fmt.Errorf("unknown response mode %q", s)
	}
}

// sink is what the engine's write callback feeds. The mode only decides the
// destination writer.
type sink struct {
	dst      io.Writer
	buf      *bytes.Buffer
	received int64
}

// newSink picks the destination for mode. Stream mode without a writer
// forwards to standard output.
func newSink(mode Mode, stream io.Writer) *sink {
	if mode == ModeStream {
		if stream == nil {
			stream = os.Stdout
		}
		return &sink{dst: stream}
	}
	buf := &bytes.Buffer{}
	return &sink{dst: buf, buf: buf}
}

func (s *sink) Write(p []byte) (int, error) {
	n, err := s.dst.Write(p)
	s.received += int64(n)
	return n, err
}

// bytes returns the buffered response, or nil when streaming.
func (s *sink) bytes() []byte {
	if s.buf == nil {
		return nil
	}
	return s.buf.Bytes()
}

// countingReader tracks how many body bytes the engine pulled.
type countingReader struct {
	r    io.Reader
	read int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	return n, err
}
