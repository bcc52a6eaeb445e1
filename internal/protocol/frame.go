package protocol

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
)

// FrameKind is the SSE event name of a frame.
type FrameKind string

const (
	FrameMessage FrameKind = "message"
	FrameError   FrameKind = "error"
	FrameEnd     FrameKind = "end"
)

// EndMarker is the data line of the terminal frame.
const EndMarker = "[DONE]"

// Frame is one unit of a streamed response.
type Frame struct {
	Kind FrameKind
	Data []byte
}

// DataFrame encodes v as a message frame.
func DataFrame(v any) (Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Frame{}, fmt.Errorf("encode frame data: %w", err)
	}
	return Frame{Kind: FrameMessage, Data: b}, nil
}

// ErrorFrame encodes e as an error frame.
func ErrorFrame(e *Error) Frame {
	b, err := json.Marshal(e)
	if err != nil {
		// Kind and Message are plain strings; this cannot fail in practice.
		b = []byte(`{"kind":"InternalError","message":"internal error"}`)
	}
	return Frame{Kind: FrameError, Data: b}
}

// EndFrame is the terminal frame. It carries no payload.
func EndFrame() Frame {
	return Frame{Kind: FrameEnd, Data: []byte(EndMarker)}
}

// Encode renders the frame as an SSE event record.
func (f Frame) Encode() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "event: %s\n", f.Kind)
	for _, line := range strings.Split(string(f.Data), "\n") {
		fmt.Fprintf(&buf, "data: %s\n", line)
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

// Err decodes the payload of an error frame.
func (f Frame) Err() (*Error, error) {
	if f.Kind != FrameError {
		return nil, fmt.Errorf("frame kind %q is not an error frame", f.Kind)
	}
	var e Error
	if err := json.Unmarshal(f.Data, &e); err != nil {
		return nil, fmt.Errorf("decode error frame: %w", err)
	}
	return &e, nil
}

// DecodeFrames reads SSE event records from r and calls fn for each frame
// until r is exhausted or fn returns an error. Comment lines are skipped.
func DecodeFrames(r io.Reader, fn func(Frame) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var (
		kind    FrameKind
		data    []string
		pending bool
	)
	flush := func() error {
		if !pending {
			return nil
		}
		if kind == "" {
			kind = FrameMessage
		}
		f := Frame{Kind: kind, Data: []byte(strings.Join(data, "\n"))}
		kind, data, pending = "", nil, false
		return fn(f)
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := flush(); err != nil {
				return err
			}
		case strings.HasPrefix(line, ":"):
			// keep-alive comment
		case strings.HasPrefix(line, "event:"):
			kind = FrameKind(strings.TrimSpace(strings.TrimPrefix(line, "event:")))
			pending = true
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			pending = true
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return flush()
}
