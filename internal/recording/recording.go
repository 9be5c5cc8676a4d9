// Package recording reads and writes keypoint recordings: one JSON object
// per line, each holding a timestamp and a detector's raw keypoints.
package recording

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
	"github.com/mitchellnkeo/CheckMyForm/internal/session"
)

// maxLine bounds one recorded frame.
const maxLine = 1 << 20

// Frame is one line of a recording. Each keypoint is [x, y, confidence] in
// the detector's native order. It is also the body of the frames endpoint.
type Frame struct {
	TimestampMS *int64      `json:"timestamp_ms,omitempty"`
	Keypoints   [][]float64 `json:"keypoints"`
}

// FromSession converts a session frame to its recorded form.
func FromSession(f session.Frame) Frame {
	ms := f.At.UnixMilli()
	out := Frame{TimestampMS: &ms, Keypoints: make([][]float64, len(f.Keypoints))}
	for i, k := range f.Keypoints {
		out.Keypoints[i] = []float64{k.X, k.Y, k.Confidence}
	}
	return out
}

// Session converts the frame for submission. A missing timestamp is
// replaced by now.
func (f Frame) Session(now time.Time) (session.Frame, error) {
	out := session.Frame{At: now}
	if f.TimestampMS != nil {
		out.At = time.UnixMilli(*f.TimestampMS).UTC()
	}
	out.Keypoints = make([]pose.RawKeypoint, len(f.Keypoints))
	for i, k := range f.Keypoints {
		if len(k) != 3 {
			return session.Frame{}, fmt.Errorf("keypoint %d: want [x, y, confidence], got %d values", i, len(k))
		}
		out.Keypoints[i] = pose.RawKeypoint{X: k[0], Y: k[1], Confidence: k[2]}
	}
	return out, nil
}

// Reader reads frames from a recording.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	last    time.Time
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLine)
	return &Reader{scanner: s}
}

// Next returns the next frame, or io.EOF at the end of the recording.
// Blank lines are skipped. Frames without a timestamp follow the previous
// one by a thirtieth of a second; an unstamped first frame sits at the Unix
// epoch.
func (r *Reader) Next() (session.Frame, error) {
	for r.scanner.Scan() {
		r.line++
		data := r.scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			return session.Frame{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		next := time.UnixMilli(0).UTC()
		if !r.last.IsZero() {
			next = r.last.Add(time.Second / 30)
		}
		out, err := f.Session(next)
		if err != nil {
			return session.Frame{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		r.last = out.At
		return out, nil
	}
	if err := r.scanner.Err(); err != nil {
		return session.Frame{}, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return session.Frame{}, io.EOF
}

// ReadAll reads every remaining frame.
func (r *Reader) ReadAll() ([]session.Frame, error) {
	var out []session.Frame
	for {
		f, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
}

// Writer appends frames to a recording.
type Writer struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewWriter returns a Writer to w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	return &Writer{w: bw, enc: json.NewEncoder(bw)}
}

// Write appends one frame.
func (w *Writer) Write(f session.Frame) error {
	return w.enc.Encode(FromSession(f))
}

// Flush writes buffered frames to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
