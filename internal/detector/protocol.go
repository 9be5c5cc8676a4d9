package detector

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
)

// The pose service reads frames as a 4-byte big-endian length followed by
// the JPEG bytes, and answers each with one JSON line.

// ErrService is wrapped by errors the pose service reports for a frame.
var ErrService = errors.New("pose service error")

// maxFrameSize bounds a single encoded frame.
const maxFrameSize = 32 << 20

func writeFrame(w io.Writer, data []byte) error {
	if len(data) > maxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds limit", len(data))
	}
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := w.Write(length); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

func readFrame(r io.Reader) ([]byte, error) {
	length := make([]byte, 4)
	if _, err := io.ReadFull(r, length); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(length)
	if n > maxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

// serviceResponse is one JSON line from the pose service. Landmarks is
// empty when nobody is in frame.
type serviceResponse struct {
	Landmarks []jsonLandmark `json:"landmarks"`
	Error     string         `json:"error,omitempty"`
}

type jsonLandmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

func parseResponse(line []byte) (*Detection, error) {
	var resp serviceResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrService, resp.Error)
	}
	if len(resp.Landmarks) == 0 {
		return nil, nil
	}

	d := &Detection{Keypoints: make([]pose.RawKeypoint, len(resp.Landmarks))}
	for i, l := range resp.Landmarks {
		d.Keypoints[i] = pose.RawKeypoint{X: l.X, Y: l.Y, Confidence: l.Visibility}
	}
	return d, nil
}
