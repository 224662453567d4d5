package acquire

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
)

// jpegQuality matches the original capture encoder (quality 0.95).
const jpegQuality = 95

// Payload is one binary image produced by a Source. Content is not
// validated here; the upload gateway owns validation.
type Payload struct {
	Data     []byte
	Filename string
}

// Source produces exactly one image payload per Acquire call.
type Source interface {
	Acquire() (Payload, error)
}

// FileSource reads an arbitrary user-chosen file as binary.
type FileSource struct {
	Path string
}

// Acquire reads the file contents.
func (s FileSource) Acquire() (Payload, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Payload{}, fmt.Errorf("read image file: %w", err)
	}
	return Payload{Data: data, Filename: filepath.Base(s.Path)}, nil
}

// FrameSource encodes a captured still frame as JPEG, the way the original
// client drew the live video frame to a canvas and exported it.
type FrameSource struct {
	Frame image.Image
	Name  string
}

// Acquire encodes the frame.
func (s FrameSource) Acquire() (Payload, error) {
	if s.Frame == nil {
		return Payload{}, fmt.Errorf("no frame captured")
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, s.Frame, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Payload{}, fmt.Errorf("encode frame: %w", err)
	}

	name := s.Name
	if name == "" {
		name = "capture.jpg"
	}
	return Payload{Data: buf.Bytes(), Filename: name}, nil
}
