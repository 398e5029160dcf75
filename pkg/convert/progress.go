// ABOUTME: Progress reporting and delivery collaborators
// ABOUTME: Defines ProgressReporter, Sink and the built-in implementations
package convert

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ion-space/spaceconvert/pkg/audio"
)

// Progress step texts shown while a demo conversion runs
const (
	StepFetching   = "Fetching video information..."
	StepExtracting = "Extracting audio stream..."
	StepConverting = "Converting to MP3..."
	StepOptimizing = "Optimizing audio quality..."
	StepComplete   = "Conversion complete!"
)

// Progress step texts for transcoding an uploaded file
const (
	StepReading    = "Reading source audio..."
	StepDecoding   = "Decoding audio stream..."
	StepResampling = "Resampling audio..."
	StepEncoding   = "Encoding WAV..."
)

// ProgressReporter receives percent complete (0-100) and a status line
type ProgressReporter interface {
	Progress(percent int, text string)
}

// ProgressFunc adapts a function to ProgressReporter
type ProgressFunc func(percent int, text string)

// Progress calls f
func (f ProgressFunc) Progress(percent int, text string) {
	f(percent, text)
}

// LogProgress writes progress lines to the standard logger
var LogProgress = ProgressFunc(func(percent int, text string) {
	log.Printf("[%3d%%] %s", percent, text)
})

// File is a finished conversion ready for download
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Sink receives finished files
type Sink interface {
	Deliver(ctx context.Context, file File) error
}

// DirSink writes files into a directory
type DirSink struct {
	Dir string

	// LastPath is the path of the most recently delivered file
	LastPath string
}

// Deliver writes the file, replacing any existing file with the same name
func (s *DirSink) Deliver(ctx context.Context, file File) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(s.Dir, filepath.Base(file.Name))
	if err := os.WriteFile(path, file.Data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	log.Printf("Saved %s (%d bytes)", path, len(file.Data))
	s.LastPath = path
	return nil
}

// FallbackMessage turns a conversion error into a line suitable for end users
func FallbackMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, audio.ErrEncoderUnavailable):
		return "Audio rendering is unavailable here. The converter service is temporarily unavailable."
	case errors.Is(err, audio.ErrInvalidBuffer):
		return "The audio could not be encoded. Please try a different file."
	case errors.Is(err, ErrInvalidURL):
		return "Invalid YouTube URL format!"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Conversion cancelled."
	default:
		return "Conversion failed. Please try again."
	}
}
