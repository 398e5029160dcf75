// ABOUTME: Converter runs demo synthesis and file transcoding jobs
// ABOUTME: Reports progress at fixed steps and delivers WAV files to a Sink
package convert

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ion-space/spaceconvert/pkg/audio"
	"github.com/ion-space/spaceconvert/pkg/audio/decode"
	"github.com/ion-space/spaceconvert/pkg/audio/encode"
	"github.com/ion-space/spaceconvert/pkg/audio/resample"
	"github.com/ion-space/spaceconvert/pkg/audio/synth"
)

const wavContentType = "audio/wav"

// Config holds converter configuration
type Config struct {
	// Synthesizer renders demo audio. Nil uses synth.NewDefault().
	Synthesizer *synth.Synthesizer

	// TargetRate resamples transcoded audio. Zero keeps the source rate.
	TargetRate int

	// StepDelay pauses after each progress step so a UI can show it
	StepDelay time.Duration

	// Progress receives step updates. Nil discards them.
	Progress ProgressReporter

	// Sink receives the finished file. Required.
	Sink Sink
}

// Result describes a delivered file
type Result struct {
	JobID       string
	FileName    string
	ContentType string
	Size        int
	Duration    time.Duration
}

// Converter runs conversions
type Converter struct {
	config Config
}

// New creates a converter
func New(config Config) *Converter {
	if config.Synthesizer == nil {
		config.Synthesizer = synth.NewDefault()
	}
	if config.Progress == nil {
		config.Progress = ProgressFunc(func(int, string) {})
	}

	return &Converter{config: config}
}

// WithProgress returns a copy of the converter reporting to p
func (c *Converter) WithProgress(p ProgressReporter) *Converter {
	config := c.config
	config.Progress = p
	return New(config)
}

// WithSink returns a copy of the converter delivering to s
func (c *Converter) WithSink(s Sink) *Converter {
	config := c.config
	config.Sink = s
	return New(config)
}

// NewJobID returns a fresh job identifier
func NewJobID() string {
	return uuid.New().String()
}

// Demo synthesizes the placeholder chord and delivers it as <title>.wav
func (c *Converter) Demo(ctx context.Context, title string) (*Result, error) {
	return c.DemoJob(ctx, NewJobID(), title)
}

// DemoJob is Demo with a caller-chosen job ID
func (c *Converter) DemoJob(ctx context.Context, jobID, title string) (*Result, error) {
	log.Printf("Job %s: demo conversion for %q", jobID, title)

	if err := c.step(ctx, 20, StepFetching); err != nil {
		return nil, err
	}

	buf, err := c.config.Synthesizer.Synthesize()
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize audio: %w", err)
	}
	if err := c.step(ctx, 40, StepExtracting); err != nil {
		return nil, err
	}

	data, err := encode.EncodeWAV(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to encode WAV: %w", err)
	}
	if err := c.step(ctx, 60, StepConverting); err != nil {
		return nil, err
	}
	if err := c.step(ctx, 80, StepOptimizing); err != nil {
		return nil, err
	}

	return c.deliver(ctx, jobID, DemoFileName(title), data, buf)
}

// Transcode decodes src with the given codec, optionally resamples it and
// delivers it as a WAV file
func (c *Converter) Transcode(ctx context.Context, src io.Reader, codec, title string) (*Result, error) {
	return c.TranscodeJob(ctx, NewJobID(), src, codec, title)
}

// TranscodeJob is Transcode with a caller-chosen job ID
func (c *Converter) TranscodeJob(ctx context.Context, jobID string, src io.Reader, codec, title string) (*Result, error) {
	log.Printf("Job %s: transcoding %s input %q", jobID, codec, title)

	decoder, err := decode.New(audio.Format{Codec: codec})
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	if err := c.step(ctx, 20, StepReading); err != nil {
		return nil, err
	}

	buf, err := decoder.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", codec, err)
	}
	if err := c.step(ctx, 40, StepDecoding); err != nil {
		return nil, err
	}

	if c.config.TargetRate > 0 && buf.SampleRate != c.config.TargetRate {
		buf, err = resample.New(buf.SampleRate, c.config.TargetRate).Buffer(buf)
		if err != nil {
			return nil, fmt.Errorf("failed to resample: %w", err)
		}
	}
	if err := c.step(ctx, 60, StepResampling); err != nil {
		return nil, err
	}

	data, err := encode.EncodeWAV(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to encode WAV: %w", err)
	}
	if err := c.step(ctx, 80, StepEncoding); err != nil {
		return nil, err
	}

	return c.deliver(ctx, jobID, AttachmentName(title), data, buf)
}

func (c *Converter) deliver(ctx context.Context, jobID, name string, data []byte, buf *audio.Buffer) (*Result, error) {
	if c.config.Sink == nil {
		return nil, fmt.Errorf("no sink configured for job %s", jobID)
	}

	file := File{Name: name, ContentType: wavContentType, Data: data}
	if err := c.config.Sink.Deliver(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to deliver %s: %w", name, err)
	}

	c.config.Progress.Progress(100, StepComplete)
	log.Printf("Job %s: delivered %s (%d bytes)", jobID, name, len(data))

	return &Result{
		JobID:       jobID,
		FileName:    name,
		ContentType: wavContentType,
		Size:        len(data),
		Duration:    buf.Duration(),
	}, nil
}

// step reports progress, then waits StepDelay unless ctx ends first
func (c *Converter) step(ctx context.Context, percent int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.config.Progress.Progress(percent, text)

	if c.config.StepDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(c.config.StepDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
