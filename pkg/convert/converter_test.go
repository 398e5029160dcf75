// ABOUTME: Tests for the conversion pipeline
// ABOUTME: Tests progress steps, delivery, transcoding and failure handling
package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ion-space/spaceconvert/pkg/audio"
	"github.com/ion-space/spaceconvert/pkg/audio/encode"
	"github.com/ion-space/spaceconvert/pkg/audio/synth"
)

// memorySink keeps delivered files
type memorySink struct {
	files []File
	err   error
}

func (s *memorySink) Deliver(ctx context.Context, file File) error {
	if s.err != nil {
		return s.err
	}
	s.files = append(s.files, file)
	return nil
}

type progressEvent struct {
	percent int
	text    string
}

func recordProgress(events *[]progressEvent) ProgressReporter {
	return ProgressFunc(func(percent int, text string) {
		*events = append(*events, progressEvent{percent, text})
	})
}

func TestDemo(t *testing.T) {
	var events []progressEvent
	sink := &memorySink{}
	c := New(Config{Progress: recordProgress(&events), Sink: sink})

	res, err := c.Demo(context.Background(), "Test Song")
	if err != nil {
		t.Fatalf("Demo() failed: %v", err)
	}

	if res.FileName != "test_song.wav" {
		t.Errorf("FileName = %q, want test_song.wav", res.FileName)
	}
	if res.Size != 882044 {
		t.Errorf("Size = %d, want 882044", res.Size)
	}
	if res.ContentType != "audio/wav" {
		t.Errorf("ContentType = %q, want audio/wav", res.ContentType)
	}
	if res.JobID == "" {
		t.Error("expected a job ID")
	}
	if res.Duration.Seconds() != 5 {
		t.Errorf("Duration = %v, want 5s", res.Duration)
	}

	if len(sink.files) != 1 {
		t.Fatalf("expected 1 delivered file, got %d", len(sink.files))
	}
	if string(sink.files[0].Data[0:4]) != "RIFF" {
		t.Error("delivered file is not a RIFF file")
	}

	expected := []progressEvent{
		{20, StepFetching},
		{40, StepExtracting},
		{60, StepConverting},
		{80, StepOptimizing},
		{100, StepComplete},
	}
	if len(events) != len(expected) {
		t.Fatalf("expected %d progress events, got %d: %v", len(expected), len(events), events)
	}
	for i := range expected {
		if events[i] != expected[i] {
			t.Errorf("event %d = %v, want %v", i, events[i], expected[i])
		}
	}
}

func TestDemoEncoderUnavailable(t *testing.T) {
	sink := &memorySink{}
	c := New(Config{Synthesizer: synth.New(nil, synth.DefaultParams()), Sink: sink})

	_, err := c.Demo(context.Background(), "x")
	if !errors.Is(err, audio.ErrEncoderUnavailable) {
		t.Fatalf("expected ErrEncoderUnavailable, got %v", err)
	}
	if len(sink.files) != 0 {
		t.Error("nothing should be delivered on failure")
	}
	if FallbackMessage(err) == "" {
		t.Error("expected a fallback message")
	}
}

func TestDemoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{Sink: &memorySink{}}).Demo(ctx, "x")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDemoSinkError(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}

	if _, err := New(Config{Sink: sink}).Demo(context.Background(), "x"); err == nil {
		t.Error("expected delivery error")
	}
}

func TestDemoNoSink(t *testing.T) {
	if _, err := New(Config{}).Demo(context.Background(), "x"); err == nil {
		t.Error("expected error without sink")
	}
}

func TestTranscodeWAVWithResample(t *testing.T) {
	src := &audio.Buffer{SampleRate: 22050, Data: [][]float64{make([]float64, 2205)}}
	for i := range src.Data[0] {
		src.Data[0][i] = 0.5
	}
	input, err := encode.EncodeWAV(src)
	if err != nil {
		t.Fatalf("EncodeWAV() failed: %v", err)
	}

	var events []progressEvent
	sink := &memorySink{}
	c := New(Config{TargetRate: 44100, Progress: recordProgress(&events), Sink: sink})

	res, err := c.Transcode(context.Background(), bytes.NewReader(input), "wav", "My Upload!")
	if err != nil {
		t.Fatalf("Transcode() failed: %v", err)
	}

	if res.FileName != "My Upload.wav" {
		t.Errorf("FileName = %q, want 'My Upload.wav'", res.FileName)
	}

	header, err := encode.ParseHeader(sink.files[0].Data)
	if err != nil {
		t.Fatalf("ParseHeader() failed: %v", err)
	}
	if header.SampleRate != 44100 || header.NumChannels != 1 {
		t.Errorf("output is %d Hz %d ch, want 44100 Hz mono", header.SampleRate, header.NumChannels)
	}
	if header.DataSize != 4410*2 {
		t.Errorf("DataSize = %d, want %d", header.DataSize, 4410*2)
	}

	if len(events) != 5 || events[4].percent != 100 {
		t.Errorf("unexpected progress events: %v", events)
	}
}

func TestTranscodeErrors(t *testing.T) {
	c := New(Config{Sink: &memorySink{}})

	if _, err := c.Transcode(context.Background(), bytes.NewReader(nil), "opus", "x"); err == nil {
		t.Error("expected error for unsupported codec")
	}
	if _, err := c.Transcode(context.Background(), bytes.NewReader([]byte("garbage")), "wav", "x"); err == nil {
		t.Error("expected error for invalid WAV")
	}
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink := &DirSink{Dir: dir}

	c := New(Config{Sink: sink})
	res, err := c.Demo(context.Background(), "Dir Test")
	if err != nil {
		t.Fatalf("Demo() failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, res.FileName))
	if err != nil {
		t.Fatalf("failed to read delivered file: %v", err)
	}
	if len(data) != res.Size {
		t.Errorf("file size = %d, want %d", len(data), res.Size)
	}
	if sink.LastPath != filepath.Join(dir, "dir_test.wav") {
		t.Errorf("LastPath = %q", sink.LastPath)
	}
}

func TestFallbackMessage(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{nil, ""},
		{ErrInvalidURL, "Invalid YouTube URL format!"},
		{context.Canceled, "Conversion cancelled."},
		{errors.New("boom"), "Conversion failed. Please try again."},
	}

	for _, tt := range tests {
		if got := FallbackMessage(tt.err); got != tt.expected {
			t.Errorf("FallbackMessage(%v) = %q, want %q", tt.err, got, tt.expected)
		}
	}
}
