// ABOUTME: RIFF/WAVE header layout
// ABOUTME: Builds and parses the canonical 44-byte PCM header
package encode

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderSize is the size of the canonical PCM WAV header
const HeaderSize = 44

const (
	// AudioFormatPCM is the fmt chunk format tag for integer PCM
	AudioFormatPCM = 1

	fmtChunkSize  = 16
	bitsPerSample = 16
)

// ErrInvalidHeader is returned when bytes do not hold a canonical PCM WAV header
var ErrInvalidHeader = errors.New("invalid WAV header")

// Header holds the fields of a canonical PCM WAV header
type Header struct {
	ChunkSize     uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// NewHeader builds the header for length frames of 16-bit PCM
func NewHeader(channels, sampleRate, length int) Header {
	dataSize := uint32(length * channels * BytesPerSample)

	return Header{
		ChunkSize:     36 + dataSize,
		AudioFormat:   AudioFormatPCM,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * channels * BytesPerSample),
		BlockAlign:    uint16(channels * BytesPerSample),
		BitsPerSample: bitsPerSample,
		DataSize:      dataSize,
	}
}

// Bytes serializes the header
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	h.put(b)
	return b
}

func (h Header) put(b []byte) {
	copy(b[0:4], "RIFF")
	binary.LittleEndian.PutUint32(b[4:8], h.ChunkSize)
	copy(b[8:12], "WAVE")
	copy(b[12:16], "fmt ")
	binary.LittleEndian.PutUint32(b[16:20], fmtChunkSize)
	binary.LittleEndian.PutUint16(b[20:22], h.AudioFormat)
	binary.LittleEndian.PutUint16(b[22:24], h.NumChannels)
	binary.LittleEndian.PutUint32(b[24:28], h.SampleRate)
	binary.LittleEndian.PutUint32(b[28:32], h.ByteRate)
	binary.LittleEndian.PutUint16(b[32:34], h.BlockAlign)
	binary.LittleEndian.PutUint16(b[34:36], h.BitsPerSample)
	copy(b[36:40], "data")
	binary.LittleEndian.PutUint32(b[40:44], h.DataSize)
}

// ParseHeader reads a canonical 44-byte PCM header
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidHeader, HeaderSize, len(b))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return Header{}, fmt.Errorf("%w: missing RIFF/WAVE tags", ErrInvalidHeader)
	}
	if string(b[12:16]) != "fmt " || binary.LittleEndian.Uint32(b[16:20]) != fmtChunkSize {
		return Header{}, fmt.Errorf("%w: unsupported fmt chunk", ErrInvalidHeader)
	}
	if string(b[36:40]) != "data" {
		return Header{}, fmt.Errorf("%w: data chunk must follow fmt", ErrInvalidHeader)
	}

	h := Header{
		ChunkSize:     binary.LittleEndian.Uint32(b[4:8]),
		AudioFormat:   binary.LittleEndian.Uint16(b[20:22]),
		NumChannels:   binary.LittleEndian.Uint16(b[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(b[24:28]),
		ByteRate:      binary.LittleEndian.Uint32(b[28:32]),
		BlockAlign:    binary.LittleEndian.Uint16(b[32:34]),
		BitsPerSample: binary.LittleEndian.Uint16(b[34:36]),
		DataSize:      binary.LittleEndian.Uint32(b[40:44]),
	}

	if h.AudioFormat != AudioFormatPCM || h.BitsPerSample != bitsPerSample {
		return Header{}, fmt.Errorf("%w: only 16-bit PCM is supported (format %d, %d bits)",
			ErrInvalidHeader, h.AudioFormat, h.BitsPerSample)
	}
	if h.NumChannels == 0 || h.SampleRate == 0 {
		return Header{}, fmt.Errorf("%w: zero channels or sample rate", ErrInvalidHeader)
	}

	return h, nil
}
