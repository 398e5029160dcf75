// ABOUTME: Audio decoder package for multiple codec support
// ABOUTME: Provides Decoder interface and implementations for MP3, FLAC and WAV
// Package decode turns encoded audio files into float PCM buffers.
//
// Supports: MP3 (go-mp3), FLAC (mewkiz/flac), 16-bit PCM WAV.
//
// All decoders read a complete stream and return an audio.Buffer with
// samples scaled to [-1, 1], so any decoded file can be re-encoded with
// encode.EncodeWAV.
//
// Example:
//
//	decoder, err := decode.New(audio.Format{Codec: "mp3"})
//	buf, err := decoder.Decode(file)
package decode
