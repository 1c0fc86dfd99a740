// Package audio turns raw PCM returned by speech backends into payloads a
// browser can play.
//
// The central operation is [ToContainer], which wraps interleaved
// little-endian PCM in a canonical RIFF/WAVE header and base64-encodes the
// result. [Convert] normalises 16-bit PCM between sample rates and channel
// layouts, and [DecodeWAV] extracts PCM from backends that already answer with
// a WAV file.
package audio

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat is returned when PCM metadata or payload cannot be
// represented in a WAV container.
var ErrInvalidFormat = errors.New("audio: invalid format")

// Format describes interleaved little-endian PCM.
type Format struct {
	SampleRate int
	Channels   int
	// BitDepth is the number of bits per sample. Zero means 16.
	BitDepth int
}

// Bits returns the effective bit depth.
func (f Format) Bits() int {
	if f.BitDepth == 0 {
		return 16
	}
	return f.BitDepth
}

// BlockAlign is the number of bytes in one frame (one sample per channel).
func (f Format) BlockAlign() int {
	return f.Channels * f.Bits() / 8
}

// Validate reports whether f can be written into a WAV header.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, f.SampleRate)
	}
	if f.Channels <= 0 || f.Channels > 0xFFFF {
		return fmt.Errorf("%w: channel count %d", ErrInvalidFormat, f.Channels)
	}
	switch f.Bits() {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: bit depth %d", ErrInvalidFormat, f.BitDepth)
	}
	return nil
}

// String returns e.g. "24000Hz mono 16-bit".
func (f Format) String() string {
	ch := "mono"
	if f.Channels == 2 {
		ch = "stereo"
	} else if f.Channels > 2 {
		ch = fmt.Sprintf("%dch", f.Channels)
	}
	return fmt.Sprintf("%dHz %s %d-bit", f.SampleRate, ch, f.Bits())
}
