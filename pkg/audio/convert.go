package audio

import (
	"encoding/binary"
	"fmt"
)

// Convert re-encodes 16-bit PCM from one format to another. Resampling uses
// linear interpolation and runs before channel conversion so that stereo to
// mono conversions resample half the data. When from and to are equal the
// input is returned unchanged.
//
// Only 16-bit PCM and mono/stereo layouts are supported.
func Convert(pcm []byte, from, to Format) ([]byte, error) {
	if err := from.Validate(); err != nil {
		return nil, fmt.Errorf("audio: convert source: %w", err)
	}
	if err := to.Validate(); err != nil {
		return nil, fmt.Errorf("audio: convert target: %w", err)
	}
	if from.Bits() != 16 || to.Bits() != 16 {
		return nil, fmt.Errorf("%w: conversion requires 16-bit PCM, got %s -> %s", ErrInvalidFormat, from, to)
	}
	if from.Channels > 2 || to.Channels > 2 {
		return nil, fmt.Errorf("%w: conversion supports mono and stereo only, got %s -> %s", ErrInvalidFormat, from, to)
	}
	if len(pcm)%from.BlockAlign() != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %s frames", ErrInvalidFormat, len(pcm), from)
	}
	if from.SampleRate == to.SampleRate && from.Channels == to.Channels {
		return pcm, nil
	}

	samples := decode16(pcm)
	channels := from.Channels

	if from.SampleRate != to.SampleRate {
		samples = resample(samples, channels, from.SampleRate, to.SampleRate)
	}
	switch {
	case channels == 1 && to.Channels == 2:
		samples = monoToStereo(samples)
	case channels == 2 && to.Channels == 1:
		samples = stereoToMono(samples)
	}
	return encode16(samples), nil
}

func decode16(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return out
}

func encode16(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// resample converts interleaved frames from srcRate to dstRate. The last
// source frame is held for interpolation past the end.
func resample(in []int16, channels, srcRate, dstRate int) []int16 {
	srcFrames := len(in) / channels
	if srcFrames == 0 {
		return nil
	}
	dstFrames := int(int64(srcFrames) * int64(dstRate) / int64(srcRate))
	out := make([]int16, dstFrames*channels)
	ratio := float64(srcRate) / float64(dstRate)

	for i := range dstFrames {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)
		next := idx + 1
		if next >= srcFrames {
			next = srcFrames - 1
		}
		for c := range channels {
			s0 := float64(in[idx*channels+c])
			s1 := float64(in[next*channels+c])
			out[i*channels+c] = int16(s0*(1-frac) + s1*frac)
		}
	}
	return out
}

func monoToStereo(in []int16) []int16 {
	out := make([]int16, len(in)*2)
	for i, s := range in {
		out[i*2] = s
		out[i*2+1] = s
	}
	return out
}

// stereoToMono averages each L/R pair. The int32 sum cannot overflow and the
// average always fits in int16.
func stereoToMono(in []int16) []int16 {
	out := make([]int16, len(in)/2)
	for i := range out {
		out[i] = int16((int32(in[i*2]) + int32(in[i*2+1])) / 2)
	}
	return out
}
