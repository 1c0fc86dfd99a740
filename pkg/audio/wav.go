package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const wavHeaderSize = 44

// ToContainer wraps raw interleaved PCM in a WAV container and returns the
// complete file as standard base64. The output is a pure function of its
// arguments.
func ToContainer(raw []byte, channels, sampleRate, bitDepth int) (string, error) {
	wav, err := EncodeWAV(raw, Format{SampleRate: sampleRate, Channels: channels, BitDepth: bitDepth})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(wav), nil
}

// DataURI returns data as a base64 data URI with the given MIME type.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// EncodeWAV writes pcm behind a 44-byte RIFF/WAVE header describing f.
// pcm must contain whole frames.
func EncodeWAV(pcm []byte, f Format) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	align := f.BlockAlign()
	if len(pcm)%align != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d-byte frames", ErrInvalidFormat, len(pcm), align)
	}
	if uint64(len(pcm))+wavHeaderSize-8 > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes exceeds the RIFF size limit", ErrInvalidFormat, len(pcm))
	}
	byteRate := uint64(f.SampleRate) * uint64(align)
	if byteRate > math.MaxUint32 {
		return nil, fmt.Errorf("%w: byte rate %d overflows the header", ErrInvalidFormat, byteRate)
	}

	dataSize := len(pcm)
	buf := make([]byte, wavHeaderSize+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(wavHeaderSize-8+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(align))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(f.Bits()))

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[wavHeaderSize:], pcm)

	return buf, nil
}

// DecodeWAV walks the RIFF chunks of wav and returns the PCM payload of the
// data chunk together with the format from the fmt chunk. The returned slice
// aliases wav.
func DecodeWAV(wav []byte) ([]byte, Format, error) {
	if len(wav) < 12 {
		return nil, Format{}, errors.New("audio: WAV too short to be a RIFF file")
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, Format{}, errors.New("audio: missing RIFF/WAVE header")
	}

	var (
		f        Format
		foundFmt bool
	)
	offset := 12
	for offset+8 <= len(wav) {
		id := string(wav[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(wav[offset+4 : offset+8]))
		body := offset + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(wav) {
				return nil, Format{}, errors.New("audio: truncated fmt chunk")
			}
			if tag := binary.LittleEndian.Uint16(wav[body : body+2]); tag != 1 && tag != 0xFFFE {
				return nil, Format{}, fmt.Errorf("audio: unsupported WAV encoding %#x", tag)
			}
			f.Channels = int(binary.LittleEndian.Uint16(wav[body+2 : body+4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(wav[body+4 : body+8]))
			f.BitDepth = int(binary.LittleEndian.Uint16(wav[body+14 : body+16]))
			foundFmt = true
		case "data":
			if !foundFmt {
				return nil, Format{}, errors.New("audio: data chunk before fmt chunk")
			}
			end := body + size
			// Streaming encoders write 0 or 0xFFFFFFFF when the length is unknown.
			if size == 0 || end > len(wav) || end < body {
				end = len(wav)
			}
			return wav[body:end], f, nil
		}

		offset = body + size
		if size%2 != 0 {
			offset++
		}
	}
	return nil, Format{}, errors.New("audio: missing data chunk")
}
