// Package tts defines the Provider interface for text-to-speech backends.
//
// A TTS provider wraps a speech synthesis service (Gemini speech generation,
// OpenAI audio, ElevenLabs, a local Coqui server) and returns the complete
// utterance as raw PCM together with its format. Turning that PCM into a
// playable container is the caller's job.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"

	"github.com/linguaweave/linguaweave/pkg/audio"
)

// Voice describes a voice offered by a backend.
type Voice struct {
	// ID is the provider-specific voice identifier passed back in Request.Voice.
	ID string

	// Name is the human-readable voice name.
	Name string

	// Provider identifies which backend this voice belongs to.
	Provider string

	// Metadata holds provider-specific attributes (gender, accent, language, ...).
	Metadata map[string]string
}

// Request is a single synthesis call.
type Request struct {
	// Text is spoken verbatim. An empty string is forwarded as-is; backends
	// decide whether that yields audio.
	Text string

	// Voice is a provider-specific voice ID. Empty selects the backend default.
	Voice string

	// LanguageCode is an optional BCP-47 hint such as "fr-FR" or "cmn-CN".
	LanguageCode string
}

// Speech is a synthesized utterance.
type Speech struct {
	// PCM is interleaved little-endian sample data. It is empty when the
	// backend answered without audio.
	PCM []byte

	// Format describes PCM.
	Format audio.Format
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize issues exactly one synthesis request and returns the
	// resulting audio. A response without audio is not an error; it yields a
	// Speech with empty PCM.
	Synthesize(ctx context.Context, req Request) (*Speech, error)

	// ListVoices returns the voices available from this provider.
	ListVoices(ctx context.Context) ([]Voice, error)
}
