// Package image defines the Provider interface for image-generation backends.
//
// Implementations must be safe for concurrent use.
package image

import "context"

// DefaultMIMEType is assumed when a backend does not report the image type.
const DefaultMIMEType = "image/png"

// Request is a single generation call.
type Request struct {
	// Prompt is the full instruction sent to the model.
	Prompt string

	// AspectRatio is an optional hint such as "1:1" or "16:9".
	AspectRatio string
}

// Image is a generated picture.
type Image struct {
	// Data holds the encoded image bytes. Empty when the backend returned
	// nothing, for example because the prompt was filtered.
	Data []byte

	// MIMEType of Data. Empty means DefaultMIMEType.
	MIMEType string
}

// Provider is the abstraction over any image-generation backend.
type Provider interface {
	// Generate issues exactly one request and returns the first image. A
	// response without an image is not an error; it yields an empty Image.
	Generate(ctx context.Context, req Request) (*Image, error)
}
