// Package flow implements the schema-validated pass-through between learner
// actions and hosted generative models.
//
// A [Spec] declares one flow: its input and output [schema.Schema], how the
// prompt is built, and which kind of backend answers it. The [Invoker] runs a
// Spec in a fixed order: validate the request, build the prompt, make exactly
// one remote call, then map and validate the reply. Every failure surfaces as
// an [*Error] carrying one of the kind sentinels below.
package flow

import (
	"errors"
	"fmt"

	"github.com/linguaweave/linguaweave/pkg/prompt"
	"github.com/linguaweave/linguaweave/pkg/schema"
)

// Record is a flow request or response: a JSON-shaped object keyed by field
// name.
type Record = map[string]any

// Modality selects the backend family that answers a flow.
type Modality string

const (
	// ModalityText flows expect a structured JSON object from a text model.
	ModalityText Modality = "text"

	// ModalitySpeech flows expect PCM audio and return a WAV data URI.
	ModalitySpeech Modality = "speech"

	// ModalityImage flows expect encoded image bytes and return a data URI.
	ModalityImage Modality = "image"
)

// Spec is the static definition of a flow. Specs are built once at start-up
// and must not be modified after they are registered.
type Spec struct {
	// Name identifies the flow in the API, metrics and logs.
	Name string

	// Description is a one-line summary shown by the flow listing.
	Description string

	Modality Modality

	// Input and Output describe the request and response records.
	Input  schema.Schema
	Output schema.Schema

	// Template renders the prompt from the validated request. When nil the
	// prompt is the raw value of PromptField.
	Template *prompt.Template

	// PromptField names the input field used verbatim as the prompt when
	// Template is nil.
	PromptField string

	// System is an optional system instruction for text flows.
	System string

	// Temperature for text flows. Zero defers to the invoker settings.
	Temperature float64

	// Voice for speech flows. Empty defers to the invoker settings.
	Voice string

	// LanguageField optionally names an input field carrying a BCP-47
	// language hint for speech synthesis.
	LanguageField string

	// AspectRatio is an optional hint for image flows.
	AspectRatio string

	// MediaField names the output field that receives the data URI of a
	// speech or image flow.
	MediaField string
}

// Validate reports every structural problem in s. It is called by
// [NewRegistry] so that a template referencing an undeclared field fails at
// start-up rather than on the first request.
func (s *Spec) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	switch s.Modality {
	case ModalityText, ModalitySpeech, ModalityImage:
	default:
		errs = append(errs, fmt.Errorf("unknown modality %q", s.Modality))
	}
	if len(s.Output) == 0 {
		errs = append(errs, errors.New("output schema must declare at least one field"))
	}

	switch {
	case s.Template != nil:
		for _, f := range s.Template.Fields() {
			if !s.Input.Has(f) {
				errs = append(errs, fmt.Errorf("template %q references undeclared input field %q", s.Template.Name(), f))
			}
		}
	case s.PromptField != "":
		f, ok := s.Input[s.PromptField]
		if !ok || f.Type != schema.String || !f.Required {
			errs = append(errs, fmt.Errorf("prompt field %q must be a required string input", s.PromptField))
		}
	default:
		errs = append(errs, errors.New("either template or prompt field is required"))
	}

	if s.LanguageField != "" {
		if f, ok := s.Input[s.LanguageField]; !ok || f.Type != schema.String {
			errs = append(errs, fmt.Errorf("language field %q must be a string input", s.LanguageField))
		}
	}

	if s.Modality == ModalitySpeech || s.Modality == ModalityImage {
		if f, ok := s.Output[s.MediaField]; !ok || f.Type != schema.String {
			errs = append(errs, fmt.Errorf("media field %q must be a string output", s.MediaField))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("flow: spec %q: %w", s.Name, err)
	}
	return nil
}

// prompt builds the instruction text from a validated request.
func (s *Spec) prompt(in Record) (string, error) {
	if s.Template != nil {
		return s.Template.Render(in)
	}
	text, _ := in[s.PromptField].(string)
	return text, nil
}
