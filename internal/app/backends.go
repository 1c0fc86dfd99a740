package app

import (
	"errors"
	"fmt"

	"github.com/linguaweave/linguaweave/internal/config"
	"github.com/linguaweave/linguaweave/internal/flow"
	"github.com/linguaweave/linguaweave/pkg/provider/image"
	"github.com/linguaweave/linguaweave/pkg/provider/llm"
	"github.com/linguaweave/linguaweave/pkg/provider/tts"
)

// BuildBackends instantiates the configured provider for every modality.
// Modalities with an empty provider name are left nil. All failures are
// reported together.
func BuildBackends(cfg *config.Config, reg *config.Registry) (flow.Backends, error) {
	var b flow.Backends
	var errs []error

	text, err := buildText(reg, cfg.Providers.Text)
	errs = append(errs, err)
	speech, err := buildSpeech(reg, cfg.Providers.Speech)
	errs = append(errs, err)
	img, err := buildImage(reg, cfg.Providers.Image)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return b, err
	}
	b.Text, b.TextName = text, cfg.Providers.Text.Name
	b.Speech, b.SpeechName = speech, cfg.Providers.Speech.Name
	b.Image, b.ImageName = img, cfg.Providers.Image.Name
	return b, nil
}

func buildText(reg *config.Registry, e config.ProviderEntry) (llm.Provider, error) {
	if e.Name == "" {
		return nil, nil
	}
	p, err := reg.CreateText(e)
	if err != nil {
		return nil, fmt.Errorf("app: text provider %q: %w", e.Name, err)
	}
	return p, nil
}

func buildSpeech(reg *config.Registry, e config.ProviderEntry) (tts.Provider, error) {
	if e.Name == "" {
		return nil, nil
	}
	p, err := reg.CreateSpeech(e)
	if err != nil {
		return nil, fmt.Errorf("app: speech provider %q: %w", e.Name, err)
	}
	return p, nil
}

func buildImage(reg *config.Registry, e config.ProviderEntry) (image.Provider, error) {
	if e.Name == "" {
		return nil, nil
	}
	p, err := reg.CreateImage(e)
	if err != nil {
		return nil, fmt.Errorf("app: image provider %q: %w", e.Name, err)
	}
	return p, nil
}
