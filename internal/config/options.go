package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeOptions decodes e.Options into v, which must be a pointer to a struct
// with mapstructure tags. Scalars are converted leniently ("30s" to a
// time.Duration, "1" to an int) and unknown keys are rejected so typos in the
// config file surface at startup.
func (e ProviderEntry) DecodeOptions(v any) error {
	if len(e.Options) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           v,
	})
	if err != nil {
		return fmt.Errorf("config: provider %q options: %w", e.Name, err)
	}
	if err := dec.Decode(e.Options); err != nil {
		return fmt.Errorf("config: provider %q options: %w", e.Name, err)
	}
	return nil
}
