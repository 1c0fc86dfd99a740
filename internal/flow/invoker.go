package flow

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linguaweave/linguaweave/internal/observe"
	"github.com/linguaweave/linguaweave/pkg/audio"
	"github.com/linguaweave/linguaweave/pkg/provider/image"
	"github.com/linguaweave/linguaweave/pkg/provider/llm"
	"github.com/linguaweave/linguaweave/pkg/provider/tts"
	"github.com/linguaweave/linguaweave/pkg/schema"
)

// Backends is the set of remote services an [Invoker] dispatches to. Any
// field may be nil; flows of that modality then fail with [ErrNoBackend].
type Backends struct {
	Text   llm.Provider
	Speech tts.Provider
	Image  image.Provider

	// TextName, SpeechName and ImageName label provider metrics.
	TextName   string
	SpeechName string
	ImageName  string
}

// Settings are invocation defaults that can change at runtime.
type Settings struct {
	// Temperature applies to text flows whose Spec leaves it zero.
	Temperature float64

	// Voice applies to speech flows whose Spec names none.
	Voice string

	// AudioFormat, when its SampleRate is set, is the format every speech
	// reply is converted to before it is wrapped as WAV.
	AudioFormat audio.Format
}

// Invoker runs flows. It holds no per-invocation state, so one Invoker serves
// any number of concurrent calls. Backends and settings are swapped
// atomically on configuration reload; an in-flight call keeps the snapshot it
// started with.
type Invoker struct {
	backends atomic.Pointer[Backends]
	settings atomic.Pointer[Settings]
	metrics  *observe.Metrics
}

// Option is a functional option for [NewInvoker].
type Option func(*Invoker)

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(inv *Invoker) { inv.metrics = m }
}

// WithSettings sets the initial invocation defaults.
func WithSettings(s Settings) Option {
	return func(inv *Invoker) { inv.settings.Store(&s) }
}

// NewInvoker returns an Invoker dispatching to b.
func NewInvoker(b Backends, opts ...Option) *Invoker {
	inv := &Invoker{}
	inv.backends.Store(&b)
	inv.settings.Store(&Settings{})
	for _, o := range opts {
		o(inv)
	}
	if inv.metrics == nil {
		inv.metrics = observe.DefaultMetrics()
	}
	return inv
}

// SetBackends replaces the backend set for subsequent invocations.
func (inv *Invoker) SetBackends(b Backends) { inv.backends.Store(&b) }

// Backends returns the current backend set.
func (inv *Invoker) Backends() Backends { return *inv.backends.Load() }

// SetSettings replaces the invocation defaults for subsequent invocations.
func (inv *Invoker) SetSettings(s Settings) { inv.settings.Store(&s) }

// Settings returns the current invocation defaults.
func (inv *Invoker) Settings() Settings { return *inv.settings.Load() }

// Invoke runs spec against req. The steps are strictly sequential: validate
// req against spec.Input, build the prompt, make exactly one backend call,
// then map the reply and validate it against spec.Output.
//
// req is never modified. The returned record is freshly allocated. Errors are
// always [*Error]. ctx is passed through to the backend unchanged.
func (inv *Invoker) Invoke(ctx context.Context, spec *Spec, req Record) (Record, error) {
	start := time.Now()
	ctx = observe.WithLogAttrs(ctx, "flow", spec.Name)
	ctx, span := observe.StartSpan(ctx, "flow "+spec.Name,
		trace.WithAttributes(
			attribute.String("flow.name", spec.Name),
			attribute.String("flow.modality", string(spec.Modality)),
		),
	)

	out, err := inv.invoke(ctx, spec, req)

	observe.EndSpan(span, err)
	kind := KindOf(err)
	inv.metrics.RecordFlow(ctx, spec.Name, kind, time.Since(start).Seconds())
	if err != nil {
		observe.Logger(ctx).Debug("flow failed", "kind", kind, "err", err)
		return nil, err
	}
	observe.Logger(ctx).Debug("flow completed", "duration", time.Since(start))
	return out, nil
}

func (inv *Invoker) invoke(ctx context.Context, spec *Spec, req Record) (Record, error) {
	in, err := schema.Validate(spec.Input, req)
	if err != nil {
		return nil, newError(spec.Name, ErrInputValidation, err)
	}

	text, err := spec.prompt(in)
	if err != nil {
		return nil, newError(spec.Name, ErrTemplate, err)
	}

	b := inv.backends.Load()
	set := inv.settings.Load()

	rep, err := inv.call(ctx, spec, b, set, in, text)
	if err != nil {
		return nil, err
	}
	return rep.toRecord(spec, set.AudioFormat)
}

// call performs the single remote request for spec's modality.
func (inv *Invoker) call(ctx context.Context, spec *Spec, b *Backends, set *Settings, in Record, text string) (reply, error) {
	switch spec.Modality {
	case ModalityText:
		if b.Text == nil {
			return nil, newError(spec.Name, ErrRemoteService, fmt.Errorf("%w for %s flows", ErrNoBackend, spec.Modality))
		}
		temp := spec.Temperature
		if temp == 0 {
			temp = set.Temperature
		}
		start := time.Now()
		resp, err := b.Text.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: spec.System,
			Messages:     []llm.Message{{Role: llm.RoleUser, Content: text}},
			Temperature:  temp,
			ResponseSchema: &llm.ResponseSchema{
				Name:        spec.Name,
				Schema:      spec.Output.JSONSchema(),
				Description: spec.Output.Describe(),
			},
		})
		inv.recordProvider(ctx, b.TextName, spec.Modality, err, start)
		if err != nil {
			return nil, newError(spec.Name, ErrRemoteService, err)
		}
		if resp == nil {
			return textReply{}, nil
		}
		return textReply{content: resp.Content}, nil

	case ModalitySpeech:
		if b.Speech == nil {
			return nil, newError(spec.Name, ErrRemoteService, fmt.Errorf("%w for %s flows", ErrNoBackend, spec.Modality))
		}
		voice := spec.Voice
		if voice == "" {
			voice = set.Voice
		}
		var lang string
		if spec.LanguageField != "" {
			lang, _ = in[spec.LanguageField].(string)
		}
		start := time.Now()
		sp, err := b.Speech.Synthesize(ctx, tts.Request{Text: text, Voice: voice, LanguageCode: lang})
		inv.recordProvider(ctx, b.SpeechName, spec.Modality, err, start)
		if err != nil {
			return nil, newError(spec.Name, ErrRemoteService, err)
		}
		return speechReply{speech: sp}, nil

	case ModalityImage:
		if b.Image == nil {
			return nil, newError(spec.Name, ErrRemoteService, fmt.Errorf("%w for %s flows", ErrNoBackend, spec.Modality))
		}
		start := time.Now()
		img, err := b.Image.Generate(ctx, image.Request{Prompt: text, AspectRatio: spec.AspectRatio})
		inv.recordProvider(ctx, b.ImageName, spec.Modality, err, start)
		if err != nil {
			return nil, newError(spec.Name, ErrRemoteService, err)
		}
		return imageReply{img: img}, nil
	}
	return nil, newError(spec.Name, ErrRemoteService, fmt.Errorf("%w for modality %q", ErrNoBackend, spec.Modality))
}

func (inv *Invoker) recordProvider(ctx context.Context, name string, m Modality, err error, start time.Time) {
	if name == "" {
		name = "unknown"
	}
	inv.metrics.RecordProvider(ctx, name, string(m), err, time.Since(start).Seconds())
}
