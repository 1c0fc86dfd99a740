package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/linguaweave/linguaweave/pkg/audio"
	"github.com/linguaweave/linguaweave/pkg/provider/image"
	"github.com/linguaweave/linguaweave/pkg/provider/tts"
	"github.com/linguaweave/linguaweave/pkg/schema"
)

var (
	errEmptyReply = errors.New("model returned no content")
	errNoAudio    = errors.New("no audio in response")
	errNoImage    = errors.New("no image in response")
)

// reply is the raw result of the single remote call. The set of variants is
// closed: textReply, speechReply and imageReply.
type reply interface {
	toRecord(spec *Spec, target audio.Format) (Record, error)
}

type textReply struct{ content string }

type speechReply struct{ speech *tts.Speech }

type imageReply struct{ img *image.Image }

// toRecord parses the model text as a JSON object and validates it.
func (r textReply) toRecord(spec *Spec, _ audio.Format) (Record, error) {
	obj, err := parseObject(r.content)
	if err != nil {
		return nil, newError(spec.Name, ErrOutputValidation, err)
	}
	out, err := schema.Validate(spec.Output, obj)
	if err != nil {
		return nil, newError(spec.Name, ErrOutputValidation, err)
	}
	return out, nil
}

// toRecord normalises the PCM to target when set and wraps it as a WAV data
// URI.
func (r speechReply) toRecord(spec *Spec, target audio.Format) (Record, error) {
	if r.speech == nil || len(r.speech.PCM) == 0 {
		return nil, newError(spec.Name, ErrMediaGeneration, errNoAudio)
	}
	pcm, f := r.speech.PCM, r.speech.Format
	if target.SampleRate > 0 && (target.SampleRate != f.SampleRate || target.Channels != f.Channels) {
		converted, err := audio.Convert(pcm, f, target)
		if err != nil {
			return nil, newError(spec.Name, ErrMediaGeneration, err)
		}
		pcm, f = converted, target
	}
	enc, err := audio.ToContainer(pcm, f.Channels, f.SampleRate, f.Bits())
	if err != nil {
		return nil, newError(spec.Name, ErrMediaGeneration, err)
	}
	return validateMedia(spec, "data:audio/wav;base64,"+enc)
}

func (r imageReply) toRecord(spec *Spec, _ audio.Format) (Record, error) {
	if r.img == nil || len(r.img.Data) == 0 {
		return nil, newError(spec.Name, ErrMediaGeneration, errNoImage)
	}
	mime := r.img.MIMEType
	if mime == "" {
		mime = image.DefaultMIMEType
	}
	return validateMedia(spec, audio.DataURI(mime, r.img.Data))
}

func validateMedia(spec *Spec, uri string) (Record, error) {
	out, err := schema.Validate(spec.Output, Record{spec.MediaField: uri})
	if err != nil {
		return nil, newError(spec.Name, ErrOutputValidation, err)
	}
	return out, nil
}

// parseObject decodes a model reply into a JSON object. A surrounding
// Markdown code fence (```json ... ```) is tolerated.
func parseObject(content string) (Record, error) {
	s := strings.TrimSpace(content)
	if s == "" {
		return nil, errEmptyReply
	}
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		// Drop the info string ("json") on the opening fence line.
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[i+1:]
		} else {
			rest = ""
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "```"))
	}
	var obj Record
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, fmt.Errorf("reply is not a JSON object: %w", err)
	}
	if obj == nil {
		return nil, errors.New("reply is not a JSON object: null")
	}
	return obj, nil
}
