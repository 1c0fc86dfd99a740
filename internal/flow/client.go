package flow

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// GrammarRequest is the input of the grammar-check flow.
type GrammarRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Dialect  string `json:"dialect"`
}

// GrammarResult is the output of the grammar-check flow.
type GrammarResult struct {
	CorrectedText string `json:"correctedText"`
	Explanation   string `json:"explanation"`
}

// LessonRequest is the input of the vocabulary-lesson flow.
type LessonRequest struct {
	Language          string   `json:"language"`
	Topic             string   `json:"topic"`
	CurrentVocabulary []string `json:"currentVocabulary,omitempty"`
}

// LessonResult is the output of the vocabulary-lesson flow.
type LessonResult struct {
	NewVocabulary          []string `json:"newVocabulary"`
	ExampleSentences       []string `json:"exampleSentences"`
	ReinforcementExercises []string `json:"reinforcementExercises"`
}

// ConversationRequest is the input of the conversation flow.
type ConversationRequest struct {
	Language    string `json:"language"`
	Dialect     string `json:"dialect"`
	Topic       string `json:"topic"`
	UserMessage string `json:"userMessage"`
}

// ConversationResult is the output of the conversation flow.
type ConversationResult struct {
	AIResponse string `json:"aiResponse"`
}

// SpeechRequest is the input of the text-to-speech flow.
type SpeechRequest struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

// SpeechResult is the output of the text-to-speech flow.
type SpeechResult struct {
	// Audio is a data:audio/wav;base64 URI.
	Audio string `json:"audio"`
}

// ImageRequest is the input of the image-generation flow.
type ImageRequest struct {
	Prompt string `json:"prompt"`
}

// ImageResult is the output of the image-generation flow.
type ImageResult struct {
	// ImageURL is a data:image/...;base64 URI.
	ImageURL string `json:"imageUrl"`
}

// Client offers typed access to the built-in flows.
type Client struct {
	inv *Invoker
	reg *Registry
}

// NewClient returns a Client that looks flows up in reg and runs them on inv.
func NewClient(inv *Invoker, reg *Registry) *Client {
	return &Client{inv: inv, reg: reg}
}

// CheckGrammar runs the grammar-check flow.
func (c *Client) CheckGrammar(ctx context.Context, req GrammarRequest) (GrammarResult, error) {
	var out GrammarResult
	err := c.run(ctx, GrammarCheck, req, &out)
	return out, err
}

// VocabularyLesson runs the vocabulary-lesson flow.
func (c *Client) VocabularyLesson(ctx context.Context, req LessonRequest) (LessonResult, error) {
	var out LessonResult
	err := c.run(ctx, VocabularyLesson, req, &out)
	return out, err
}

// Converse runs the conversation flow.
func (c *Client) Converse(ctx context.Context, req ConversationRequest) (ConversationResult, error) {
	var out ConversationResult
	err := c.run(ctx, Conversation, req, &out)
	return out, err
}

// Speak runs the text-to-speech flow.
func (c *Client) Speak(ctx context.Context, req SpeechRequest) (SpeechResult, error) {
	var out SpeechResult
	err := c.run(ctx, TextToSpeech, req, &out)
	return out, err
}

// GenerateImage runs the image-generation flow.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (ImageResult, error) {
	var out ImageResult
	err := c.run(ctx, ImageGeneration, req, &out)
	return out, err
}

func (c *Client) run(ctx context.Context, name string, in, out any) error {
	spec, err := c.reg.Lookup(name)
	if err != nil {
		return err
	}
	rec := Record{}
	if err := decode(in, &rec); err != nil {
		return fmt.Errorf("flow: encode %s request: %w", name, err)
	}
	res, err := c.inv.Invoke(ctx, spec, rec)
	if err != nil {
		return err
	}
	if err := decode(res, out); err != nil {
		return fmt.Errorf("flow: decode %s response: %w", name, err)
	}
	return nil
}

// decode converts between structs and records using their json tags.
func decode(in, out any) error {
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}
	return d.Decode(in)
}
