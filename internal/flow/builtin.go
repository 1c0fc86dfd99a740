package flow

import (
	"github.com/linguaweave/linguaweave/pkg/prompt"
	"github.com/linguaweave/linguaweave/pkg/schema"
)

// Names of the built-in flows.
const (
	GrammarCheck     = "grammar-check"
	VocabularyLesson = "vocabulary-lesson"
	Conversation     = "conversation"
	TextToSpeech     = "text-to-speech"
	ImageGeneration  = "image-generation"
)

// Languages accepted by the conversation and grammar flows.
var Languages = []string{"mandarin", "french"}

var grammarTemplate = prompt.MustParse(GrammarCheck, `You are an expert language tutor specializing in grammar.

You will check the grammar of the sentence provided, and correct it if necessary.

Language: {{{language}}}
Dialect: {{{dialect}}}
Sentence: {{{text}}}

You will provide the corrected sentence, and an explanation of the grammar rules that were violated.  The explanation should be tailored to a language learner.

Output the corrected sentence in the correctedText field, and the explanation in the explanation field.
`)

var vocabularyTemplate = prompt.MustParse(VocabularyLesson, `You are an AI vocabulary tutor, skilled in teaching {{language}} vocabulary related to the topic of {{topic}}.

Introduce new vocabulary words and phrases appropriate for the user's level. Provide example sentences and reinforcement exercises to help the user learn.

The user may already know some vocabulary: {{#if currentVocabulary}}{{{currentVocabulary}}}{{else}}None{{/if}}.

Output newVocabulary, exampleSentences, and reinforcementExercises.
`)

var conversationTemplate = prompt.MustParse(Conversation, `You are a language tutor specializing in {{{language}}} ({{{dialect}}}).
Your goal is to help the user practice conversations in this language.
The current topic is: {{{topic}}}.

User message: {{{userMessage}}}

Respond in the target language, and keep the conversation going. If the user makes a mistake, gently correct them and explain the correction.
If the user expresses that they are finished with the conversation, end the conversation gracefully.
`)

var flashcardTemplate = prompt.MustParse(ImageGeneration,
	`Generate a simple, clear, and vibrant flashcard-style image for the following concept: {{prompt}}. The image should be easy to understand for a language learner. Avoid text and complex scenes.`)

// Builtin returns fresh copies of the five learner flows.
func Builtin() []*Spec {
	return []*Spec{
		{
			Name:        GrammarCheck,
			Description: "Check and correct the grammar of a sentence.",
			Modality:    ModalityText,
			Input: schema.Schema{
				"text":     {Type: schema.String, Required: true, Description: "The sentence to check."},
				"language": {Type: schema.String, Required: true, Enum: Languages, Description: "The target language."},
				"dialect":  {Type: schema.String, Required: true, Description: "The dialect of the target language."},
			},
			Output: schema.Schema{
				"correctedText": {Type: schema.String, Required: true, Description: "The corrected sentence."},
				"explanation":   {Type: schema.String, Required: true, Description: "The explanation of the grammar rules."},
			},
			Template: grammarTemplate,
		},
		{
			Name:        VocabularyLesson,
			Description: "Teach new vocabulary for a topic with examples and exercises.",
			Modality:    ModalityText,
			Input: schema.Schema{
				"language":          {Type: schema.String, Required: true, Description: "The language to learn vocabulary in (e.g., Mandarin, French)."},
				"topic":             {Type: schema.String, Required: true, Description: "The specific topic for vocabulary learning (e.g., Greetings, Dining, Shopping, Travel, Business)."},
				"currentVocabulary": {Type: schema.StringList, Description: "The vocabulary the user already knows, if any."},
			},
			Output: schema.Schema{
				"newVocabulary":          {Type: schema.StringList, Required: true, Description: "New vocabulary words and phrases introduced in the lesson."},
				"exampleSentences":       {Type: schema.StringList, Required: true, Description: "Example sentences using the new vocabulary."},
				"reinforcementExercises": {Type: schema.StringList, Required: true, Description: "Exercises to reinforce the new vocabulary."},
			},
			Template: vocabularyTemplate,
		},
		{
			Name:        Conversation,
			Description: "Reply to a learner message as a conversation partner.",
			Modality:    ModalityText,
			Input: schema.Schema{
				"language":    {Type: schema.String, Required: true, Enum: Languages, Description: "The target language for the conversation (mandarin or french)."},
				"dialect":     {Type: schema.String, Required: true, Description: "The dialect of the target language."},
				"topic":       {Type: schema.String, Required: true, Description: "The topic of the conversation (e.g., greetings, dining, shopping)."},
				"userMessage": {Type: schema.String, Required: true, Description: "The user message to the chatbot."},
			},
			Output: schema.Schema{
				"aiResponse": {Type: schema.String, Required: true, Description: "The AI chatbot response."},
			},
			Template: conversationTemplate,
		},
		{
			Name:        TextToSpeech,
			Description: "Speak a text and return it as a WAV data URI.",
			Modality:    ModalitySpeech,
			Input: schema.Schema{
				"text":         {Type: schema.String, Required: true, Description: "The text to convert to speech."},
				"languageCode": {Type: schema.String, Description: "Optional BCP-47 language hint such as fr-FR."},
			},
			Output: schema.Schema{
				"audio": {Type: schema.String, Required: true, Description: "The WAV audio as a data URI (data:audio/wav;base64,...)."},
			},
			PromptField:   "text",
			LanguageField: "languageCode",
			MediaField:    "audio",
		},
		{
			Name:        ImageGeneration,
			Description: "Generate a flashcard-style image for a concept.",
			Modality:    ModalityImage,
			Input: schema.Schema{
				"prompt": {Type: schema.String, Required: true, Description: "The text prompt to generate an image from."},
			},
			Output: schema.Schema{
				"imageUrl": {Type: schema.String, Required: true, Description: "The image as a data URI (data:image/png;base64,...)."},
			},
			Template:    flashcardTemplate,
			AspectRatio: "1:1",
			MediaField:  "imageUrl",
		},
	}
}
