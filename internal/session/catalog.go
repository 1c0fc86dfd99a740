package session

import "slices"

// Mode is the learner activity selected in the UI.
type Mode string

const (
	ModeConversation Mode = "Conversation"
	ModeGrammar      Mode = "Grammar"
	ModeVocabulary   Mode = "Vocabulary"
)

// Language is a selectable target language.
type Language struct {
	ID    string `json:"id"`
	Label string `json:"label"`

	// Dialects are listed in display order. The first one is selected when
	// the learner switches to this language.
	Dialects []string `json:"dialects"`

	// Locales maps each dialect to the BCP-47 tag passed to speech synthesis.
	Locales map[string]string `json:"locales"`
}

// Catalog lists every selectable language, dialect, topic and mode.
type Catalog struct {
	Languages []Language `json:"languages"`
	Topics    []string   `json:"topics"`
	Modes     []Mode     `json:"modes"`
	Defaults  Settings   `json:"defaults"`
}

// DefaultCatalog is the learner catalog served by the API.
var DefaultCatalog = Catalog{
	Languages: []Language{
		{
			ID:       "french",
			Label:    "French",
			Dialects: []string{"Metropolitan", "Québécois"},
			Locales:  map[string]string{"Metropolitan": "fr-FR", "Québécois": "fr-CA"},
		},
		{
			ID:       "mandarin",
			Label:    "Mandarin",
			Dialects: []string{"Beijing", "Taiwanese"},
			Locales:  map[string]string{"Beijing": "cmn-CN", "Taiwanese": "cmn-TW"},
		},
	},
	Topics: []string{"Greetings", "Dining", "Shopping", "Travel", "Business"},
	Modes:  []Mode{ModeConversation, ModeGrammar, ModeVocabulary},
	Defaults: Settings{
		Language: "french",
		Dialect:  "Metropolitan",
		Topic:    "Greetings",
		Mode:     ModeConversation,
	},
}

// Language returns the language with the given ID.
func (c Catalog) Language(id string) (Language, bool) {
	for _, l := range c.Languages {
		if l.ID == id {
			return l, true
		}
	}
	return Language{}, false
}

// HasDialect reports whether dialect belongs to language.
func (c Catalog) HasDialect(language, dialect string) bool {
	l, ok := c.Language(language)
	return ok && slices.Contains(l.Dialects, dialect)
}

// HasTopic reports whether topic is selectable.
func (c Catalog) HasTopic(topic string) bool { return slices.Contains(c.Topics, topic) }

// HasMode reports whether mode is selectable.
func (c Catalog) HasMode(mode Mode) bool { return slices.Contains(c.Modes, mode) }

// Locale returns the speech locale of a dialect, or "" when unknown.
func (c Catalog) Locale(language, dialect string) string {
	l, _ := c.Language(language)
	return l.Locales[dialect]
}
