// Package session holds the per-learner state behind the API: the selected
// language, dialect, topic and mode, the conversation history and the current
// vocabulary lesson.
//
// A [Session] dispatches learner actions to the flow layer. Its mutex guards
// only local state and is never held across a remote call; a reply that
// arrives after the learner changed language, dialect or topic is discarded
// with [ErrStale]. A failed flow leaves the session unchanged.
package session

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/linguaweave/linguaweave/internal/flow"
	"github.com/linguaweave/linguaweave/internal/observe"
)

// Flows is the subset of the typed flow client a Session uses.
type Flows interface {
	CheckGrammar(ctx context.Context, req flow.GrammarRequest) (flow.GrammarResult, error)
	VocabularyLesson(ctx context.Context, req flow.LessonRequest) (flow.LessonResult, error)
	Converse(ctx context.Context, req flow.ConversationRequest) (flow.ConversationResult, error)
	Speak(ctx context.Context, req flow.SpeechRequest) (flow.SpeechResult, error)
	GenerateImage(ctx context.Context, req flow.ImageRequest) (flow.ImageResult, error)
}

var _ Flows = (*flow.Client)(nil)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the conversation history. Messages are never
// modified after they are appended.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Settings is the learner's current selection.
type Settings struct {
	Language string `json:"language"`
	Dialect  string `json:"dialect"`
	Topic    string `json:"topic"`
	Mode     Mode   `json:"mode"`
}

// Update is a partial settings change. Nil fields are left as they are.
type Update struct {
	Language *string `json:"language,omitempty"`
	Dialect  *string `json:"dialect,omitempty"`
	Topic    *string `json:"topic,omitempty"`
	Mode     *Mode   `json:"mode,omitempty"`
}

// Lesson is the last successful vocabulary lesson.
type Lesson struct {
	flow.LessonResult

	// Known accumulates the vocabulary of every lesson generated for the
	// current language and topic. It is sent with the next lesson request.
	Known []string `json:"knownVocabulary"`

	GeneratedAt time.Time `json:"generatedAt"`
}

func (l *Lesson) clone() *Lesson {
	if l == nil {
		return nil
	}
	c := *l
	c.NewVocabulary = slices.Clone(l.NewVocabulary)
	c.ExampleSentences = slices.Clone(l.ExampleSentences)
	c.ReinforcementExercises = slices.Clone(l.ReinforcementExercises)
	c.Known = slices.Clone(l.Known)
	return &c
}

// Snapshot is a point-in-time copy of a session's state.
type Snapshot struct {
	ID         string    `json:"id"`
	Settings   Settings  `json:"settings"`
	History    []Message `json:"history"`
	Lesson     *Lesson   `json:"lesson,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
}

// Session is the state of one learner. All methods are safe for concurrent
// use.
type Session struct {
	id      string
	flows   Flows
	catalog Catalog
	metrics *observe.Metrics
	now     func() time.Time
	created time.Time

	mu         sync.Mutex
	settings   Settings
	history    []Message
	lesson     *Lesson
	known      []string
	sending    bool
	lastActive time.Time

	// convGen and lessonGen count the settings changes that invalidate an
	// in-flight conversation turn or lesson respectively.
	convGen   uint64
	lessonGen uint64
}

func newSession(id string, flows Flows, catalog Catalog, metrics *observe.Metrics, now func() time.Time) *Session {
	t := now()
	return &Session{
		id:         id,
		flows:      flows,
		catalog:    catalog,
		metrics:    metrics,
		now:        now,
		created:    t,
		settings:   catalog.Defaults,
		lastActive: t,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Settings returns the current selection.
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetLanguage switches the target language. The dialect resets to the
// language's first dialect; history and lesson are cleared.
func (s *Session) SetLanguage(language string) error {
	_, err := s.Apply(Update{Language: &language})
	return err
}

// SetDialect switches the dialect of the current language and clears the
// history.
func (s *Session) SetDialect(dialect string) error {
	_, err := s.Apply(Update{Dialect: &dialect})
	return err
}

// SetTopic switches the topic and clears history and lesson.
func (s *Session) SetTopic(topic string) error {
	_, err := s.Apply(Update{Topic: &topic})
	return err
}

// SetMode switches the learner activity. History and lesson are kept.
func (s *Session) SetMode(mode Mode) error {
	_, err := s.Apply(Update{Mode: &mode})
	return err
}

// Apply validates and applies u atomically. Nothing changes when any field
// is invalid. Setting a field to its current value is a no-op.
func (s *Session) Apply(u Update) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	if u.Language != nil && *u.Language != next.Language {
		l, ok := s.catalog.Language(*u.Language)
		if !ok {
			return s.settings, fmt.Errorf("%w: unknown language %q", ErrInvalidSelection, *u.Language)
		}
		next.Language = l.ID
		next.Dialect = l.Dialects[0]
	}
	if u.Dialect != nil {
		if !s.catalog.HasDialect(next.Language, *u.Dialect) {
			return s.settings, fmt.Errorf("%w: dialect %q is not offered for %s", ErrInvalidSelection, *u.Dialect, next.Language)
		}
		next.Dialect = *u.Dialect
	}
	if u.Topic != nil {
		if !s.catalog.HasTopic(*u.Topic) {
			return s.settings, fmt.Errorf("%w: unknown topic %q", ErrInvalidSelection, *u.Topic)
		}
		next.Topic = *u.Topic
	}
	if u.Mode != nil {
		if !s.catalog.HasMode(*u.Mode) {
			return s.settings, fmt.Errorf("%w: unknown mode %q", ErrInvalidSelection, *u.Mode)
		}
		next.Mode = *u.Mode
	}

	prev := s.settings
	s.settings = next
	s.lastActive = s.now()

	if next.Language != prev.Language || next.Dialect != prev.Dialect || next.Topic != prev.Topic {
		s.history = nil
		s.convGen++
	}
	if next.Language != prev.Language || next.Topic != prev.Topic {
		s.lesson = nil
		s.known = nil
		s.lessonGen++
	}
	return next, nil
}

// History returns a copy of the conversation in submission order.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// SendMessage runs one conversation turn. On success the learner message
// and the tutor reply are appended together and returned; an empty reply
// appends only the learner message. On any failure the history is left
// unchanged.
func (s *Session) SendMessage(ctx context.Context, text string) ([]Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.sending = true
	gen := s.convGen
	st := s.settings
	s.lastActive = s.now()
	s.mu.Unlock()

	res, err := s.flows.Converse(ctx, flow.ConversationRequest{
		Language:    st.Language,
		Dialect:     st.Dialect,
		Topic:       st.Topic,
		UserMessage: text,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false
	s.lastActive = s.now()

	if err != nil {
		observe.Logger(observe.WithLogAttrs(ctx, "session_id", s.id)).Warn("conversation turn failed", "error", err)
		return nil, fmt.Errorf("session: send message: %w", err)
	}
	if gen != s.convGen {
		return nil, ErrStale
	}

	at := s.now()
	added := []Message{{Role: RoleUser, Content: text, At: at}}
	if res.AIResponse != "" {
		added = append(added, Message{Role: RoleAssistant, Content: res.AIResponse, At: at})
	}
	s.history = append(s.history, added...)
	for _, m := range added {
		s.metrics.RecordSessionMessage(ctx, m.Role)
	}
	return slices.Clone(added), nil
}

// CheckGrammar checks text in the current language and dialect.
func (s *Session) CheckGrammar(ctx context.Context, text string) (flow.GrammarResult, error) {
	if strings.TrimSpace(text) == "" {
		return flow.GrammarResult{}, ErrEmptyMessage
	}
	st := s.touch()
	res, err := s.flows.CheckGrammar(ctx, flow.GrammarRequest{Text: text, Language: st.Language, Dialect: st.Dialect})
	if err != nil {
		return flow.GrammarResult{}, fmt.Errorf("session: check grammar: %w", err)
	}
	return res, nil
}

// GenerateLesson requests a new vocabulary lesson for the current language
// and topic, passing the accumulated known vocabulary. The current lesson is
// replaced only on success.
func (s *Session) GenerateLesson(ctx context.Context) (*Lesson, error) {
	s.mu.Lock()
	gen := s.lessonGen
	st := s.settings
	known := slices.Clone(s.known)
	s.lastActive = s.now()
	s.mu.Unlock()

	res, err := s.flows.VocabularyLesson(ctx, flow.LessonRequest{
		Language:          st.Language,
		Topic:             st.Topic,
		CurrentVocabulary: known,
	})
	if err != nil {
		return nil, fmt.Errorf("session: generate lesson: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.lessonGen {
		return nil, ErrStale
	}
	for _, w := range res.NewVocabulary {
		if !slices.Contains(s.known, w) {
			s.known = append(s.known, w)
		}
	}
	s.lesson = &Lesson{LessonResult: res, Known: slices.Clone(s.known), GeneratedAt: s.now()}
	return s.lesson.clone(), nil
}

// Lesson returns a copy of the current lesson, or nil when none exists.
func (s *Session) Lesson() *Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lesson.clone()
}

// Speak synthesizes text in the locale of the current dialect.
func (s *Session) Speak(ctx context.Context, text string) (flow.SpeechResult, error) {
	if strings.TrimSpace(text) == "" {
		return flow.SpeechResult{}, ErrEmptyMessage
	}
	st := s.touch()
	res, err := s.flows.Speak(ctx, flow.SpeechRequest{Text: text, LanguageCode: s.catalog.Locale(st.Language, st.Dialect)})
	if err != nil {
		return flow.SpeechResult{}, fmt.Errorf("session: speak: %w", err)
	}
	return res, nil
}

// Visualize generates a flashcard image for a vocabulary term.
func (s *Session) Visualize(ctx context.Context, term string) (flow.ImageResult, error) {
	if strings.TrimSpace(term) == "" {
		return flow.ImageResult{}, ErrEmptyMessage
	}
	s.touch()
	res, err := s.flows.GenerateImage(ctx, flow.ImageRequest{Prompt: term})
	if err != nil {
		return flow.ImageResult{}, fmt.Errorf("session: visualize: %w", err)
	}
	return res, nil
}

// Snapshot returns a copy of the full session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:         s.id,
		Settings:   s.settings,
		History:    slices.Clone(s.history),
		Lesson:     s.lesson.clone(),
		CreatedAt:  s.created,
		LastActive: s.lastActive,
	}
}

// touch marks the session active and returns its settings.
func (s *Session) touch() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	return s.settings
}

// idle reports whether the session has been inactive for at least d at now.
// A session with a conversation turn in flight is never idle.
func (s *Session) idle(now time.Time, d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.sending && now.Sub(s.lastActive) >= d
}
