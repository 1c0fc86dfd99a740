package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linguaweave/linguaweave/internal/flow"
	"github.com/linguaweave/linguaweave/internal/session"
)

// flowInfo describes one invocable flow.
type flowInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Modality    flow.Modality  `json:"modality"`
	Input       map[string]any `json:"input"`
	Output      map[string]any `json:"output"`
}

// voiceInfo describes one speech voice.
type voiceInfo struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Provider string            `json:"provider"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type textBody struct {
	Text string `json:"text"`
}

type termBody struct {
	Term string `json:"term"`
}

func (s *Server) listFlows(w http.ResponseWriter, _ *http.Request) {
	specs := s.flows.List()
	out := make([]flowInfo, 0, len(specs))
	for _, sp := range specs {
		out = append(out, flowInfo{
			Name:        sp.Name,
			Description: sp.Description,
			Modality:    sp.Modality,
			Input:       sp.Input.JSONSchema(),
			Output:      sp.Output.JSONSchema(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) invokeFlow(w http.ResponseWriter, r *http.Request) {
	spec, err := s.flows.Lookup(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in flow.Record
	if err := s.decode(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}
	if in == nil {
		in = flow.Record{}
	}
	out, err := s.inv.Invoke(r.Context(), spec, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) catalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.Catalog())
}

func (s *Server) voices(w http.ResponseWriter, r *http.Request) {
	speech := s.inv.Backends().Speech
	if speech == nil {
		writeError(w, r, errNoSpeechBackend)
		return
	}
	vs, err := speech.ListVoices(r.Context())
	if err != nil {
		writeError(w, r, &flow.Error{Flow: "voices", Kind: flow.ErrRemoteService, Err: err})
		return
	}
	out := make([]voiceInfo, 0, len(vs))
	for _, v := range vs {
		out = append(out, voiceInfo{ID: v.ID, Name: v.Name, Provider: v.Provider, Metadata: v.Metadata})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+sess.ID())
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

// session resolves the {id} URL parameter, writing a 404 when unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var u session.Update
	if err := s.decode(w, r, &u, true); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := sess.Apply(u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var body textBody
	if err := s.decode(w, r, &body, true); err != nil {
		writeError(w, r, err)
		return
	}
	added, err := sess.SendMessage(r.Context(), body.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": added})
}

func (s *Server) checkGrammar(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var body textBody
	if err := s.decode(w, r, &body, true); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := sess.CheckGrammar(r.Context(), body.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) generateLesson(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	lesson, err := sess.GenerateLesson(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

func (s *Server) speak(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var body textBody
	if err := s.decode(w, r, &body, true); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := sess.Speak(r.Context(), body.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) visualize(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var body termBody
	if err := s.decode(w, r, &body, true); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := sess.Visualize(r.Context(), body.Term)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
