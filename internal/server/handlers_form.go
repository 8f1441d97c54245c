package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-leadform/pkg/engine"
	"github.com/goliatone/go-leadform/pkg/render"
	"github.com/goliatone/go-leadform/pkg/renderers/vanilla"
	"github.com/goliatone/go-leadform/pkg/store"
)

const staleNotice = "This form was updated in another tab. Here is where you left off."

func wantsModal(r *http.Request) bool {
	layout := r.URL.Query().Get("layout")
	if layout == "" && r.PostForm != nil {
		layout = r.PostForm.Get("layout")
	}
	return strings.EqualFold(strings.TrimSpace(layout), string(vanilla.LayoutModal))
}

// handleNewSession starts a session and redirects to its address, so a
// reload never creates a second one.
func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	sid, _, err := s.startSession(r.Context())
	if err != nil {
		s.serverError(w, r, "start session", err)
		return
	}
	http.Redirect(w, r, sessionURL(sid, wantsModal(r)), http.StatusSeeOther)
}

func (s *Server) handleShowSession(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["sid"]
	unlock, err := s.lockSession(r.Context(), sid)
	if err != nil {
		s.sessionBusy(w, r, sid, err)
		return
	}
	defer unlock()

	sess, err := s.loadSession(r.Context(), sid)
	if errors.Is(err, store.ErrNotFound) {
		http.Redirect(w, r, "/apply/form", http.StatusSeeOther)
		return
	}
	if err != nil {
		s.serverError(w, r, "load session", err)
		return
	}

	if wantsModal(r) {
		fragment, err := s.renderStep(r, sid, sess, true, "")
		if err != nil {
			s.serverError(w, r, "render modal", err)
			return
		}
		writeHTML(w, http.StatusOK, fragment)
	} else {
		s.respondSession(w, r, http.StatusOK, sid, sess, false, "")
	}
	if r.Method == http.MethodGet {
		s.forgetSubmitted(r.Context(), sid, sess)
	}
}

// sessionBusy answers when the session lock could not be taken before the
// request deadline.
func (s *Server) sessionBusy(w http.ResponseWriter, r *http.Request, sid string, err error) {
	zerolog.Ctx(r.Context()).Warn().Err(err).Str("session", sid).Msg("session lock unavailable")
	http.Error(w, "this form is busy, please try again", http.StatusServiceUnavailable)
}

// handleSessionAction applies one posted action:
//
//	choice=<option>              select an option
//	action=answer&value=<text>   store the current answer
//	action=advance|retreat|submit|retry
//
// A posted value is stored before advance, retreat and submit so one click
// both saves the text and moves.
func (s *Server) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	sid := mux.Vars(r)["sid"]

	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	modal := wantsModal(r)

	unlock, err := s.lockSession(ctx, sid)
	if err != nil {
		s.sessionBusy(w, r, sid, err)
		return
	}
	defer unlock()

	sess, err := s.loadSession(ctx, sid)
	if errors.Is(err, store.ErrNotFound) {
		http.Redirect(w, r, "/apply/form", http.StatusSeeOther)
		return
	}
	if err != nil {
		s.serverError(w, r, "load session", err)
		return
	}

	if !s.validToken(sid, r.PostForm.Get(render.TokenFieldName)) {
		logger.Warn().Str("session", sid).Msg("form token mismatch")
		http.Error(w, "invalid form token", http.StatusForbidden)
		return
	}
	if posted := strings.TrimSpace(r.PostForm.Get(render.CursorFieldName)); posted != "" && posted != strconv.Itoa(sess.Cursor()) {
		s.respondSession(w, r, http.StatusConflict, sid, sess, modal, staleNotice)
		return
	}

	action, value, hasValue := formAction(r.PostForm)
	actErr := applyAction(ctx, sess, action, value, hasValue)

	if err := s.saveSession(ctx, sid, sess); err != nil {
		s.serverError(w, r, "save session", err)
		return
	}

	switch {
	case actErr == nil, errors.Is(actErr, engine.ErrSubmissionFailed):
		if actErr != nil {
			logger.Warn().Err(actErr).Str("session", sid).Int("attempts", sess.State().Attempts).Msg("booking submission failed")
		}
		http.Redirect(w, r, sessionURL(sid, modal), http.StatusSeeOther)
	case engine.IsRejection(actErr):
		s.respondSession(w, r, http.StatusUnprocessableEntity, sid, sess, modal, render.Notice(actErr))
	default:
		logger.Warn().Err(actErr).Str("session", sid).Str("action", action).Msg("unhandled form action")
		s.respondSession(w, r, http.StatusBadRequest, sid, sess, modal, render.Notice(actErr))
	}
}

// formAction decodes the posted fields. An option button implies an answer.
func formAction(values url.Values) (action, value string, hasValue bool) {
	if choice, ok := values["choice"]; ok && len(choice) > 0 {
		return engine.ActionAnswer, choice[0], true
	}
	action = strings.ToLower(strings.TrimSpace(values.Get("action")))
	if action == "" {
		action = engine.ActionAdvance
	}
	if v, ok := values["value"]; ok && len(v) > 0 {
		return action, v[0], true
	}
	return action, "", false
}

func applyAction(ctx context.Context, sess *engine.Session, action, value string, hasValue bool) error {
	if hasValue && action != engine.ActionAnswer && action != engine.ActionRetry {
		if err := sess.SetCurrentAnswer(value); err != nil {
			return err
		}
	}
	return sess.Apply(ctx, action, value)
}
