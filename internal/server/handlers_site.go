package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-leadform/pkg/content"
	"github.com/goliatone/go-leadform/pkg/engine"
	"github.com/goliatone/go-leadform/pkg/orchestrator"
	"github.com/goliatone/go-leadform/pkg/render"
	"github.com/goliatone/go-leadform/pkg/renderers/vanilla"
	"github.com/goliatone/go-leadform/pkg/store"
	"github.com/goliatone/go-leadform/pkg/themes"
)

const bookURL = "/?book=1#booking"

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Str("op", op).Msg("request failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// themeFor resolves the visitor's variant, falling back to the configured
// default when no preference was stored.
func (s *Server) themeFor(r *http.Request) *theme.RendererConfig {
	variant := s.cfg.DefaultTheme
	if _, err := r.Cookie(themes.CookieName); err == nil {
		variant = themes.FromRequest(r)
	}
	return s.themes.Resolve(variant)
}

func (s *Server) stepOptions(r *http.Request, sid string, sess *engine.Session, modal bool, notice string) render.RenderOptions {
	return render.RenderOptions{
		Theme:     s.themeFor(r),
		ActionURL: actionURL(sid, modal),
		Hidden: render.MergeHiddenFields(nil,
			render.SessionField(sid),
			render.CursorField(sess.Cursor()),
			render.CSRFToken(s.formToken(sid)),
		),
		Notice:   notice,
		CloseURL: "/",
		PageURL:  sessionURL(sid, modal),
	}
}

// renderStep draws the session in the page or modal layout.
func (s *Server) renderStep(r *http.Request, sid string, sess *engine.Session, modal bool, notice string) ([]byte, error) {
	layout := vanilla.LayoutPage
	if modal {
		layout = vanilla.LayoutModal
	}
	return s.flows.Render(r.Context(), orchestrator.Request{
		Session:       sess,
		Renderer:      string(layout),
		RenderOptions: s.stepOptions(r, sid, sess, modal, notice),
	})
}

// respondSession writes the session view. The modal layout is drawn over
// the landing page.
func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, status int, sid string, sess *engine.Session, modal bool, notice string) {
	body, err := s.renderStep(r, sid, sess, modal, notice)
	if err != nil {
		s.serverError(w, r, "render step", err)
		return
	}
	if !modal {
		writeHTML(w, status, body)
		return
	}
	s.respondLanding(w, r, status, content.Accordion{}, string(body), sessionURL(sid, true))
}

func (s *Server) respondLanding(w http.ResponseWriter, r *http.Request, status int, acc content.Accordion, modalHTML, pageURL string) {
	out, err := s.pages.Render(r.Context(), vanilla.PageLanding, "", map[string]any{
		"content":    s.site,
		"faq":        s.site.FAQView(acc),
		"book_url":   bookURL,
		"modal_html": modalHTML,
	}, render.RenderOptions{Theme: s.themeFor(r), PageURL: pageURL})
	if err != nil {
		s.serverError(w, r, "render landing", err)
		return
	}
	writeHTML(w, status, out)
}

// handleLanding draws the landing page. ?faq=<id> expands one FAQ entry and
// ?book=1 opens the booking modal with a fresh session; ?book=<sid> shows an
// existing one.
func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	acc := content.ParseAccordion(query.Get("faq"))
	book := strings.TrimSpace(query.Get("book"))
	if book == "" {
		s.respondLanding(w, r, http.StatusOK, acc, "", r.URL.RequestURI())
		return
	}

	if !store.ValidID(book) {
		sid, _, err := s.startSession(r.Context())
		if err != nil {
			s.serverError(w, r, "start session", err)
			return
		}
		http.Redirect(w, r, sessionURL(sid, true), http.StatusSeeOther)
		return
	}

	unlock, err := s.lockSession(r.Context(), book)
	if err != nil {
		s.sessionBusy(w, r, book, err)
		return
	}
	defer unlock()
	sess, err := s.loadSession(r.Context(), book)
	if errors.Is(err, store.ErrNotFound) {
		http.Redirect(w, r, bookURL, http.StatusSeeOther)
		return
	}
	if err != nil {
		s.serverError(w, r, "load session", err)
		return
	}
	s.respondSession(w, r, http.StatusOK, book, sess, true, "")
	if r.Method == http.MethodGet {
		s.forgetSubmitted(r.Context(), book, sess)
	}
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	out, err := s.pages.Render(r.Context(), vanilla.PageApply, s.site.Apply.Heading, map[string]any{
		"content": s.site,
	}, render.RenderOptions{Theme: s.themeFor(r), PageURL: "/apply"})
	if err != nil {
		s.serverError(w, r, "render apply", err)
		return
	}
	writeHTML(w, http.StatusOK, out)
}

func (s *Server) handleStartProject(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	var result content.ContactResult

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "malformed form", http.StatusBadRequest)
			return
		}
		var err error
		result, err = s.site.SubmitContact(r.Context(), s.contact, s.cfg.ContactFormID, content.ParseContact(r.PostForm))
		switch {
		case err == nil:
		case errors.Is(err, content.ErrContactIncomplete):
			status = http.StatusUnprocessableEntity
		case len(result.Fields) > 0:
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("contact form rejected")
			status = http.StatusUnprocessableEntity
		default:
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("contact form failed")
			status = http.StatusBadGateway
		}
	}

	out, err := s.pages.Render(r.Context(), vanilla.PageStartProject, s.site.Contact.Heading, map[string]any{
		"content": s.site,
		"result":  result,
	}, render.RenderOptions{Theme: s.themeFor(r), PageURL: "/start-project"})
	if err != nil {
		s.serverError(w, r, "render start-project", err)
		return
	}
	writeHTML(w, status, out)
}

// handleTheme stores the posted variant, or flips the current one, and
// returns the visitor to the page they were on.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	variant := themes.NormaliseVariant(r.PostForm.Get("variant"))
	if variant != themes.VariantDark && variant != themes.VariantLight {
		current := s.cfg.DefaultTheme
		if _, err := r.Cookie(themes.CookieName); err == nil {
			current = themes.FromRequest(r)
		}
		variant = themes.Toggle(current)
	}
	themes.SetCookie(w, variant, s.cfg.SecureCookie)
	http.Redirect(w, r, safeReturn(r.PostForm.Get("return")), http.StatusSeeOther)
}

// safeReturn only allows local absolute paths.
func safeReturn(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return "/"
	}
	return raw
}

type healthResponse struct {
	Status  string `json:"status"`
	Catalog string `json:"catalog"`
	Steps   int    `json:"steps"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:  "ok",
		Catalog: s.catalog.ID,
		Steps:   s.catalog.Len(),
		Time:    s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug().Str("path", r.URL.Path).Msg("not found")
	http.Error(w, "page not found", http.StatusNotFound)
}
