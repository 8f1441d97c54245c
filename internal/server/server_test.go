package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-leadform/pkg/engine"
	"github.com/goliatone/go-leadform/pkg/store"
	"github.com/goliatone/go-leadform/pkg/submission"
	"github.com/goliatone/go-leadform/pkg/testsupport"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	base := []Option{WithClock(fixedClock)}
	srv, err := New(Config{Secret: "test-secret"}, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	return srv
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func get(srv *Server, target string) *httptest.ResponseRecorder {
	return do(srv, httptest.NewRequest(http.MethodGet, target, nil))
}

func post(srv *Server, target string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(srv, req)
}

// newSession starts a session through the public route and returns its id.
func newSession(t *testing.T, srv *Server) string {
	t.Helper()
	rec := get(srv, "/apply/form")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/apply/form/"), loc)
	sid := strings.TrimPrefix(loc, "/apply/form/")
	require.True(t, store.ValidID(sid), sid)
	return sid
}

func formValues(srv *Server, sid string, cursor int, pairs ...string) url.Values {
	values := url.Values{
		"sid":    {sid},
		"cursor": {strconv.Itoa(cursor)},
		"_token": {srv.formToken(sid)},
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		values.Set(pairs[i], pairs[i+1])
	}
	return values
}

// answerAll walks every step through the form endpoint, stopping on the
// terminal step with its answer stored.
func answerAll(t *testing.T, srv *Server, sid string) {
	t.Helper()
	answers := testsupport.StrategyAnswers()
	for idx, step := range srv.catalog.Steps {
		value := answers[step.AnswerKey]
		if step.Kind.HasOptions() {
			rec := post(srv, "/apply/form/"+sid, formValues(srv, sid, idx, "choice", value))
			require.Equal(t, http.StatusSeeOther, rec.Code, "choose %s", step.AnswerKey)
			if idx < len(srv.catalog.Steps)-1 {
				rec = post(srv, "/apply/form/"+sid, formValues(srv, sid, idx, "action", "advance"))
				require.Equal(t, http.StatusSeeOther, rec.Code, "advance %s", step.AnswerKey)
			}
			continue
		}
		action := "advance"
		if idx == len(srv.catalog.Steps)-1 {
			action = "answer"
		}
		rec := post(srv, "/apply/form/"+sid, formValues(srv, sid, idx, "action", action, "value", value))
		require.Equal(t, http.StatusSeeOther, rec.Code, "answer %s", step.AnswerKey)
	}
}

func TestLanding(t *testing.T) {
	srv := newTestServer(t)

	rec := get(srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "makers of RubyOnVibes")
	assert.Contains(t, body, "&copy; 2026 Dogfood Digital")
	assert.Contains(t, body, `data-theme="dark"`)
	assert.Contains(t, body, `href="/?book=1#booking"`)
	assert.NotContains(t, body, `role="dialog"`)
	assert.True(t, store.ValidID(rec.Header().Get(RequestIDHeader)))
}

func TestLanding_FAQToggle(t *testing.T) {
	srv := newTestServer(t)

	body := get(srv, "/?faq=200").Body.String()
	assert.Contains(t, body, "MVP builds start at $1,000 for simple projects")
	assert.Contains(t, body, `href="/?faq=#faq-200"`)

	body = get(srv, "/?faq=nope").Body.String()
	assert.NotContains(t, body, "MVP builds start at $1,000 for simple projects")
}

func TestApplyPage(t *testing.T) {
	srv := newTestServer(t)
	rec := get(srv, "/apply")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/apply/form"`)
}

func TestSessionPage(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	rec := get(srv, "/apply/form/"+sid)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "1 / 15")
	assert.Contains(t, body, `<input type="hidden" name="sid" value="`+sid+`">`)
	assert.Contains(t, body, `<input type="hidden" name="_token" value="`+srv.formToken(sid)+`">`)
	assert.Contains(t, body, `action="/apply/form/`+sid+`"`)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestUnknownSessionRedirects(t *testing.T) {
	srv := newTestServer(t)
	missing := store.NewID()

	rec := get(srv, "/apply/form/"+missing)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/apply/form", rec.Header().Get("Location"))

	rec = post(srv, "/apply/form/"+missing, formValues(srv, missing, 0, "action", "advance"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/apply/form", rec.Header().Get("Location"))

	rec = get(srv, "/apply/form/not-a-session")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestWalkAndSubmit(t *testing.T) {
	sub := &testsupport.RecordingSubmitter{}
	srv := newTestServer(t, WithSubmitter(sub))
	sid := newSession(t, srv)

	answerAll(t, srv, sid)
	body := get(srv, "/apply/form/"+sid).Body.String()
	assert.Contains(t, body, "15 / 15")
	assert.Contains(t, body, ">Book My Strategy Session<")

	rec := post(srv, "/apply/form/"+sid, formValues(srv, sid, 14, "action", "submit"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/apply/form/"+sid, rec.Header().Get("Location"))

	require.Equal(t, 1, sub.Calls())
	want := engine.Payload(testsupport.StrategyAnswers())
	want["formType"] = "Strategy Session Booking"
	assert.Equal(t, want, sub.Payloads[0])

	rec = post(srv, "/apply/form/"+sid, formValues(srv, sid, 14, "action", "submit"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 1, sub.Calls(), "a submitted session never sends twice")

	body = get(srv, "/apply/form/"+sid).Body.String()
	assert.Contains(t, body, "calendar link within 24 hours")

	_, err := srv.store.Load(context.Background(), sid)
	assert.ErrorIs(t, err, store.ErrNotFound, "confirmed sessions are dropped")
	rec = get(srv, "/apply/form/"+sid)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/apply/form", rec.Header().Get("Location"))
}

// gatedSubmitter blocks every call until release is closed.
type gatedSubmitter struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	mu      sync.Mutex
	calls   int
}

func newGatedSubmitter() *gatedSubmitter {
	return &gatedSubmitter{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedSubmitter) Submit(ctx context.Context, _ engine.Payload) error {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gatedSubmitter) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func TestSharedStoreSubmitsOnce(t *testing.T) {
	shared, err := store.OpenBunt("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = shared.Close() })

	sub := newGatedSubmitter()
	first := newTestServer(t, WithStore(shared), WithSubmitter(sub))
	second := newTestServer(t, WithStore(shared), WithSubmitter(sub))

	sid := newSession(t, first)
	answerAll(t, first, sid)

	submit := func(srv *Server, out chan<- int) {
		out <- post(srv, "/apply/form/"+sid, formValues(srv, sid, 14, "action", "submit")).Code
	}
	firstDone := make(chan int, 1)
	go submit(first, firstDone)
	<-sub.started

	secondDone := make(chan int, 1)
	go submit(second, secondDone)
	select {
	case code := <-secondDone:
		t.Fatalf("second instance finished while the first held the session (status %d)", code)
	case <-time.After(100 * time.Millisecond):
	}

	close(sub.release)
	assert.Equal(t, http.StatusSeeOther, <-firstDone)
	assert.Equal(t, http.StatusUnprocessableEntity, <-secondDone)
	assert.Equal(t, 1, sub.Calls())

	state, err := shared.Load(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSubmitted, state.Status)
}

func TestEmptyAnswerIsRejected(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	rec := post(srv, "/apply/form/"+sid, formValues(srv, sid, 0, "action", "advance", "value", "   "))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please answer this question to continue.")
	assert.Contains(t, rec.Body.String(), "1 / 15")
}

func TestRetreatKeepsAnswers(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	rec := post(srv, "/apply/form/"+sid, formValues(srv, sid, 0, "action", "advance", "value", "Ava"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = post(srv, "/apply/form/"+sid, formValues(srv, sid, 1, "action", "retreat", "value", "a@b.com"))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	body := get(srv, "/apply/form/"+sid).Body.String()
	assert.Contains(t, body, "1 / 15")
	assert.Contains(t, body, `value="Ava"`)

	rec = post(srv, "/apply/form/"+sid, formValues(srv, sid, 0, "action", "retreat"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestStaleCursor(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	rec := post(srv, "/apply/form/"+sid, formValues(srv, sid, 5, "action", "advance", "value", "Ava"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), staleNotice)
	assert.NotContains(t, rec.Body.String(), `value="Ava"`)
}

func TestBadToken(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	values := formValues(srv, sid, 0, "action", "advance", "value", "Ava")
	values.Set("_token", "forged")
	rec := post(srv, "/apply/form/"+sid, values)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubmissionFailureThenRetry(t *testing.T) {
	sub := &testsupport.RecordingSubmitter{Err: errors.New("upstream 503")}
	srv := newTestServer(t, WithSubmitter(sub))
	sid := newSession(t, srv)
	answerAll(t, srv, sid)

	rec := post(srv, "/apply/form/"+sid, formValues(srv, sid, 14, "action", "submit"))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	body := get(srv, "/apply/form/"+sid).Body.String()
	assert.Contains(t, body, "Your answers are saved.")
	assert.Contains(t, body, ">Try again<")
	assert.NotContains(t, body, "upstream 503")

	rec = post(srv, "/apply/form/"+sid, formValues(srv, sid, 14, "action", "retry"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = post(srv, "/apply/form/"+sid, formValues(srv, sid, 14, "action", "retreat"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, get(srv, "/apply/form/"+sid).Body.String(), "14 / 15")

	sub.SetErr(nil)
	rec = post(srv, "/apply/form/"+sid, formValues(srv, sid, 13, "action", "advance"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = post(srv, "/apply/form/"+sid, formValues(srv, sid, 14, "action", "submit"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 2, sub.Calls())
	assert.Contains(t, get(srv, "/apply/form/"+sid).Body.String(), "calendar link within 24 hours")
}

func TestModalBooking(t *testing.T) {
	srv := newTestServer(t)

	rec := get(srv, "/?book=1")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	sid := loc.Query().Get("book")
	require.True(t, store.ValidID(sid))
	assert.Equal(t, "booking", loc.Fragment)

	body := get(srv, "/?book="+sid).Body.String()
	assert.Contains(t, body, `role="dialog"`)
	assert.Contains(t, body, `action="/apply/form/`+sid+`?layout=modal"`)
	assert.Contains(t, body, "makers of RubyOnVibes")

	rec = post(srv, "/apply/form/"+sid+"?layout=modal", formValues(srv, sid, 0, "action", "advance"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `role="dialog"`)
	assert.Contains(t, rec.Body.String(), "Please answer this question to continue.")

	rec = post(srv, "/apply/form/"+sid+"?layout=modal", formValues(srv, sid, 0, "action", "advance", "value", "Ava"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?book="+sid+"#booking", rec.Header().Get("Location"))

	fragment := get(srv, "/apply/form/"+sid+"?layout=modal").Body.String()
	assert.Contains(t, fragment, `aria-valuenow="2"`)
	assert.NotContains(t, fragment, "<html")

	rec = get(srv, "/?book="+store.NewID())
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, bookURL, rec.Header().Get("Location"))
}

func TestThemeToggle(t *testing.T) {
	srv := newTestServer(t)

	rec := post(srv, "/theme", url.Values{"variant": {"light"}, "return": {"/apply"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/apply", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "light", cookies[0].Value)

	req := httptest.NewRequest(http.MethodGet, "/apply", nil)
	req.AddCookie(cookies[0])
	body := do(srv, req).Body.String()
	assert.Contains(t, body, `data-theme="light"`)
	assert.Contains(t, body, `name="variant" value="dark"`)

	req = httptest.NewRequest(http.MethodPost, "/theme", strings.NewReader(url.Values{"return": {"//evil.example"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookies[0])
	rec = do(srv, req)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, "dark", rec.Result().Cookies()[0].Value)
}

func TestDefaultThemeFromConfig(t *testing.T) {
	srv, err := New(Config{DefaultTheme: "light"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	assert.Contains(t, get(srv, "/").Body.String(), `data-theme="light"`)
}

type recordedSend struct {
	formID  string
	payload engine.Payload
}

func TestStartProject(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []recordedSend
	)
	sender := submission.SenderFunc(func(_ context.Context, formID string, payload engine.Payload) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, recordedSend{formID: formID, payload: payload})
		return nil
	})
	srv := newTestServer(t, WithContactSender(sender))

	rec := get(srv, "/start-project")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/start-project"`)

	rec = post(srv, "/start-project", url.Values{"name": {"Ada"}, "project": {"growth"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email is required.")
	assert.Contains(t, rec.Body.String(), `name="name" value="Ada"`)
	assert.Empty(t, sent)

	rec = post(srv, "/start-project", url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"project": {"mvp"},
		"message": {"A booking tool."},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Thanks for reaching out!")
	require.Len(t, sent, 1)
	assert.Equal(t, "xqajpgny", sent[0].formID)
	assert.Equal(t, "mvp", sent[0].payload["project"])
}

func TestStartProject_ServiceDown(t *testing.T) {
	sender := submission.SenderFunc(func(context.Context, string, engine.Payload) error {
		return errors.New("dial tcp: refused")
	})
	srv := newTestServer(t, WithContactSender(sender))

	rec := post(srv, "/start-project", url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"project": {"mvp"},
		"message": {"A booking tool."},
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please try again.")
	assert.NotContains(t, rec.Body.String(), "refused")
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := get(srv, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var health healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, healthResponse{
		Status:  "ok",
		Catalog: "strategy-session",
		Steps:   15,
		Time:    "2026-03-01T12:00:00Z",
	}, health)
}

func TestMetricsAndStatic(t *testing.T) {
	srv := newTestServer(t)
	get(srv, "/")
	newSession(t, srv)

	body := get(srv, "/metrics").Body.String()
	assert.Contains(t, body, `leadform_http_requests_total{method="GET",route="/",status="200"} 1`)
	assert.Contains(t, body, `leadform_sessions_started_total{catalog="strategy-session"} 1`)

	rec := get(srv, "/static/site.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "--accent")

	assert.Equal(t, http.StatusNotFound, get(srv, "/nope").Code)
}

func TestKeyedMutexSerialises(t *testing.T) {
	locks := newKeyedMutex()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("sid")
			defer unlock()
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, locks.size())
}

func TestSafeReturn(t *testing.T) {
	cases := map[string]string{
		"/apply":               "/apply",
		"/?book=x#booking":     "/?book=x#booking",
		"":                     "/",
		"https://evil.example": "/",
		"//evil.example":       "/",
		"/\\evil.example":      "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeReturn(in), in)
	}
}

func TestFormAction(t *testing.T) {
	action, value, ok := formAction(url.Values{"choice": {"Yes"}, "action": {"advance"}})
	assert.Equal(t, []any{engine.ActionAnswer, "Yes", true}, []any{action, value, ok})

	action, value, ok = formAction(url.Values{})
	assert.Equal(t, []any{engine.ActionAdvance, "", false}, []any{action, value, ok})

	action, value, ok = formAction(url.Values{"action": {" Submit "}, "value": {""}})
	assert.Equal(t, []any{engine.ActionSubmit, "", true}, []any{action, value, ok})
}
