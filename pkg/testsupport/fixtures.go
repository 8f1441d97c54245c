package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-leadform/pkg/catalog"
	"github.com/goliatone/go-leadform/pkg/engine"
	"github.com/goliatone/go-leadform/pkg/model"
)

// StrategyAnswers returns one accepted value for every strategy-session step.
func StrategyAnswers() map[string]string {
	return map[string]string{
		"name":               "Ava",
		"email":              "a@b.com",
		"country":            "Portugal",
		"productStage":       "Have a prototype",
		"businessType":       "New software product",
		"budget":             "$15,000 - $30,000",
		"hasDocumentation":   "Yes, I have a pitch deck",
		"productDescription": "A scheduling tool for clinics.",
		"revenueStatus":      "In beta with early users",
		"revenueGoal":        "$10k - $50k MRR",
		"startTimeline":      "Within 1 month",
		"buildPreference":    "Not sure yet, need guidance",
		"feelingScale":       "8",
		"howDidYouHear":      "Podcast/Interview",
		"commitment":         "Yes",
	}
}

// StrategyCatalog returns the embedded strategy-session catalog.
func StrategyCatalog(t *testing.T) model.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	return cat
}

// NewSession starts a strategy-session engine.
func NewSession(t *testing.T, opts ...engine.Option) *engine.Session {
	t.Helper()
	s, err := engine.New(StrategyCatalog(t), opts...)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

// WalkToTerminal answers every step from the cursor onwards with answers and
// stops on the last step without submitting.
func WalkToTerminal(t *testing.T, s *engine.Session, answers map[string]string) {
	t.Helper()
	for {
		key := s.CurrentStep().AnswerKey
		if err := s.SetAnswer(key, answers[key]); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
		if s.IsTerminal() {
			return
		}
		if err := s.Advance(); err != nil {
			t.Fatalf("advance from %s: %v", key, err)
		}
	}
}

// RecordingSubmitter captures payloads and fails with Err when set.
type RecordingSubmitter struct {
	mu       sync.Mutex
	Err      error
	Payloads []engine.Payload
}

// Submit implements engine.Submitter.
func (r *RecordingSubmitter) Submit(_ context.Context, payload engine.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Payloads = append(r.Payloads, payload)
	return r.Err
}

// SetErr swaps the failure returned by later calls.
func (r *RecordingSubmitter) SetErr(err error) {
	r.mu.Lock()
	r.Err = err
	r.mu.Unlock()
}

// Calls returns the number of payloads received.
func (r *RecordingSubmitter) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Payloads)
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file as a string.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CaptureTemplateOutput runs render against a buffer and returns both the
// returned string and what was written.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
