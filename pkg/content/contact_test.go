package content

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-leadform/pkg/engine"
	"github.com/goliatone/go-leadform/pkg/submission"
)

type fakeSender struct {
	err      error
	formID   string
	payloads []engine.Payload
}

func (f *fakeSender) Send(_ context.Context, formID string, payload engine.Payload) error {
	f.formID = formID
	f.payloads = append(f.payloads, payload)
	return f.err
}

func validContact() ContactForm {
	return ContactForm{
		Name:    "Ada",
		Email:   "ada@example.com",
		Project: "mvp",
		Message: "A marketplace for looms.",
	}
}

func TestParseContact_Trims(t *testing.T) {
	form := ParseContact(url.Values{
		"name":    {"  Ada "},
		"email":   {"ada@example.com"},
		"project": {" growth"},
		"message": {"hi\n"},
	})
	want := ContactForm{Name: "Ada", Email: "ada@example.com", Project: "growth", Message: "hi"}
	if diff := cmp.Diff(want, form); diff != "" {
		t.Fatalf("parse mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	site := MustDefault()
	if errs := site.Validate(validContact()); errs != nil {
		t.Fatalf("expected valid form, got %v", errs)
	}

	errs := site.Validate(ContactForm{Project: "enterprise"})
	for _, field := range []string{"name", "email", "message"} {
		if len(errs[field]) == 0 {
			t.Fatalf("expected %s to be required", field)
		}
	}
	if len(errs["project"]) != 1 || errs["project"][0] != "must be one of the listed project types." {
		t.Fatalf("unexpected project errors %v", errs["project"])
	}
}

func TestSubmitContact_Success(t *testing.T) {
	site := MustDefault()
	sender := &fakeSender{}

	result, err := site.SubmitContact(context.Background(), sender, "xqajpgny", validContact())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Sent {
		t.Fatalf("expected sent result")
	}
	if sender.formID != "xqajpgny" {
		t.Fatalf("unexpected form id %q", sender.formID)
	}
	if diff := cmp.Diff(validContact().Payload(), sender.payloads[0]); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitContact_IncompleteNeverSends(t *testing.T) {
	site := MustDefault()
	sender := &fakeSender{}
	form := validContact()
	form.Message = ""

	result, err := site.SubmitContact(context.Background(), sender, "xqajpgny", form)
	if !errors.Is(err, ErrContactIncomplete) {
		t.Fatalf("expected ErrContactIncomplete, got %v", err)
	}
	if len(sender.payloads) != 0 {
		t.Fatalf("incomplete form must not be sent")
	}
	if len(result.Fields["message"]) == 0 {
		t.Fatalf("expected message field error")
	}
}

func TestSubmitContact_MapsServiceFieldErrors(t *testing.T) {
	site := MustDefault()
	sender := &fakeSender{err: &submission.ResponseError{
		StatusCode: 422,
		Fields: []submission.FieldError{
			{Field: "email", Message: "should be an email"},
			{Message: "form is closed"},
		},
	}}

	result, err := site.SubmitContact(context.Background(), sender, "xqajpgny", validContact())
	if err == nil {
		t.Fatalf("expected rejection error")
	}
	if diff := cmp.Diff([]string{"should be an email"}, result.Fields["email"]); diff != "" {
		t.Fatalf("email errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"form is closed"}, result.Errors); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if result.Sent {
		t.Fatalf("rejected form should not be marked sent")
	}
}

func TestSubmitContact_TransportFailure(t *testing.T) {
	site := MustDefault()
	sender := &fakeSender{err: submission.ErrBreakerOpen}

	result, err := site.SubmitContact(context.Background(), sender, "xqajpgny", validContact())
	if !errors.Is(err, submission.ErrBreakerOpen) {
		t.Fatalf("expected breaker error, got %v", err)
	}
	if len(result.Errors) != 1 || result.Fields != nil {
		t.Fatalf("expected one generic error, got %+v", result)
	}
}
