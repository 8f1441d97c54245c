package content

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-leadform/pkg/engine"
	"github.com/goliatone/go-leadform/pkg/render"
	"github.com/goliatone/go-leadform/pkg/submission"
)

// ContactFields are the start-project inputs in display order.
var ContactFields = []string{"name", "email", "project", "message"}

// ErrContactIncomplete reports a contact form with missing or unknown values.
var ErrContactIncomplete = errors.New("content: contact form incomplete")

// Sender posts a payload to a named form. *submission.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, formID string, payload engine.Payload) error
}

// ContactForm is the start-project submission.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Project string `json:"project"`
	Message string `json:"message"`
}

// ParseContact reads the form from posted values.
func ParseContact(values url.Values) ContactForm {
	return ContactForm{
		Name:    strings.TrimSpace(values.Get("name")),
		Email:   strings.TrimSpace(values.Get("email")),
		Project: strings.TrimSpace(values.Get("project")),
		Message: strings.TrimSpace(values.Get("message")),
	}
}

// Validate returns per-field messages. Every field is required and project
// must be one of the site's project options.
func (s Site) Validate(form ContactForm) map[string][]string {
	errs := make(map[string][]string)
	required := map[string]string{
		"name":    form.Name,
		"email":   form.Email,
		"project": form.Project,
		"message": form.Message,
	}
	for _, field := range ContactFields {
		if strings.TrimSpace(required[field]) == "" {
			errs[field] = append(errs[field], "is required.")
		}
	}
	if form.Project != "" {
		if _, ok := s.Project(form.Project); !ok {
			errs["project"] = append(errs["project"], "must be one of the listed project types.")
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Payload is what the form service receives.
func (f ContactForm) Payload() engine.Payload {
	return engine.Payload{
		"name":    f.Name,
		"email":   f.Email,
		"project": f.Project,
		"message": f.Message,
	}
}

// ContactResult is the outcome of a contact submission as the page needs it.
type ContactResult struct {
	Form   ContactForm         `json:"form"`
	Fields map[string][]string `json:"fields,omitempty"`
	Errors []string            `json:"errors,omitempty"`
	Sent   bool                `json:"sent"`
}

// SubmitContact validates and sends the form. Validation problems return
// ErrContactIncomplete; service rejections have their field messages mapped
// back onto the inputs. The returned error is for logging and status codes;
// the result always carries what the visitor should see.
func (s Site) SubmitContact(ctx context.Context, sender Sender, formID string, form ContactForm) (ContactResult, error) {
	result := ContactResult{Form: form}
	if fields := s.Validate(form); fields != nil {
		result.Fields = fields
		return result, ErrContactIncomplete
	}
	if sender == nil {
		result.Errors = []string{"The contact form is unavailable right now."}
		return result, fmt.Errorf("content: contact sender not configured")
	}

	err := sender.Send(ctx, formID, form.Payload())
	if err == nil {
		result.Sent = true
		return result, nil
	}

	if respErr, ok := submission.AsResponseError(err); ok && !respErr.Temporary() {
		mapping := render.MapErrorPayload(ContactFields, respErr.FieldMessages())
		result.Fields = mapping.Fields
		result.Errors = render.MergeFormErrors(mapping.Form)
		if len(result.Fields) == 0 && len(result.Errors) == 0 {
			result.Errors = []string{"Please check your details and try again."}
		}
		return result, fmt.Errorf("content: contact rejected: %w", err)
	}

	result.Errors = []string{"We couldn't send your message just now. Please try again."}
	return result, fmt.Errorf("content: send contact: %w", err)
}
