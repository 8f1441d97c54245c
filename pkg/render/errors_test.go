package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-leadform/pkg/render"
)

func TestMapErrorPayload_FormServiceFields(t *testing.T) {
	fields := []string{"name", "email", "project", "message"}

	payload := map[string][]string{
		"email":            {"should be an email", " should be an email "},
		"/body/name":       {"Name is required"},
		"data.Project":     {"Pick a project"},
		"phone":            {"Should fall back to form errors"},
		"":                 {"Form not found"},
		"non_field_errors": {"Try again later", ""},
	}

	mapped := render.MapErrorPayload(fields, payload)

	wantFields := map[string][]string{
		"email":   {"should be an email"},
		"name":    {"Name is required"},
		"project": {"Pick a project"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantForm := []string{"Form not found", "Should fall back to form errors", "Try again later"}
	if diff := cmp.Diff(wantForm, mapped.Form, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMapErrorPayload_Empty(t *testing.T) {
	mapped := render.MapErrorPayload([]string{"name"}, nil)
	if mapped.Fields != nil || mapped.Form != nil {
		t.Fatalf("expected empty mapping, got %#v", mapped)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}
