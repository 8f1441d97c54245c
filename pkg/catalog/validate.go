package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-leadform/pkg/model"
)

// ErrInvalidCatalog is wrapped by every validation failure.
var ErrInvalidCatalog = errors.New("catalog: invalid catalog")

// Validate checks the structural rules every catalog must satisfy before an
// engine can run it.
func Validate(cat model.Catalog) error {
	if cat.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidCatalog)
	}
	if cat.FormType == "" {
		return fmt.Errorf("%w: catalog %q has no formType", ErrInvalidCatalog, cat.ID)
	}
	if len(cat.Steps) == 0 {
		return fmt.Errorf("%w: catalog %q has no steps", ErrInvalidCatalog, cat.ID)
	}

	seen := make(map[string]int, len(cat.Steps))
	for idx, step := range cat.Steps {
		if step.Ordinal != idx {
			return fmt.Errorf("%w: catalog %q step %d has ordinal %d", ErrInvalidCatalog, cat.ID, idx, step.Ordinal)
		}
		if step.AnswerKey == "" {
			return fmt.Errorf("%w: catalog %q step %d has no answerKey", ErrInvalidCatalog, cat.ID, idx)
		}
		if step.AnswerKey == FormTypeKey {
			return fmt.Errorf("%w: catalog %q step %d uses reserved key %q", ErrInvalidCatalog, cat.ID, idx, FormTypeKey)
		}
		if prev, ok := seen[step.AnswerKey]; ok {
			return fmt.Errorf("%w: catalog %q answerKey %q used by steps %d and %d", ErrInvalidCatalog, cat.ID, step.AnswerKey, prev, idx)
		}
		seen[step.AnswerKey] = idx

		if strings.TrimSpace(step.Prompt) == "" {
			return fmt.Errorf("%w: catalog %q step %q has no prompt", ErrInvalidCatalog, cat.ID, step.AnswerKey)
		}
		if err := validateOptions(cat.ID, step); err != nil {
			return err
		}
	}
	return nil
}

func validateOptions(catalogID string, step model.StepDefinition) error {
	if !step.Kind.Valid() {
		return fmt.Errorf("%w: catalog %q step %q has unknown kind %q", ErrInvalidCatalog, catalogID, step.AnswerKey, step.Kind)
	}

	if !step.Kind.HasOptions() {
		if len(step.Options) > 0 {
			return fmt.Errorf("%w: catalog %q step %q is free text but declares options", ErrInvalidCatalog, catalogID, step.AnswerKey)
		}
		switch step.InputHint {
		case model.InputHintText, model.InputHintEmail, model.InputHintTextarea:
			return nil
		default:
			return fmt.Errorf("%w: catalog %q step %q has unknown input hint %q", ErrInvalidCatalog, catalogID, step.AnswerKey, step.InputHint)
		}
	}

	if len(step.Options) == 0 {
		return fmt.Errorf("%w: catalog %q step %q requires options", ErrInvalidCatalog, catalogID, step.AnswerKey)
	}
	unique := make(map[string]struct{}, len(step.Options))
	for _, option := range step.Options {
		if strings.TrimSpace(option) == "" {
			return fmt.Errorf("%w: catalog %q step %q has an empty option", ErrInvalidCatalog, catalogID, step.AnswerKey)
		}
		if _, dup := unique[option]; dup {
			return fmt.Errorf("%w: catalog %q step %q repeats option %q", ErrInvalidCatalog, catalogID, step.AnswerKey, option)
		}
		unique[option] = struct{}{}
	}

	switch step.Kind {
	case model.StepKindScale:
		for _, option := range step.Options {
			if _, err := strconv.Atoi(option); err != nil {
				return fmt.Errorf("%w: catalog %q scale step %q has non-numeric option %q", ErrInvalidCatalog, catalogID, step.AnswerKey, option)
			}
		}
	case model.StepKindBinary:
		if len(step.Options) != 2 {
			return fmt.Errorf("%w: catalog %q binary step %q needs exactly two options, got %d", ErrInvalidCatalog, catalogID, step.AnswerKey, len(step.Options))
		}
	}
	return nil
}
