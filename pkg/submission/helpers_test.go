package submission_test

import (
	"testing"

	"github.com/goliatone/go-leadform/pkg/model"
)

func engineCatalog(t *testing.T) model.Catalog {
	t.Helper()
	return model.Catalog{
		ID:       "t",
		FormType: "T",
		Steps: []model.StepDefinition{
			{Ordinal: 0, AnswerKey: "a", Kind: model.StepKindText, InputHint: model.InputHintText, Prompt: "A"},
			{Ordinal: 1, AnswerKey: "b", Kind: model.StepKindText, InputHint: model.InputHintText, Prompt: "B"},
		},
	}
}
