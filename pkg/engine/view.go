package engine

import "github.com/goliatone/go-leadform/pkg/model"

// OptionView is one selectable choice of a select, scale or binary step.
type OptionView struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// StepView is the read-only description of the step under the cursor.
type StepView struct {
	Ordinal     int               `json:"ordinal"`
	AnswerKey   string            `json:"answer_key"`
	Kind        model.StepKind    `json:"kind"`
	InputHint   string            `json:"input_hint,omitempty"`
	Prompt      string            `json:"prompt"`
	Hint        string            `json:"hint,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Options     []OptionView      `json:"options,omitempty"`
	Value       string            `json:"value"`
	Widget      string            `json:"widget,omitempty"`
	UIHints     map[string]string `json:"ui_hints,omitempty"`
}

// Progress reports the 1-based position of the cursor.
type Progress struct {
	Position int `json:"position"`
	Total    int `json:"total"`
	Percent  int `json:"percent"`
}

// View is everything a presentation binding needs to draw one screen.
type View struct {
	CatalogID   string   `json:"catalog_id"`
	Title       string   `json:"title,omitempty"`
	SubmitLabel string   `json:"submit_label,omitempty"`
	Step        StepView `json:"step"`
	Progress    Progress `json:"progress"`
	Status      Status   `json:"status"`
	CanAdvance  bool     `json:"can_advance"`
	CanRetreat  bool     `json:"can_retreat"`
	CanSubmit   bool     `json:"can_submit"`
	IsTerminal  bool     `json:"is_terminal"`
	Submitting  bool     `json:"submitting"`
	Submitted   bool     `json:"submitted"`
	Failed      bool     `json:"failed"`
	LastError   string   `json:"last_error,omitempty"`
}

// View snapshots the current screen.
func (s *Session) View() View {
	step := s.CurrentStep()
	value := s.state.Answers[step.AnswerKey]

	var options []OptionView
	if len(step.Options) > 0 {
		options = make([]OptionView, 0, len(step.Options))
		for _, label := range step.Options {
			options = append(options, OptionView{
				Label:    label,
				Value:    label,
				Selected: label == value,
			})
		}
	}

	total := s.catalog.Len()
	position := s.state.Cursor + 1

	return View{
		CatalogID:   s.catalog.ID,
		Title:       s.catalog.Title,
		SubmitLabel: s.catalog.SubmitLabel,
		Step: StepView{
			Ordinal:     step.Ordinal,
			AnswerKey:   step.AnswerKey,
			Kind:        step.Kind,
			InputHint:   step.InputHint,
			Prompt:      step.Prompt,
			Hint:        step.Hint,
			Placeholder: step.Placeholder,
			Options:     options,
			Value:       value,
			Widget:      step.UIHints["widget"],
			UIHints:     cloneHints(step.UIHints),
		},
		Progress: Progress{
			Position: position,
			Total:    total,
			Percent:  position * 100 / total,
		},
		Status:      s.state.Status,
		CanAdvance:  s.CanAdvance(),
		CanRetreat:  s.CanRetreat(),
		CanSubmit:   s.CanSubmit(),
		IsTerminal:  s.IsTerminal(),
		Submitting:  s.state.Status == StatusSubmitting,
		Submitted:   s.state.Status == StatusSubmitted,
		Failed:      s.state.Status == StatusFailed,
		LastError:   s.state.LastError,
	}
}

func cloneHints(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
