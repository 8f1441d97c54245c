package model

import "strings"

// StepKind is the input family a step belongs to.
type StepKind string

const (
	StepKindText   StepKind = "text"
	StepKindSelect StepKind = "select"
	StepKindScale  StepKind = "scale"
	StepKindBinary StepKind = "binary"
)

// Valid reports whether the kind is one of the known step kinds.
func (k StepKind) Valid() bool {
	switch k {
	case StepKindText, StepKindSelect, StepKindScale, StepKindBinary:
		return true
	default:
		return false
	}
}

// HasOptions reports whether steps of this kind carry an option set.
func (k StepKind) HasOptions() bool {
	return k == StepKindSelect || k == StepKindScale || k == StepKindBinary
}

const (
	InputHintText     = "text"
	InputHintEmail    = "email"
	InputHintTextarea = "textarea"
)

// StepDefinition describes one question screen. Definitions are immutable
// once a catalog has been loaded.
type StepDefinition struct {
	Ordinal     int               `json:"ordinal" yaml:"ordinal"`
	AnswerKey   string            `json:"answerKey" yaml:"answerKey"`
	Kind        StepKind          `json:"kind" yaml:"kind"`
	InputHint   string            `json:"inputHint,omitempty" yaml:"inputHint,omitempty"`
	Prompt      string            `json:"prompt" yaml:"prompt"`
	Hint        string            `json:"hint,omitempty" yaml:"hint,omitempty"`
	Placeholder string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options     []string          `json:"options,omitempty" yaml:"options,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	UIHints     map[string]string `json:"uiHints,omitempty" yaml:"uiHints,omitempty"`
}

// HasOption reports whether value is one of the step's option labels.
func (s StepDefinition) HasOption(value string) bool {
	for _, option := range s.Options {
		if option == value {
			return true
		}
	}
	return false
}

// Catalog is the ordered step list for one form plus the literal form type
// attached to submissions.
type Catalog struct {
	ID          string            `json:"id" yaml:"id"`
	FormType    string            `json:"formType" yaml:"formType"`
	Title       string            `json:"title,omitempty" yaml:"title,omitempty"`
	SubmitLabel string            `json:"submitLabel,omitempty" yaml:"submitLabel,omitempty"`
	Steps       []StepDefinition  `json:"steps" yaml:"steps"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Len returns the number of steps.
func (c Catalog) Len() int {
	return len(c.Steps)
}

// StepAt returns the step at ordinal idx.
func (c Catalog) StepAt(idx int) (StepDefinition, bool) {
	if idx < 0 || idx >= len(c.Steps) {
		return StepDefinition{}, false
	}
	return c.Steps[idx], true
}

// Keys returns the answer keys in step order.
func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c.Steps))
	for _, step := range c.Steps {
		keys = append(keys, step.AnswerKey)
	}
	return keys
}

// HasKey reports whether any step writes key.
func (c Catalog) HasKey(key string) bool {
	for _, step := range c.Steps {
		if step.AnswerKey == key {
			return true
		}
	}
	return false
}

// AnswerRecord maps answer keys to the raw string collected for each step.
type AnswerRecord map[string]string

// NewAnswerRecord seeds one empty value per catalog step.
func NewAnswerRecord(c Catalog) AnswerRecord {
	record := make(AnswerRecord, len(c.Steps))
	for _, step := range c.Steps {
		record[step.AnswerKey] = ""
	}
	return record
}

// Filled reports whether the value stored under key is non-empty once
// surrounding whitespace is removed.
func (r AnswerRecord) Filled(key string) bool {
	return strings.TrimSpace(r[key]) != ""
}

// Clone returns an independent copy of the record.
func (r AnswerRecord) Clone() AnswerRecord {
	if r == nil {
		return nil
	}
	out := make(AnswerRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
