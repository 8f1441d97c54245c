// Package model defines the typed step catalog consumed by the form engine and
// its presentation bindings. A Catalog is an ordered, immutable list of
// StepDefinition values; each step writes exactly one key of the AnswerRecord.
// Steps expose a Kind (text, select, scale, binary) plus an InputHint for
// free-text steps (text, email, textarea) so renderers can choose a widget
// without inspecting prompts. Metadata and UIHints carry renderer-facing
// directives such as `widget` overrides and are never interpreted by the
// engine itself.
package model
