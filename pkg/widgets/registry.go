package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-leadform/pkg/model"
)

// Built-in widget identifiers. Each names a template under widgets/ in the
// HTML renderer.
const (
	WidgetTextInput    = "text-input"
	WidgetEmailInput   = "email-input"
	WidgetTextarea     = "textarea"
	WidgetOptionList   = "option-list"
	WidgetScaleGrid    = "scale-grid"
	WidgetBinaryChoice = "binary-choice"
)

// HintKey is the metadata and UI hint key that pins a widget explicitly.
const HintKey = "widget"

// Matcher decides whether a widget should draw the supplied step.
type Matcher func(step model.StepDefinition) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for steps based on explicit hints or registered
// matchers. Higher priority wins; ties fall back to registration order.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a matcher. The latest registration of a name wins ties.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget for a step. An explicit hint always wins.
func (r *Registry) Resolve(step model.StepDefinition) (string, bool) {
	if explicit := explicitWidget(step); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(step) {
			return entry.name, true
		}
	}
	return "", false
}

// Decorate implements model.Decorator, pinning the resolved widget into each
// step's UI hints so renderers never resolve twice.
func (r *Registry) Decorate(cat *model.Catalog) error {
	if r == nil || cat == nil {
		return nil
	}
	steps := make([]model.StepDefinition, len(cat.Steps))
	for idx, step := range cat.Steps {
		if widget, ok := r.Resolve(step); ok && widget != "" {
			hints := make(map[string]string, len(step.UIHints)+1)
			for k, v := range step.UIHints {
				hints[k] = v
			}
			if hints[HintKey] == "" {
				hints[HintKey] = widget
			}
			step.UIHints = hints
		}
		steps[idx] = step
	}
	cat.Steps = steps
	return nil
}

func explicitWidget(step model.StepDefinition) string {
	if widget := strings.TrimSpace(step.UIHints[HintKey]); widget != "" {
		return widget
	}
	return strings.TrimSpace(step.Metadata[HintKey])
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetBinaryChoice, 90, func(step model.StepDefinition) bool {
		return step.Kind == model.StepKindBinary
	})

	r.Register(WidgetScaleGrid, 80, func(step model.StepDefinition) bool {
		return step.Kind == model.StepKindScale
	})

	r.Register(WidgetOptionList, 70, func(step model.StepDefinition) bool {
		return step.Kind == model.StepKindSelect
	})

	r.Register(WidgetTextarea, 60, func(step model.StepDefinition) bool {
		return step.Kind == model.StepKindText && step.InputHint == model.InputHintTextarea
	})

	r.Register(WidgetEmailInput, 50, func(step model.StepDefinition) bool {
		return step.Kind == model.StepKindText && step.InputHint == model.InputHintEmail
	})

	r.Register(WidgetTextInput, 10, func(step model.StepDefinition) bool {
		return step.Kind == model.StepKindText
	})
}
