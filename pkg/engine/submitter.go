package engine

import (
	"context"
	"sort"
)

// Payload is the flat record handed to the submission collaborator: every
// answer plus the catalog's form type.
type Payload map[string]string

// Keys returns the payload keys in sorted order.
func (p Payload) Keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Submitter delivers a completed payload to the external form service.
// Implementations must not retry on their own.
type Submitter interface {
	Submit(ctx context.Context, payload Payload) error
}

// SubmitterFunc adapts a function into a Submitter.
type SubmitterFunc func(ctx context.Context, payload Payload) error

// Submit calls the underlying function.
func (fn SubmitterFunc) Submit(ctx context.Context, payload Payload) error {
	return fn(ctx, payload)
}

// Event describes one accepted or rejected transition.
type Event struct {
	Action    string
	CatalogID string
	From      Status
	To        Status
	Cursor    int
	Err       error
}

// Observer receives transition events. Observers run synchronously on the
// caller's goroutine and must not call back into the session.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function into an Observer.
type ObserverFunc func(Event)

// Observe calls the underlying function.
func (fn ObserverFunc) Observe(evt Event) {
	fn(evt)
}
