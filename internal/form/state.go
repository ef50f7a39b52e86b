package form

import (
	"errors"
	"sort"
	"strings"
)

// FieldState is the display state of a single input.
type FieldState int

const (
	Pristine FieldState = iota
	Focused
	Valid
	Invalid
)

func (s FieldState) String() string {
	switch s {
	case Focused:
		return "focused"
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "pristine"
	}
}

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// SummaryMessage is the banner shown above a form that failed validation.
const SummaryMessage = "Por favor, preencha todos os campos obrigatórios."

// ValidationError carries one message per offending field. It never
// reaches the network layer.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Field returns the message for name, or "".
func (e *ValidationError) Field(name string) string {
	if e == nil {
		return ""
	}
	return e.Fields[name]
}

// Tracker keeps the per-field state of one form.
type Tracker struct {
	states   map[string]FieldState
	messages map[string]string
}

// NewTracker starts every named field as Pristine.
func NewTracker(fields ...string) *Tracker {
	t := &Tracker{
		states:   make(map[string]FieldState, len(fields)),
		messages: make(map[string]string),
	}
	for _, f := range fields {
		t.states[f] = Pristine
	}
	return t
}

func (t *Tracker) Focus(field string) {
	t.states[field] = Focused
}

// Blur leaves a field with the result of validating it: msg == "" means valid.
func (t *Tracker) Blur(field, msg string) {
	if msg == "" {
		t.states[field] = Valid
		delete(t.messages, field)
		return
	}
	t.states[field] = Invalid
	t.messages[field] = msg
}

// Apply records the outcome of a full-form validation. Every tracked field
// not named by err becomes Valid.
func (t *Tracker) Apply(err error) {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		verr = &ValidationError{}
	}
	for f := range t.states {
		t.Blur(f, verr.Fields[f])
	}
	for f, msg := range verr.Fields {
		if _, ok := t.states[f]; !ok {
			t.Blur(f, msg)
		}
	}
}

// State returns the state of field; unknown fields are Pristine.
func (t *Tracker) State(field string) FieldState {
	return t.states[field]
}

// Message returns the inline error for field, if any.
func (t *Tracker) Message(field string) string {
	return t.messages[field]
}

// Reset returns every field to Pristine.
func (t *Tracker) Reset() {
	for f := range t.states {
		t.states[f] = Pristine
	}
	t.messages = make(map[string]string)
}
