// Package service implements the billing operations on top of the
// repositories: validation, reports and user administration.  Operations
// return explicit results instead of relying on request-scoped side
// channels; handlers decide how to render them.
package service

import (
	"strings"
)

// Severity tags a user-facing message.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Message is a human-readable status line.
type Message struct {
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

// FieldError is a validation problem attached to one submitted field.
// Field is empty for problems that concern the whole form.
type FieldError struct {
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"-"`
}

// Problems is the list of validation failures of one operation.
type Problems []FieldError

func (p Problems) Error() string {
	msgs := make([]string, len(p))
	for i, fe := range p {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

func (p *Problems) add(field, msg string) {
	*p = append(*p, FieldError{Field: field, Message: msg, Severity: SeverityDanger})
}

func (p *Problems) warn(field, msg string) {
	*p = append(*p, FieldError{Field: field, Message: msg, Severity: SeverityWarning})
}

// Form holds submitted field values as strings, exactly as received.
type Form map[string]string

// Get returns the trimmed value of key.
func (f Form) Get(key string) string {
	return strings.TrimSpace(f[key])
}

// Outcome is the result of a mutating operation.  When Problems is non
// empty nothing was written and Form carries the submitted values back
// for re-population.
type Outcome struct {
	ID       int64
	Messages []Message
	Problems Problems
	Form     Form
}

// OK reports whether the operation passed validation.
func (o Outcome) OK() bool { return len(o.Problems) == 0 }

func (o *Outcome) say(sev Severity, text string) {
	o.Messages = append(o.Messages, Message{Severity: sev, Text: text})
}

// rejected builds the outcome of a failed validation: every problem
// becomes a message and the form is handed back untouched.
func rejected(form Form, problems Problems) Outcome {
	out := Outcome{Problems: problems, Form: form}
	for _, p := range problems {
		out.say(p.Severity, p.Message)
	}
	return out
}
