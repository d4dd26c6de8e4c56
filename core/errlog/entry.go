// Package errlog holds the types shared by the error logging pipeline:
// the severity taxonomy, log entries and the normalized error value.
package errlog

import (
	"time"
)

const SourceUnknown = "Unknown"

type (
	// Details is the extension bag of a LogEntry.
	// The known fields are typed; anything else goes to Extra.
	Details struct {
		Operation        string            `json:"operation,omitempty"`
		Type             string            `json:"type,omitempty"`
		Endpoint         string            `json:"endpoint,omitempty"`
		Resource         string            `json:"resource,omitempty"`
		ValidationErrors map[string]string `json:"validationErrors,omitempty"`

		// platform capture metadata
		Filename string `json:"filename,omitempty"`
		Line     int    `json:"lineno,omitempty"`
		Column   int    `json:"colno,omitempty"`

		// environment overrides (e.g. the request of an HTTP capture)
		URL       string `json:"-"`
		UserAgent string `json:"-"`

		Extra map[string]interface{} `json:"extra,omitempty"`
	}

	// Context is what a caller knows about a failure when capturing it.
	Context struct {
		Source   string
		Severity Severity
		Details
	}

	// LogEntry is the record of one failure.
	// It is immutable once created, except for Resolved which only goes from false to true.
	LogEntry struct {
		ID             string    `json:"id" validate:"required"`
		Timestamp      time.Time `json:"timestamp" validate:"required"`
		Message        string    `json:"message" validate:"required"`
		Stack          string    `json:"stack,omitempty"`
		Source         string    `json:"source"`
		Severity       Severity  `json:"severity" validate:"required,severity"`
		SessionID      string    `json:"sessionId" validate:"required"`
		UserAgent      string    `json:"userAgent"`
		URL            string    `json:"url"`
		AdditionalData Details   `json:"additionalData"`
		Resolved       bool      `json:"resolved"`
	}
)

// Merge returns d overridden by the non-zero fields of other.
// Extra and ValidationErrors are merged key by key.
func (d Details) Merge(other Details) Details {
	out := d
	if other.Operation != "" {
		out.Operation = other.Operation
	}
	if other.Type != "" {
		out.Type = other.Type
	}
	if other.Endpoint != "" {
		out.Endpoint = other.Endpoint
	}
	if other.Resource != "" {
		out.Resource = other.Resource
	}
	if other.Filename != "" {
		out.Filename = other.Filename
	}
	if other.Line != 0 {
		out.Line = other.Line
	}
	if other.Column != 0 {
		out.Column = other.Column
	}
	if other.URL != "" {
		out.URL = other.URL
	}
	if other.UserAgent != "" {
		out.UserAgent = other.UserAgent
	}
	out.ValidationErrors = mergeStrings(d.ValidationErrors, other.ValidationErrors)
	out.Extra = mergeAny(d.Extra, other.Extra)
	return out
}

func mergeStrings(a, b map[string]string) map[string]string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func mergeAny(a, b map[string]interface{}) map[string]interface{} {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
