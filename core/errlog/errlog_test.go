package errlog

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSeverity_Variant(t *testing.T) {
	tests := []struct {
		sev  Severity
		want Variant
	}{
		{SeverityCritical, VariantDestructive},
		{SeverityHigh, VariantDestructive},
		{SeverityMedium, VariantWarning},
		{SeverityLow, VariantInfo},
		{"", VariantInfo},
	}
	for _, tt := range tests {
		t.Run(string(tt.sev), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sev.Variant())
		})
	}
}

func TestSeverity_Valid(t *testing.T) {
	for _, s := range Severities {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Severity("").Valid())
	assert.False(t, Severity("fatal").Valid())
	assert.Equal(t, SeverityMedium, Severity("").OrDefault())
	assert.Equal(t, SeverityLow, SeverityLow.OrDefault())
	assert.Equal(t, SeverityMedium, Severity("fatal").OrDefault())
	assert.Equal(t, SeverityMedium, Severity("HIGH").OrDefault())
}

type stringer struct{}

func (stringer) String() string { return "stringer" }

func TestNormalize(t *testing.T) {
	plain := fmt.Errorf("plain")
	wrapped := errors.Wrap(errors.New("root cause"), "loading")
	own := &Error{Message: "own"}

	tests := []struct {
		name      string
		in        interface{}
		wantMsg   string
		wantStack bool
		wantCause error
	}{
		{name: "nil", in: nil, wantMsg: "unknown error"},
		{name: "empty string", in: "", wantMsg: "unknown error"},
		{name: "string", in: "Failed to fetch", wantMsg: "Failed to fetch"},
		{name: "plain error", in: plain, wantMsg: "plain", wantCause: plain},
		{name: "pkg/errors", in: wrapped, wantMsg: "loading: root cause", wantStack: true, wantCause: wrapped},
		{name: "stringer", in: stringer{}, wantMsg: "stringer"},
		{name: "other", in: 42, wantMsg: "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Normalize(tt.in)
			assert.Equal(t, tt.wantMsg, e.Message)
			assert.Equal(t, tt.wantStack, e.Stack != "", e.Stack)
			assert.Equal(t, tt.wantCause, e.Cause)
		})
	}

	t.Run("already normalized", func(t *testing.T) {
		assert.Same(t, own, Normalize(own))
		assert.Same(t, own, Normalize(error(own)))
	})
}

func TestNewError(t *testing.T) {
	e := NewError("boom")
	assert.Equal(t, "boom", e.Error())
	assert.Contains(t, e.Stack, "TestNewError")
	assert.Equal(t, "boom", errors.Unwrap(e).Error())
}

func TestNewID(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	id := NewID("error", now)
	assert.Regexp(t, regexp.MustCompile(`^error_1709287200000_[0-9a-f]{9}$`), id)
	assert.NotEqual(t, id, NewID("error", now))
}

func TestDetails_Merge(t *testing.T) {
	base := Details{
		Operation:        "load",
		Type:             "async",
		ValidationErrors: map[string]string{"name": "required"},
		Extra:            map[string]interface{}{"a": 1},
	}
	got := base.Merge(Details{
		Type:             "network",
		Endpoint:         "/api/x",
		ValidationErrors: map[string]string{"email": "invalid"},
		Extra:            map[string]interface{}{"b": 2},
	})

	assert.Equal(t, Details{
		Operation:        "load",
		Type:             "network",
		Endpoint:         "/api/x",
		ValidationErrors: map[string]string{"name": "required", "email": "invalid"},
		Extra:            map[string]interface{}{"a": 1, "b": 2},
	}, got)
	assert.Equal(t, map[string]string{"name": "required"}, base.ValidationErrors, "base is left untouched")
	assert.Nil(t, Details{}.Merge(Details{}).Extra)
}
