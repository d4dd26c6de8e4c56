package dispatch

import (
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/studydash/core"
	"github.com/trezcool/studydash/core/errlog"
)

const (
	connectivityDescription = "Unable to connect to the server. Please check your internet connection and try again."
	serverDescription       = "We couldn't reach the server to complete your request. Please try again later."
)

var connectivityMarkers = []string{"fetch", "network", "failed to fetch", "networkerror", "connection"}

// prepend returns the wrapper defaults followed by the caller options.
func prepend(opts []Option, defaults ...Option) []Option {
	return append(defaults, opts...)
}

// HandleAsync reports the failure of a background operation.
func (d *Dispatcher) HandleAsync(err interface{}, operation string, opts ...Option) string {
	return d.Handle(err, prepend(opts,
		WithDetails(errlog.Details{Operation: operation, Type: "async"}),
	)...)
}

// HandleNetwork reports a failed call to endpoint; severity defaults to high.
// The default description tells connectivity problems apart from server failures.
func (d *Dispatcher) HandleNetwork(err interface{}, endpoint string, opts ...Option) string {
	e := errlog.Normalize(err)
	desc := serverDescription
	if IsConnectivityError(e) {
		desc = connectivityDescription
	}
	return d.Handle(e, prepend(opts,
		WithSeverity(errlog.SeverityHigh),
		WithDetails(errlog.Details{Endpoint: endpoint, Type: "network"}),
		WithDescription(desc),
	)...)
}

// IsConnectivityError reports whether err looks like the network itself failed.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range connectivityMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// HandleValidation reports invalid user input; severity defaults to low.
// errs is a message (string), an ordered []core.FieldError, a *core.ValidationError,
// validator.ValidationErrors or a map[string]string (joined in field name order).
// Callers that need their own message order pass a []core.FieldError.
func (d *Dispatcher) HandleValidation(errs interface{}, opts ...Option) string {
	msg, fields := d.validationMessage(errs)
	return d.Handle(&errlog.Error{Message: msg}, prepend(opts,
		WithSeverity(errlog.SeverityLow),
		WithDetails(errlog.Details{Type: "validation", ValidationErrors: fields}),
	)...)
}

func (d *Dispatcher) validationMessage(errs interface{}) (string, map[string]string) {
	var flds []core.FieldError
	switch v := errs.(type) {
	case string:
		return v, nil
	case []core.FieldError:
		flds = v
	case *core.ValidationError:
		if len(v.Fields) == 0 {
			return v.Error(), nil
		}
		flds = v.Fields
	case validator.ValidationErrors:
		flds = make([]core.FieldError, 0, len(v))
		for _, fe := range v {
			msg := fe.Error()
			if d.deps.Translator != nil {
				msg = fe.Translate(d.deps.Translator)
			}
			flds = append(flds, core.FieldError{Field: fe.Field(), Error: msg})
		}
	case map[string]string:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		flds = make([]core.FieldError, 0, len(v))
		for _, name := range names {
			flds = append(flds, core.FieldError{Field: name, Error: v[name]})
		}
	case error:
		return v.Error(), nil
	default:
		return fmt.Sprint(v), nil
	}

	msgs := make([]string, 0, len(flds))
	fields := make(map[string]string, len(flds))
	for _, fe := range flds {
		msgs = append(msgs, fe.Error)
		fields[fe.Field] = fe.Error
	}
	return strings.Join(msgs, ", "), fields
}

// HandleAuth reports an authentication failure; severity defaults to high
// and the toast offers to go to the login page.
func (d *Dispatcher) HandleAuth(err interface{}, opts ...Option) string {
	return d.Handle(err, prepend(opts,
		WithSeverity(errlog.SeverityHigh),
		WithDetails(errlog.Details{Type: "auth"}),
		WithAction("Log in", d.navigateTo(d.deps.LoginPath)),
	)...)
}

// HandlePermission reports a denied access to resource; severity defaults to medium.
func (d *Dispatcher) HandlePermission(resource string, opts ...Option) string {
	msg := fmt.Sprintf("You don't have permission to access %s", resource)
	return d.Handle(&errlog.Error{Message: msg}, prepend(opts,
		WithSeverity(errlog.SeverityMedium),
		WithDetails(errlog.Details{Resource: resource, Type: "permission"}),
	)...)
}

func (d *Dispatcher) navigateTo(path string) func() {
	return func() {
		if d.deps.Navigate != nil {
			d.deps.Navigate(path)
		}
	}
}
