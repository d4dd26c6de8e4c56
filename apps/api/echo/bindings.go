package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/studydash/core/errlog"
)

const sessionCurrent = "current"

type appValidator struct {
	validate *validator.Validate
}

func (v *appValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// LogsQuery holds the filters of GET /v1/logs.
type LogsQuery struct {
	Severity   string `json:"severity" query:"severity" validate:"omitempty,severity"`
	Unresolved bool   `json:"unresolved" query:"unresolved"`
	Session    string `json:"session" query:"session" validate:"omitempty,oneof=current"`
}

func (q *LogsQuery) Bind(ctx echo.Context) error {
	if err := ctx.Bind(q); err != nil {
		return err
	}
	return ctx.Validate(q)
}

// Filter returns the entries matching every filter of q, in capture order.
func (q LogsQuery) Filter(logs LogService) []errlog.LogEntry {
	var entries []errlog.LogEntry
	if q.Session == sessionCurrent {
		entries = logs.CurrentSession()
	} else {
		entries = logs.All()
	}

	out := make([]errlog.LogEntry, 0, len(entries))
	for _, e := range entries {
		if q.Severity != "" && e.Severity != errlog.Severity(q.Severity) {
			continue
		}
		if q.Unresolved && e.Resolved {
			continue
		}
		out = append(out, e)
	}
	return out
}
