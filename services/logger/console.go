package logsvc

import (
	"fmt"
	"io"
	"strings"

	"github.com/labstack/gommon/log"

	"github.com/trezcool/studydash/core"
	"github.com/trezcool/studydash/core/errlog"
)

const header = "${time_rfc3339} ${level} ${prefix} :"

// ConsoleLogger is the console of the pipeline: leveled output on top of gommon/log.
type ConsoleLogger struct {
	l *log.Logger
}

var _ core.Logger = (*ConsoleLogger)(nil)

func NewConsoleLogger(prefix string, w io.Writer, debug bool) *ConsoleLogger {
	l := log.New(prefix)
	l.SetHeader(header)
	l.SetOutput(w)
	if debug {
		l.SetLevel(log.DEBUG)
	} else {
		l.SetLevel(log.INFO)
	}
	return &ConsoleLogger{l: l}
}

// format renders msg followed by one line per arg.
func format(msg string, args []interface{}) string {
	var b strings.Builder
	b.WriteString(msg)
	for _, arg := range args {
		b.WriteString("\n\t")
		switch v := arg.(type) {
		case errlog.LogEntry:
			_, _ = fmt.Fprintf(&b, "id=%s severity=%s source=%q session=%s", v.ID, v.Severity, v.Source, v.SessionID)
		default: // errors built with pkg/errors print their stack
			_, _ = fmt.Fprintf(&b, "%+v", v)
		}
	}
	return b.String()
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	c.l.Debug(format(msg, args))
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	c.l.Info(format(msg, args))
}

func (c *ConsoleLogger) Warn(msg string, args ...interface{}) {
	c.l.Warn(format(msg, args))
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	c.l.Error(format(msg, args))
}

func (c *ConsoleLogger) Fatal(msg string, args ...interface{}) {
	c.l.Fatal(format(msg, args))
}
