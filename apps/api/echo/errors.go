package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studydash/core"
	"github.com/trezcool/studydash/core/dispatch"
	"github.com/trezcool/studydash/core/errlog"
)

const (
	httpSource    = "HTTP Error Handler"
	collectorPath = "/v1/logs"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing API key")
	errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")

	// errRecovered is returned once a panic has been reported by the recover middleware.
	errRecovered = echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that routes failures through the dispatcher.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(
	logger core.Logger,
	d *dispatch.Dispatcher,
	translator ut.Translator,
	signalShutdown func(),
) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		req := ctx.Request()
		details := dispatch.WithDetails(errlog.Details{
			Endpoint:  req.Method + " " + req.URL.Path,
			URL:       req.URL.String(),
			UserAgent: req.UserAgent(),
		})
		source := dispatch.WithSource(httpSource)

		// Rejected shipments are never captured, so a remote sink pointed at a collector cannot feed itself.
		if isCollectorRequest(ctx) {
			code, message := collectorResponse(err, translator)
			logger.Warn(fmt.Sprintf("rejected shipped entry: %d %v", code, message), err)
			respond(ctx, code, message)
			return
		}

		var code int
		var message interface{}
		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			code = origErr.Code
			message = origErr.Message
			switch {
			case origErr == errRecovered:
				// already reported as an uncaught exception
			case code == http.StatusUnauthorized:
				d.HandleAuth(origErr.Message, source, details)
			case code == http.StatusForbidden:
				d.HandlePermission(req.URL.Path, source, details)
			}
		case validator.ValidationErrors:
			d.HandleValidation(origErr, source, details)
			code = http.StatusBadRequest
			message = translateFields(origErr, translator)
		case *core.ValidationError:
			d.HandleValidation(origErr, source, details)
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			id := d.Handle(err, source, details,
				dispatch.WithSeverity(errlog.SeverityCritical),
				dispatch.Escalate(true),
			)
			logger.Error(msg, errors.Wrap(err, msg))
			message = echo.Map{"error": msg, "errorId": id}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError && err != errRecovered {
			if m, ok := message.(echo.Map); ok {
				m["error"] = err.Error()
			}
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		respond(ctx, code, message)
	}
}

// isCollectorRequest reports whether ctx is a shipment to the collector endpoint.
func isCollectorRequest(ctx echo.Context) bool {
	return ctx.Request().Method == http.MethodPost && ctx.Path() == collectorPath
}

// collectorResponse maps a collector failure to its response without dispatching it.
func collectorResponse(err error, translator ut.Translator) (int, interface{}) {
	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if m, ok := origErr.Message.(string); ok {
			return origErr.Code, echo.Map{"error": m}
		}
		return origErr.Code, origErr.Message
	case validator.ValidationErrors:
		return http.StatusBadRequest, translateFields(origErr, translator)
	default:
		return http.StatusInternalServerError, echo.Map{"error": http.StatusText(http.StatusInternalServerError)}
	}
}

func translateFields(verrs validator.ValidationErrors, translator ut.Translator) map[string]string {
	fldErrs := make(map[string]string, len(verrs))
	for _, vErr := range verrs {
		fldErrs[vErr.Field()] = vErr.Translate(translator)
	}
	return fldErrs
}

func respond(ctx echo.Context, code int, message interface{}) {
	if ctx.Response().Committed {
		return
	}
	var err error
	if ctx.Request().Method == http.MethodHead { // Issue #608
		err = ctx.NoContent(code)
	} else {
		err = ctx.JSON(code, message)
	}
	if err != nil {
		ctx.Echo().Logger.Error(err)
	}
}
