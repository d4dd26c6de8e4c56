package echoapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/studydash/core/platform"
)

// apiKeyMiddleware expects "Authorization: Bearer <key>". An empty key disables the check.
func apiKeyMiddleware(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if key == "" {
				return next(ctx)
			}
			auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				return errUnauthorized
			}
			if subtle.ConstantTimeCompare([]byte(auth[len(prefix):]), []byte(key)) != 1 {
				return errUnauthorized
			}
			return next(ctx)
		}
	}
}

// recoverMiddleware reports handler panics as uncaught exceptions and answers 500.
func recoverMiddleware(hooks *platform.Hooks) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				if hooks != nil {
					hooks.Panic(r)
				}
				err = errRecovered
			}()
			return next(ctx)
		}
	}
}
