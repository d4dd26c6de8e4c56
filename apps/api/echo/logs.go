package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studydash/core/dispatch"
	"github.com/trezcool/studydash/core/errlog"
)

const exportFilename = "error-logs.json"

type logsAPI struct {
	logs       LogService
	dispatcher *dispatch.Dispatcher
}

func registerLogsAPI(g *echo.Group, auth echo.MiddlewareFunc, logs LogService, d *dispatch.Dispatcher) {
	api := logsAPI{logs: logs, dispatcher: d}

	lg := g.Group("/logs", auth)
	lg.POST("", api.collect)
	lg.GET("", api.query)
	lg.DELETE("", api.clear)
	lg.GET("/stats", api.stats)
	lg.GET("/export", api.export)
	lg.POST("/:id/resolve", api.resolve)
}

// Handlers

// collect receives an entry shipped by the remote sink of another store.
func (api *logsAPI) collect(ctx echo.Context) error {
	var entry errlog.LogEntry
	if err := ctx.Bind(&entry); err != nil {
		return errors.Wrap(err, "binding to LogEntry")
	}
	if err := ctx.Validate(&entry); err != nil {
		return err
	}

	id := api.logs.Append(entry)
	return ctx.JSON(http.StatusCreated, echo.Map{"id": id})
}

func (api *logsAPI) query(ctx echo.Context) error {
	var q LogsQuery
	if err := q.Bind(ctx); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, q.Filter(api.logs))
}

func (api *logsAPI) stats(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.dispatcher.GetStats())
}

func (api *logsAPI) export(ctx echo.Context) error {
	data, err := api.dispatcher.ExportLogs()
	if err != nil {
		return errors.Wrap(err, "exporting logs")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+exportFilename)
	return ctx.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, []byte(data))
}

func (api *logsAPI) resolve(ctx echo.Context) error {
	if !api.logs.Resolve(ctx.Param("id")) {
		return errHttpNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *logsAPI) clear(ctx echo.Context) error {
	api.dispatcher.ClearLogs()
	return ctx.NoContent(http.StatusNoContent)
}
