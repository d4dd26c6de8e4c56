package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trezcool/studydash/core"
	"github.com/trezcool/studydash/core/dispatch"
	"github.com/trezcool/studydash/core/errlog"
	"github.com/trezcool/studydash/core/platform"
)

type (
	// LogService is the log store as seen by the API.
	LogService interface {
		Append(entry errlog.LogEntry) string
		All() []errlog.LogEntry
		CurrentSession() []errlog.LogEntry
		Resolve(id string) bool
		Export() (string, error)
	}

	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Logs           LogService
		Dispatcher     *dispatch.Dispatcher
		Hooks          *platform.Hooks
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.Validator = &appValidator{validate: s.deps.Validate}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Dispatcher, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	s.app.Use(recoverMiddleware(s.deps.Hooks))

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	registerLogsAPI(v1, apiKeyMiddleware(conf.Server.APIKey), s.deps.Logs, s.deps.Dispatcher)
}

// Start blocks until the server stops; a failure is sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Errors receives the error the server failed with.
func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal receives a signal when the process is asked to stop.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

// Shutdown stops accepting requests and waits for the outstanding ones until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Studydash API!")
}
