package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/studydash/apps/api/echo"
	"github.com/trezcool/studydash/core"
	"github.com/trezcool/studydash/core/dispatch"
	"github.com/trezcool/studydash/core/logstore"
	"github.com/trezcool/studydash/core/platform"
	emailsvc "github.com/trezcool/studydash/services/email"
	logsvc "github.com/trezcool/studydash/services/logger"
	"github.com/trezcool/studydash/services/notify"
	sinksvc "github.com/trezcool/studydash/services/sink"
	"github.com/trezcool/studydash/storage"
	"github.com/trezcool/studydash/storage/inmem"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(logsvc.NewConsoleLogger("API", os.Stdout, conf.Debug), conf)
	logger.Enable(!conf.Debug)

	storeLogger := logsvc.NewConsoleLogger("ERRLOG", os.Stdout, conf.Debug)

	// set up storage
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	store, closeStorage, err := storage.Open(ctx, conf)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStorage(); err != nil {
			logger.Error(fmt.Sprintf("closing storage: %v", err), err)
		}
	}()

	// set up the remote sink
	sink, closeSink, err := sinksvc.New(conf)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSink(); err != nil {
			logger.Error(fmt.Sprintf("closing sink: %v", err), err)
		}
	}()

	// set up services
	mailSvc := emailsvc.New(conf, logger)
	hooks := platform.NewHooks()

	logs := logstore.New(logstore.NewConfig(conf), logstore.Deps{
		Storage:        store,
		SessionStorage: inmem.New(),
		Logger:         storeLogger,
		Sink:           sink,
		Platform:       hooks,
	})

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	dispatcher := dispatch.New(logs, dispatch.Deps{
		Translator: translator,
		LoginPath:  conf.LoginPath,
		Navigate: func(path string) {
			logger.Info(fmt.Sprintf("navigate to %s%s", conf.FrontendBaseURL, path))
		},
	})

	// the console plays the part of the UI: toasts and fallback pages are printed on stdout
	toaster := notify.NewToaster(conf, os.Stdout)
	fallback := notify.NewFallback(conf, notify.FallbackDeps{
		Logs:   logs,
		Mailer: mailSvc,
		Out:    os.Stdout,
	})
	if conf.Debug {
		toaster.Mount(dispatcher)
		defer toaster.Unmount()
	}
	fallback.Mount(dispatcher)
	defer fallback.Unmount()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.Publish("errlog", expvar.Func(func() interface{} { return dispatcher.GetStats() }))

	hooks.Go(func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	})

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Logs:       logs,
		Dispatcher: dispatcher,
		Hooks:      hooks,
		Validate:   validate,
		Translator: translator,
	})

	hooks.Go(server.Start)

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
	}

	// give outstanding requests a deadline for completion
	ctx, cancel = context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	// asking listener to shutdown and shed load
	if serr := server.Shutdown(ctx); serr != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", serr), serr)
		if serr = server.Close(); serr != nil {
			logger.Error(fmt.Sprintf("could not force stop server: %v", serr), serr)
		}
	}

	// flush the error log before the storage goes away
	if cerr := logs.Close(ctx); cerr != nil {
		logger.Error(fmt.Sprintf("closing error log: %v", cerr), cerr)
	}
	return err
}
