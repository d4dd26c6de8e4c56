package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/studydash/core"
	"github.com/trezcool/studydash/core/dispatch"
	"github.com/trezcool/studydash/core/logstore"
	logsvc "github.com/trezcool/studydash/services/logger"
	"github.com/trezcool/studydash/storage"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewConsoleLogger("ADMIN", os.Stderr, conf.Debug)

	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	store, closeStorage, err := storage.Open(ctx, conf)
	cancel()
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening storage: %v", err), err)
	}

	// the CLI reads and edits the persisted log; it never captures nor ships anything itself
	lconf := logstore.NewConfig(conf)
	lconf.EnableConsoleLog = false
	lconf.EnableRemoteSink = false
	lconf.EnablePersistence = true
	logs := logstore.New(lconf, logstore.Deps{Storage: store, Logger: logger})

	cli := commandLine{
		logs:       logs,
		dispatcher: dispatch.New(logs, dispatch.Deps{}),
		out:        os.Stdout,
	}
	code := 0
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err))
		}
		code = 1
	}

	ctx, cancel = context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	err = logs.Close(ctx)
	cancel()
	if err != nil {
		logger.Error(fmt.Sprintf("flushing error log: %v", err), err)
		code = 1
	}
	if err = closeStorage(); err != nil {
		logger.Error(fmt.Sprintf("closing storage: %v", err), err)
	}
	os.Exit(code)
}
