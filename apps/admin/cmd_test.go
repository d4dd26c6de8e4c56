package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studydash/core"
	"github.com/trezcool/studydash/core/dispatch"
	"github.com/trezcool/studydash/core/errlog"
	"github.com/trezcool/studydash/core/logstore"
	"github.com/trezcool/studydash/storage/inmem"
	"github.com/trezcool/studydash/tests"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer, core.Storage) {
	t.Helper()
	store := inmem.New()
	logs := testutil.NewStore(t, logstore.DefaultConfig(), logstore.Deps{Storage: store})
	out := new(bytes.Buffer)
	return &commandLine{
		logs:       logs,
		dispatcher: dispatch.New(logs, dispatch.Deps{}),
		out:        out,
	}, out, store
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
	wantOut []string
	extra   interface{}
}

func runCLITests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			} else {
				assert.NoError(t, err)
			}
			for _, s := range tt.wantOut {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, out, _ := setup(t)
	runCLITests(t, cli, out, []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "unknown flag", args: []string{"list", "-lol"}, wantErr: errHelp},
		{name: "invalid severity", args: []string{"list", "-severity", "fatal"}, wantErr: errHelp},
		{name: "resolve without id", args: []string{"resolve"}, wantErr: errHelp},
	})
}

func Test_commandLine_list(t *testing.T) {
	cli, out, _ := setup(t)
	cli.logs.Capture("disk is full", errlog.Context{Severity: errlog.SeverityCritical, Source: "uploader"})
	lowID := cli.logs.Capture("name is required", errlog.Context{Severity: errlog.SeverityLow})
	require.True(t, cli.logs.Resolve(lowID))

	runCLITests(t, cli, out, []cliTest{
		{name: "all", args: []string{"list"}, wantOut: []string{"disk is full", "uploader", "name is required"}},
		{name: "by severity", args: []string{"list", "-severity", "low"}, wantOut: []string{lowID, "true"}},
	})

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "list", "-unresolved"}))
	assert.Contains(t, out.String(), "disk is full")
	assert.NotContains(t, out.String(), "name is required")
}

func Test_commandLine_stats(t *testing.T) {
	cli, out, _ := setup(t)
	cli.logs.Capture("a", errlog.Context{Severity: errlog.SeverityHigh})
	cli.logs.Capture("b", errlog.Context{Severity: errlog.SeverityHigh})
	cli.logs.Capture("c", errlog.Context{})

	require.NoError(t, cli.run([]string{"admin", "stats"}))
	assert.Equal(t, "total: 3\nunresolved: 3\nlow: 0\nmedium: 1\nhigh: 2\ncritical: 0\n", out.String())
}

func Test_commandLine_export(t *testing.T) {
	cli, out, _ := setup(t)
	cli.logs.Capture("a", errlog.Context{})
	cli.logs.Capture("b", errlog.Context{})

	require.NoError(t, cli.run([]string{"admin", "export"}))
	var entries []errlog.LogEntry
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	assert.Equal(t, []string{"a", "b"}, testutil.Messages(entries))

	path := filepath.Join(t.TempDir(), "logs.json")
	require.NoError(t, cli.run([]string{"admin", "export", "-o", path}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Len(t, entries, 2)
}

func Test_commandLine_resolve(t *testing.T) {
	cli, out, store := setup(t)
	id := cli.logs.Capture("boom", errlog.Context{})

	runCLITests(t, cli, out, []cliTest{
		{name: "unknown id", args: []string{"resolve", "-id", "lol"}, wantErr: errNotFound},
		{name: "resolve", args: []string{"resolve", "-id", id}, wantOut: []string{"resolved " + id}},
		{name: "resolve again", args: []string{"resolve", "-id", id}, wantOut: []string{"resolved " + id}},
	})
	assert.Empty(t, cli.logs.Unresolved())

	// the change reaches the storage once the store is closed
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, cli.logs.Close(ctx))
	data, err := store.Get(ctx, logstore.DefaultStorageKey)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"resolved":true`))
}

func Test_commandLine_clear(t *testing.T) {
	cli, out, _ := setup(t)

	type extra struct {
		terminal bool
		answer   string
	}
	tests := []cliTest{
		{name: "not a terminal", args: []string{"clear"}, wantErr: errNoConfirm},
		{name: "declined", args: []string{"clear"}, extra: extra{terminal: true, answer: "n\n"}, wantErr: errNoConfirm},
		{name: "confirmed", args: []string{"clear"}, extra: extra{terminal: true, answer: "yes\n"}, wantOut: []string{"error log cleared"}},
		{name: "forced", args: []string{"clear", "-yes"}, wantOut: []string{"error log cleared"}},
	}
	for _, tt := range tests {
		cli.logs.Capture("boom", errlog.Context{})
		ex, _ := tt.extra.(extra)
		isTerminalFunc = func() bool { return ex.terminal }
		readLineFunc = func() (string, error) { return ex.answer, nil }

		runCLITests(t, cli, out, []cliTest{tt})
		if tt.wantErr == nil {
			assert.Empty(t, cli.logs.All())
		} else {
			assert.NotEmpty(t, cli.logs.All())
		}
	}
}
