package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studydash/core"
	"github.com/trezcool/studydash/core/dispatch"
	"github.com/trezcool/studydash/core/errlog"
	"github.com/trezcool/studydash/core/logstore"
	"github.com/trezcool/studydash/core/platform"
	sinksvc "github.com/trezcool/studydash/services/sink"
	"github.com/trezcool/studydash/storage/inmem"
	"github.com/trezcool/studydash/tests"
)

const testAPIKey = "s3cr3t"

type testApp struct {
	srv    *Server
	store  *logstore.Store
	d      *dispatch.Dispatcher
	logger *testutil.Logger
}

func newTestApp(t *testing.T) testApp {
	t.Helper()
	return newTestAppWithSink(t, nil)
}

// newTestAppWithSink builds an app whose store ships its captures through sink.
func newTestAppWithSink(t *testing.T, sink logstore.Sink) testApp {
	t.Helper()
	conf := testutil.Config()
	conf.Server.APIKey = testAPIKey

	hooks := platform.NewHooks()
	store := testutil.NewStore(t, logstore.NewConfig(conf), logstore.Deps{
		Storage:  inmem.New(),
		Platform: hooks,
		Sink:     sink,
	})

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	d := dispatch.New(store, dispatch.Deps{Translator: translator})

	logger := &testutil.Logger{}
	srv := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Logs:           store,
		Dispatcher:     d,
		Hooks:          hooks,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	t.Cleanup(func() { _ = srv.Close() })
	return testApp{srv: srv, store: store, d: d, logger: logger}
}

func (a testApp) do(method, path string, body []byte, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	a.srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func shippedEntry(id, msg string, sev errlog.Severity) []byte {
	data, _ := json.Marshal(errlog.LogEntry{
		ID:        id,
		Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Message:   msg,
		Source:    "Global Error Handler",
		Severity:  sev,
		SessionID: "session_1709287200000_abcdef123",
		UserAgent: "Mozilla/5.0",
		URL:       "http://localhost:3000/schedule",
	})
	return data
}

func TestHome(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Studydash API!", rec.Body.String())
}

func TestCollect(t *testing.T) {
	t.Run("rejects a missing key", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.do(http.MethodPost, "/v1/logs", shippedEntry("error_1", "boom", errlog.SeverityHigh), "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"invalid or missing API key"}`, rec.Body.String())

		assert.Empty(t, app.store.All(), "rejected shipments are not captured")
		assert.Equal(t, []string{"WARN"}, app.logger.Levels())
	})

	t.Run("rejects a wrong key", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.do(http.MethodPost, "/v1/logs", shippedEntry("error_1", "boom", errlog.SeverityHigh), "nope")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, app.store.All())
	})

	t.Run("other routes report auth failures", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.do(http.MethodGet, "/v1/logs", nil, "nope")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		entries := app.store.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "auth", entries[0].AdditionalData.Type)
		assert.Equal(t, errlog.SeverityHigh, entries[0].Severity)
		assert.Equal(t, httpSource, entries[0].Source)
	})

	t.Run("appends a shipped entry", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.do(http.MethodPost, "/v1/logs", shippedEntry("error_1", "boom", errlog.SeverityHigh), testAPIKey)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res map[string]string
		decode(t, rec, &res)
		assert.Equal(t, "error_1", res["id"])

		entry, ok := app.store.Get("error_1")
		require.True(t, ok)
		assert.Equal(t, "boom", entry.Message)
		assert.Equal(t, "session_1709287200000_abcdef123", entry.SessionID)
		assert.Empty(t, app.store.CurrentSession())
	})

	t.Run("validates the entry", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.do(http.MethodPost, "/v1/logs", shippedEntry("error_1", "", "fatal"), testAPIKey)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var res map[string]string
		decode(t, rec, &res)
		assert.Equal(t, map[string]string{
			"message":  "this field is required",
			"severity": "severity must be one of low, medium, high or critical",
		}, res)

		assert.Empty(t, app.store.All(), "rejected shipments are not captured")
		assert.Equal(t, []string{"WARN"}, app.logger.Levels())
	})
}

func TestCollect_ShippingToItselfWithWrongKey(t *testing.T) {
	app := newTestAppWithSink(t, sinksvc.NewHTTPSink(&http.Client{Timeout: time.Second}))

	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		app.srv.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	enabled, endpoint, wrongKey := true, ts.URL+"/v1/logs", "wrong"
	app.store.UpdateConfig(logstore.ConfigPatch{
		EnableRemoteSink: &enabled,
		RemoteEndpoint:   &endpoint,
		APIKey:           &wrongKey,
	})

	app.store.Capture("one failure", errlog.Context{})

	require.Eventually(t, func() bool { return atomic.LoadInt32(&hits) >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, []string{"one failure"}, testutil.Messages(app.store.All()))
}

func TestQuery(t *testing.T) {
	app := newTestApp(t)
	app.do(http.MethodPost, "/v1/logs", shippedEntry("error_1", "shipped", errlog.SeverityHigh), testAPIKey)
	lowID := app.store.Capture("typo", errlog.Context{Severity: errlog.SeverityLow})
	highID := app.store.Capture("down", errlog.Context{Severity: errlog.SeverityHigh})
	resolvedID := app.store.Capture("fixed", errlog.Context{Severity: errlog.SeverityHigh})
	require.True(t, app.store.Resolve(resolvedID))

	tests := []struct {
		name    string
		path    string
		wantIDs []string
	}{
		{"all", "/v1/logs", []string{"error_1", lowID, highID, resolvedID}},
		{"by severity", "/v1/logs?severity=high", []string{"error_1", highID, resolvedID}},
		{"unresolved", "/v1/logs?severity=high&unresolved=true", []string{"error_1", highID}},
		{"current session", "/v1/logs?session=current", []string{lowID, highID, resolvedID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodGet, tt.path, nil, testAPIKey)
			require.Equal(t, http.StatusOK, rec.Code)

			var entries []errlog.LogEntry
			decode(t, rec, &entries)
			ids := make([]string, 0, len(entries))
			for _, e := range entries {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	t.Run("invalid filters", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/logs?severity=fatal&session=all", nil, testAPIKey)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var res map[string]string
		decode(t, rec, &res)
		assert.Contains(t, res, "severity")
		assert.Contains(t, res, "session")
	})
}

func TestResolve(t *testing.T) {
	app := newTestApp(t)
	id := app.store.Capture("boom", errlog.Context{})

	rec := app.do(http.MethodPost, "/v1/logs/unknown/resolve", nil, testAPIKey)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())

	rec = app.do(http.MethodPost, "/v1/logs/"+id+"/resolve", nil, testAPIKey)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, app.store.Unresolved())

	rec = app.do(http.MethodPost, "/v1/logs/"+id+"/resolve", nil, testAPIKey)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestStatsExportClear(t *testing.T) {
	app := newTestApp(t)
	app.store.Capture("a", errlog.Context{Severity: errlog.SeverityCritical})
	app.store.Capture("b", errlog.Context{Severity: errlog.SeverityLow})

	rec := app.do(http.MethodGet, "/v1/logs/stats", nil, testAPIKey)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats dispatch.Stats
	decode(t, rec, &stats)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Unresolved)
	assert.Equal(t, map[errlog.Severity]int{"low": 1, "medium": 0, "high": 0, "critical": 1}, stats.BySeverity)
	assert.Equal(t, []string{"a", "b"}, testutil.Messages(stats.Recent))

	rec = app.do(http.MethodGet, "/v1/logs/export", nil, testAPIKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), exportFilename)
	var exported []errlog.LogEntry
	decode(t, rec, &exported)
	assert.Equal(t, []string{"a", "b"}, testutil.Messages(exported))

	rec = app.do(http.MethodDelete, "/v1/logs", nil, testAPIKey)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, app.store.All())
}

func TestServerErrors(t *testing.T) {
	t.Run("panics are reported once", func(t *testing.T) {
		app := newTestApp(t)
		app.srv.app.GET("/panic", func(echo.Context) error { panic("kaboom") })

		rec := app.do(http.MethodGet, "/panic", nil, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())

		entries := app.store.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "kaboom", entries[0].Message)
		assert.Equal(t, logstore.SourceGlobalHandler, entries[0].Source)
		assert.Equal(t, errlog.SeverityHigh, entries[0].Severity)
	})

	t.Run("server errors are escalated", func(t *testing.T) {
		app := newTestApp(t)
		app.srv.app.GET("/boom", func(echo.Context) error { return errors.New("db is gone") })

		var escalated string
		app.d.RegisterBoundaryCallback(func(err *errlog.Error, id string) { escalated = id })

		rec := app.do(http.MethodGet, "/boom", nil, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var res map[string]string
		decode(t, rec, &res)
		assert.Equal(t, "Internal Server Error", res["error"])
		assert.Equal(t, escalated, res["errorId"])

		entry, ok := app.store.Get(res["errorId"])
		require.True(t, ok)
		assert.Equal(t, "db is gone", entry.Message)
		assert.Equal(t, errlog.SeverityCritical, entry.Severity)
		assert.Equal(t, "GET /boom", entry.AdditionalData.Endpoint)
		assert.Equal(t, "/boom", entry.URL)
	})

	t.Run("shutdown errors stop the server", func(t *testing.T) {
		app := newTestApp(t)
		app.srv.app.GET("/halt", func(echo.Context) error { return core.NewShutdownError("integrity issue") })

		rec := app.do(http.MethodGet, "/halt", nil, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		select {
		case <-app.srv.ShutdownSignal():
		case <-time.After(time.Second):
			t.Fatal("no shutdown signal")
		}
	})
}
