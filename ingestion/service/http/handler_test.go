package http

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"

	"logshelf/config"
	"logshelf/ingestion/source"
	core "logshelf/ingestion/service/core"
	"logshelf/internal/models"
	"logshelf/storage/store"
)

const sampleLog = "2022-03-16 01:25:11,194 DEBUG c.a.d.i.j.a.activities.DriveActivity - Change state from none to started.\n" +
	"2022-03-16 01:25:12,001 ERROR some.Logger - Exception occurred:\n" +
	"at com.example.Foo.bar(Foo.java:42)\n"

type fixture struct {
	server *httptest.Server
	store  *store.MemoryStore
	path   string
}

func newFixture(t *testing.T, content string, cors config.CORSConfig) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	logger := log.New(io.Discard, "", 0)
	st := store.NewMemoryStore()
	svc := core.NewService(st, source.NewFileSource(path, 0), nil, logger, 10, time.Second, 1)
	t.Cleanup(svc.Close)

	mux := http.NewServeMux()
	NewLogHandler(svc, logger).Register(mux)

	cors.SetDefaults()
	srv := httptest.NewServer(CORS(cors, mux))
	t.Cleanup(srv.Close)

	return &fixture{server: srv, store: st, path: path}
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHello(t *testing.T) {
	f := newFixture(t, sampleLog, config.CORSConfig{})

	resp, err := http.Get(f.server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello, world!", string(body))
}

func TestUnknownPath(t *testing.T) {
	f := newFixture(t, sampleLog, config.CORSConfig{})

	resp, err := http.Get(f.server.URL + "/nope")
	require.NoError(t, err)

	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.EqualValues(t, http.StatusNotFound, body["status"])
}

func TestStoreLogsThenListLogs(t *testing.T) {
	f := newFixture(t, sampleLog, config.CORSConfig{})

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		req, err := http.NewRequest(method, f.server.URL+"/store_logs", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)

		var body map[string]interface{}
		decode(t, resp, &body)
		require.Equal(t, http.StatusOK, resp.StatusCode, method)
		assert.Equal(t, StoredMessage, body["message"])
		assert.EqualValues(t, 2, body["stored"])
		assert.EqualValues(t, 3, body["lines"])
		assert.EqualValues(t, 0, body["malformed_timestamps"])
		assert.EqualValues(t, 0, body["dropped_lines"])
		assert.NotEmpty(t, body["pass_id"])
	}

	resp, err := http.Get(f.server.URL + "/logs")
	require.NoError(t, err)

	var records []models.LogRecord
	decode(t, resp, &records)
	require.Len(t, records, 2)
	assert.True(t, time.Date(2022, 3, 16, 1, 25, 11, 194e6, time.UTC).Equal(records[0].Timestamp))
	assert.Equal(t, "DEBUG", records[0].Severity)
	assert.Equal(t, "Exception occurred:at com.example.Foo.bar(Foo.java:42)", records[1].Message)
}

func TestListLogsEmptyIsArray(t *testing.T) {
	f := newFixture(t, sampleLog, config.CORSConfig{})

	resp, err := http.Get(f.server.URL + "/logs")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(body)))
}

func TestStoreLogsMissingFile(t *testing.T) {
	f := newFixture(t, "", config.CORSConfig{})

	resp, err := http.Post(f.server.URL+"/store_logs", "application/json", nil)
	require.NoError(t, err)

	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body["error"], "source unreadable")
	assert.Equal(t, "Internal Server Error", body["message"])
}

func TestStoreLogsStoreDown(t *testing.T) {
	f := newFixture(t, sampleLog, config.CORSConfig{})
	f.store.Close()

	resp, err := http.Post(f.server.URL+"/store_logs", "application/json", nil)
	require.NoError(t, err)

	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body["error"], "persistence failure")
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, sampleLog, config.CORSConfig{})

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/store_logs"},
		{http.MethodPost, "/logs"},
		{http.MethodPut, "/health"},
		{http.MethodPost, "/"},
	}
	for _, tc := range cases {
		req, err := http.NewRequest(tc.method, f.server.URL+tc.path, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, sampleLog, config.CORSConfig{})

	resp, err := http.Get(f.server.URL + "/health")
	require.NoError(t, err)
	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])

	f.store.Close()
	resp, err = http.Get(f.server.URL + "/health")
	require.NoError(t, err)
	decode(t, resp, &body)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestCORS(t *testing.T) {
	f := newFixture(t, sampleLog, config.CORSConfig{AllowedOrigins: []string{"http://localhost:8080"}})

	t.Run("allowed origin", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/logs", nil)
		req.Header.Set("Origin", "http://localhost:8080")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "http://localhost:8080", resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origin", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/logs", nil)
		req.Header.Set("Origin", "http://evil.example")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodOptions, f.server.URL+"/store_logs", nil)
		req.Header.Set("Origin", "http://localhost:8080")
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "GET, POST, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "600", resp.Header.Get("Access-Control-Max-Age"))
	})

	t.Run("preflight from other origin", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodOptions, f.server.URL+"/store_logs", nil)
		req.Header.Set("Origin", "http://evil.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestCORSWildcard(t *testing.T) {
	f := newFixture(t, sampleLog, config.CORSConfig{AllowedOrigins: []string{"*"}})

	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/", nil)
	req.Header.Set("Origin", "http://anything.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStoreLogsResponseFields(t *testing.T) {
	f := newFixture(t, sampleLog+"2022-03-16 01:25:13 WARN x.y - no fraction\n", config.CORSConfig{})

	resp, err := http.Post(f.server.URL+"/store_logs", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	require.NoError(t, err)

	assert.Equal(t, 3, v.GetInt("stored"))
	assert.Equal(t, 4, v.GetInt("lines"))
	assert.Equal(t, 1, v.GetInt("malformed_timestamps"))
	assert.Equal(t, 0, v.GetInt("queued"))
	assert.Equal(t, fastjson.TypeNumber, v.Get("duration_ms").Type())
	assert.Len(t, string(v.GetStringBytes("pass_id")), 36)
	assert.Equal(t, StoredMessage, string(v.GetStringBytes("message")))
}
