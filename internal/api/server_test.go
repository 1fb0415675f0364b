package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docview/internal/config"
	"github.com/dgallion1/docview/internal/parser"
	"github.com/dgallion1/docview/internal/source"
	"github.com/dgallion1/docview/internal/tagschema"
	"github.com/dgallion1/docview/internal/viewer"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testDocs = map[string]string{
	"index.md": "---\ntitle: Home\n---\n# Welcome\n\nSee the [guide](/?page=guide.md).\n",
	"guide.md": "# Guide\n\n{% callout type=\"warning\" %}\nMind the gap.\n{% /callout %}\n",
	"tabs.md":  "{% tabs %}\nOne\n{% /tabs %}\n",
	"open.md":  "{% callout %}\nNever closed.\n",
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, *viewer.Manager) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range testDocs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	log := discardLogger()
	reg := tagschema.Default()
	stats := viewer.NewStats(time.Hour)
	loader, err := viewer.NewLoader(source.NewDir(dir, 1<<20), reg, parser.Options{}, 16, stats, log)
	require.NoError(t, err)

	sessions := viewer.NewManager(loader, time.Minute, log)
	t.Cleanup(sessions.Stop)
	return NewServer(loader, stats, sessions, reg, log, cfg), sessions
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestShell_ShowsLoadingIndicator(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?page=guide.md", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<div id="app"><p>Loading...</p></div>`)
	assert.Contains(t, body, "<title>guide.md</title>")
	assert.Contains(t, body, `"/ws"`)
}

func TestView_DefaultPage(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")
	assert.Equal(t, viewer.ContentHashHex([]byte(testDocs["index.md"])), rec.Header().Get("X-Content-Hash"))
}

func TestView_RendersCallout(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view?page=guide.md", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `class="callout callout-warning"`)
	assert.Contains(t, body, "Mind the gap.")
}

func TestView_ErrorStatus(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})
	tests := []struct {
		page string
		code int
	}{
		{"missing.md", http.StatusNotFound},
		{"../etc/passwd", http.StatusBadRequest},
		{"tabs.md", http.StatusUnprocessableEntity},
		{"open.md", http.StatusUnprocessableEntity},
	}
	for _, tc := range tests {
		t.Run(tc.page, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view?page="+tc.page, nil))
			assert.Equal(t, tc.code, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSchemas(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schemas", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Tags map[string]tagschema.Schema `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Contains(t, list.Tags, "callout")
	assert.Equal(t, "Callout", list.Tags["callout"].Render)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schemas/callout", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schemas/tabs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{APIKey: "secret"})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/render", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/render", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/stats/render", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The viewer itself stays public.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRenderStats(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})
	for _, page := range []string{"index.md", "missing.md"} {
		srv.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/view?page="+page, nil))
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/render", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Stats    viewer.StatsSnapshot `json:"stats"`
		Sessions int                  `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Stats.Count)
	assert.Equal(t, int64(1), body.Stats.Failures)
	assert.Equal(t, 0, body.Sessions)
}

func dialWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readOutbound(t *testing.T, conn *websocket.Conn) wsOutbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var out wsOutbound
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

// readUntil reads frames until done accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, done func(wsOutbound) bool) wsOutbound {
	t.Helper()
	for {
		out := readOutbound(t, conn)
		if done(out) {
			return out
		}
	}
}

func isReady(out wsOutbound) bool { return out.State == stateReady }

func TestWS_LoadingThenReady(t *testing.T) {
	srv, sessions := newTestServer(t, config.Config{})
	server := httptest.NewServer(srv)
	defer server.Close()

	conn := dialWS(t, server)
	require.NoError(t, conn.WriteJSON(wsInbound{Address: server.URL + "/?page=guide.md"}))

	first := readOutbound(t, conn)
	assert.Equal(t, stateLoading, first.State)
	assert.Equal(t, "guide.md", first.Page)
	assert.Equal(t, loadingHTML, first.HTML)
	assert.NotEmpty(t, first.SessionID)
	assert.Equal(t, 1, sessions.Len())

	ready := readUntil(t, conn, isReady)
	assert.Equal(t, "guide.md", ready.Page)
	assert.Equal(t, "Guide", ready.Title)
	assert.Contains(t, ready.HTML, "callout-warning")
	assert.Equal(t, first.SessionID, ready.SessionID)
}

func TestWS_NavigateAndRepeat(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})
	server := httptest.NewServer(srv)
	defer server.Close()

	conn := dialWS(t, server)
	require.NoError(t, conn.WriteJSON(wsInbound{Address: "/"}))
	home := readUntil(t, conn, isReady)
	assert.Equal(t, viewer.DefaultPage, home.Page)
	assert.Equal(t, "Home", home.Title)

	// Asking for the page already shown resends it without reloading.
	require.NoError(t, conn.WriteJSON(wsInbound{Address: "/?page=index.md"}))
	again := readOutbound(t, conn)
	assert.Equal(t, stateReady, again.State)
	assert.Equal(t, home.HTML, again.HTML)

	require.NoError(t, conn.WriteJSON(wsInbound{Page: "guide.md"}))
	guide := readUntil(t, conn, func(o wsOutbound) bool { return o.Page == "guide.md" && isReady(o) })
	assert.Equal(t, "Guide", guide.Title)
}

func TestWS_FailureStaysLoading(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})
	server := httptest.NewServer(srv)
	defer server.Close()

	conn := dialWS(t, server)
	require.NoError(t, conn.WriteJSON(wsInbound{Page: "missing.md"}))

	failed := readUntil(t, conn, func(o wsOutbound) bool { return o.Error != "" })
	assert.Equal(t, stateLoading, failed.State)
	assert.Equal(t, loadingHTML, failed.HTML)
	assert.Contains(t, failed.Error, "not found")
}

func TestWS_DisconnectClosesSession(t *testing.T) {
	srv, sessions := newTestServer(t, config.Config{})
	server := httptest.NewServer(srv)
	defer server.Close()

	conn := dialWS(t, server)
	require.NoError(t, conn.WriteJSON(wsInbound{Address: "/"}))
	readUntil(t, conn, isReady)
	require.Equal(t, 1, sessions.Len())

	conn.Close()
	assert.Eventually(t, func() bool { return sessions.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}
