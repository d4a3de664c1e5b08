package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoth/thoth/internal/config"
	"github.com/thoth/thoth/internal/index"
	"github.com/thoth/thoth/internal/models"
	"github.com/thoth/thoth/internal/runner"
	"github.com/thoth/thoth/internal/shell"
)

type fakeSearcher struct {
	apps    []models.Runnable
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, q string) ([]models.Runnable, error) {
	f.queries = append(f.queries, q)
	if len(strings.TrimSpace(q)) < 2 {
		return []models.Runnable{}, nil
	}
	var out []models.Runnable
	for _, a := range f.apps {
		if strings.Contains(strings.ToLower(a.Name), strings.ToLower(q)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeSearcher) All(context.Context) ([]models.Runnable, error) { return f.apps, nil }
func (f *fakeSearcher) Matcher() string                                 { return "skim" }

type fakeLauncher struct {
	paths []string
	err   error
}

func (f *fakeLauncher) Run(_ context.Context, path string) (*runner.Result, error) {
	if path == "" {
		return nil, runner.ErrEmptyPath
	}
	f.paths = append(f.paths, path)
	return &runner.Result{RunID: "run-1", Name: "Firefox", Method: models.MethodSpawn}, f.err
}

type fakeCatalog struct {
	refreshes int
	err       error
}

func (f *fakeCatalog) Refresh(context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.refreshes++
	return 2, nil
}

func (f *fakeCatalog) Stats() index.Stats {
	return index.Stats{Count: 2, Refreshes: f.refreshes}
}

type fakeReports struct{}

func (fakeReports) GenerateReport(period string) (*models.Report, error) {
	if period != "day" && period != "week" && period != "month" {
		return nil, errors.New("invalid period type: " + period)
	}
	return &models.Report{Period: models.ReportPeriod{Type: period}, TotalLaunches: 3}, nil
}

type fixture struct {
	server   *httptest.Server
	handler  *Handler
	searcher *fakeSearcher
	launcher *fakeLauncher
	catalog  *fakeCatalog
	window   *shell.Window
}

func newFixture(t *testing.T, reports Reports) *fixture {
	t.Helper()

	f := &fixture{
		searcher: &fakeSearcher{apps: []models.Runnable{
			models.NewRunnable("Firefox", "/usr/share/applications/firefox.desktop"),
			models.NewRunnable("Files", "/usr/share/applications/nautilus.desktop"),
		}},
		launcher: &fakeLauncher{},
		catalog:  &fakeCatalog{},
		window:   shell.NewWindow(),
	}
	f.handler = NewHandler(config.Default(), Deps{
		Search:  f.searcher,
		Runner:  f.launcher,
		Window:  f.window,
		Catalog: f.catalog,
		Reports: reports,
	})
	f.server = httptest.NewServer(f.handler.Routes())
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(f.server.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestSearchGetAndPost(t *testing.T) {
	f := newFixture(t, fakeReports{})

	resp := f.get(t, "/api/search?q=fire")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))

	var got []models.Runnable
	decode(t, resp, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "Firefox", got[0].Name)

	resp = f.post(t, "/api/search", `{"search_input": "fi"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &got)
	assert.Len(t, got, 2)

	assert.Equal(t, []string{"fire", "fi"}, f.searcher.queries)
	assert.Equal(t, "fi", f.window.State().Query)
}

func TestSearchShortQueryIsEmptyArray(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.get(t, "/api/search?q=f")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw json.RawMessage
	decode(t, resp, &raw)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestSearchRejectsBadInput(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.post(t, "/api/search", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, f.server.URL+"/api/search", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRun(t *testing.T) {
	f := newFixture(t, nil)
	f.window.Show()
	f.window.SetQuery("fire")

	resp := f.post(t, "/api/run", `{"path": "/usr/share/applications/firefox.desktop"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got RunResponse
	decode(t, resp, &got)
	assert.True(t, got.OK)
	assert.Equal(t, "run-1", got.RunID)
	assert.Empty(t, got.Error)
	assert.Equal(t, []string{"/usr/share/applications/firefox.desktop"}, f.launcher.paths)

	state := f.window.State()
	assert.False(t, state.Visible)
	assert.Empty(t, state.Query)
}

func TestRunFailureIsNotOK(t *testing.T) {
	f := newFixture(t, nil)
	f.launcher.err = errors.New("exec: not found")

	resp := f.post(t, "/api/run", `{"path": "/usr/share/applications/nautilus.desktop"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got RunResponse
	decode(t, resp, &got)
	assert.False(t, got.OK)
	assert.Equal(t, "exec: not found", got.Error)
}

func TestRunEmptyPathKeepsWindow(t *testing.T) {
	f := newFixture(t, nil)
	f.window.Show()

	resp := f.post(t, "/api/run", `{"path": ""}`)
	var got RunResponse
	decode(t, resp, &got)
	assert.False(t, got.OK)
	assert.Equal(t, runner.ErrEmptyPath.Error(), got.Error)
	assert.True(t, f.window.State().Visible)
}

func TestWindowActions(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		path    string
		visible bool
	}{
		{"/api/window/show", true},
		{"/api/window/close", false},
		{"/api/window/toggle", true},
		{"/api/window/toggle", false},
		{"/api/window/show", true},
		{"/api/window/hide", false},
	}

	for _, tt := range tests {
		resp := f.post(t, tt.path, "")
		require.Equal(t, http.StatusOK, resp.StatusCode, tt.path)

		var state shell.State
		decode(t, resp, &state)
		assert.Equal(t, tt.visible, state.Visible, tt.path)
	}

	var state shell.State
	decode(t, f.get(t, "/api/window"), &state)
	assert.False(t, state.Visible)
	assert.Equal(t, uint64(len(tests)), state.Seq)

	assert.Equal(t, http.StatusMethodNotAllowed, f.get(t, "/api/window/show").StatusCode)
}

func TestWindowEventsStream(t *testing.T) {
	f := newFixture(t, nil)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/window/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first shell.State
	require.NoError(t, conn.ReadJSON(&first))
	assert.False(t, first.Visible)

	f.window.Show()

	var next shell.State
	require.NoError(t, conn.ReadJSON(&next))
	assert.True(t, next.Visible)
	assert.True(t, next.Focused)

	f.handler.closeStreams()
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestApps(t *testing.T) {
	f := newFixture(t, nil)

	var apps []models.Runnable
	decode(t, f.get(t, "/api/apps"), &apps)
	assert.Len(t, apps, 2)

	decode(t, f.get(t, "/api/apps?limit=1"), &apps)
	assert.Len(t, apps, 1)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.post(t, "/api/apps/refresh", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats index.Stats
	decode(t, resp, &stats)
	assert.Equal(t, 1, stats.Refreshes)

	f.catalog.err = errors.New("boom")
	resp = f.post(t, "/api/apps/refresh", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHistory(t *testing.T) {
	f := newFixture(t, fakeReports{})

	var report models.Report
	resp := f.get(t, "/api/history")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &report)
	assert.Equal(t, "day", report.Period.Type)

	resp = f.get(t, "/api/history?period=week")
	decode(t, resp, &report)
	assert.Equal(t, "week", report.Period.Type)

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/history?period=year").StatusCode)
}

func TestHistoryDisabled(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, f.get(t, "/api/history").StatusCode)
}

func TestStatusAndHealth(t *testing.T) {
	f := newFixture(t, fakeReports{})

	var status Status
	decode(t, f.get(t, "/api/status"), &status)
	assert.True(t, status.Running)
	assert.True(t, status.History)
	assert.Equal(t, "skim", status.Matcher)
	require.NotNil(t, status.Index)
	assert.Equal(t, 2, status.Index.Count)

	var health map[string]string
	decode(t, f.get(t, "/health"), &health)
	assert.Equal(t, "healthy", health["status"])
}

func (f *fixture) do(t *testing.T, method, path, contentType, origin, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPreflight(t *testing.T) {
	f := newFixture(t, nil)
	origin := config.Default().BaseURL()

	resp := f.do(t, http.MethodOptions, "/api/run", "", origin, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
	assert.Empty(t, f.launcher.paths)

	resp = f.do(t, http.MethodOptions, "/api/run", "", "https://other.example", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRunRejectsForeignOrigin(t *testing.T) {
	f := newFixture(t, nil)
	f.window.Show()

	tests := []struct {
		name        string
		contentType string
		origin      string
		want        int
	}{
		{"foreign origin text body", "text/plain", "https://other.example", http.StatusForbidden},
		{"foreign origin json body", "application/json", "https://other.example", http.StatusForbidden},
		{"same origin text body", "text/plain", config.Default().BaseURL(), http.StatusUnsupportedMediaType},
		{"no content type", "", "", http.StatusUnsupportedMediaType},
		{"form body", "application/x-www-form-urlencoded", "", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, http.MethodPost, "/api/run", tt.contentType, tt.origin,
				`{"path": "/usr/share/applications/firefox.desktop"}`)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
		})
	}

	assert.Empty(t, f.launcher.paths)
	assert.True(t, f.window.State().Visible)
}

func TestRunAcceptsOwnOrigin(t *testing.T) {
	f := newFixture(t, nil)
	origin := "http://127.0.0.1:" + strconv.Itoa(config.Default().Web.Port)

	resp := f.do(t, http.MethodPost, "/api/run", "application/json; charset=utf-8", origin,
		`{"path": "/usr/share/applications/firefox.desktop"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, []string{"/usr/share/applications/firefox.desktop"}, f.launcher.paths)
}

func TestRunRejectsUncatalogedPath(t *testing.T) {
	f := newFixture(t, nil)
	f.window.Show()

	resp := f.post(t, "/api/run", `{"path": "/home/u/Downloads/unknown.desktop"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, f.launcher.paths)
	assert.True(t, f.window.State().Visible)
}

func TestWindowActionRequiresJSON(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodPost, "/api/window/show", "text/plain", "", "")
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.False(t, f.window.State().Visible)
}

func TestWindowEventsRejectsForeignOrigin(t *testing.T) {
	f := newFixture(t, nil)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/window/events"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://other.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestIndexPage(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	assert.Equal(t, http.StatusNotFound, f.get(t, "/missing").StatusCode)
}
