package domcore

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/domcore/capture"
)

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func TestHandler_AnalyzeAndHistory(t *testing.T) {
	a := testAnalyzer(t, nil)
	h := a.Handler()

	rec := do(t, h, http.MethodPost, "/analyze?url=https://forum.example/t/1", forum())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var res struct {
		RunID  string `json:"run_id"`
		URL    string `json:"url"`
		Report struct {
			Flagged int `json:"flagged"`
		} `json:"report"`
		Flagged []FlaggedNode `json:"flagged"`
		DOT     string        `json:"dot"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "https://forum.example/t/1", res.URL)
	assert.Equal(t, 35, res.Report.Flagged)
	assert.Len(t, res.Flagged, 35)
	assert.Empty(t, res.DOT)

	rec = do(t, h, http.MethodGet, "/runs?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list RunList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, res.RunID, list.Runs[0].ID)

	rec = do(t, h, http.MethodGet, "/runs/"+res.RunID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), signature)

	rec = do(t, h, http.MethodDelete, "/runs/"+res.RunID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/runs/"+res.RunID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodDelete, "/runs/"+res.RunID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_AnalyzeDOT(t *testing.T) {
	h := testAnalyzer(t, nil).Handler()

	rec := do(t, h, http.MethodPost, "/analyze?format=dot", forum())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/vnd.graphviz; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "digraph DOMPaintedCores {"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("X-Run-ID"), "run_"))
}

func TestHandler_AnalyzeURL(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(forum()))
	}))
	defer page.Close()
	h := testAnalyzer(t, nil).Handler()

	rec := do(t, h, http.MethodPost, "/analyze/url", `{"url": "`+page.URL+`", "dot": true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		DOT string `json:"dot"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, strings.HasPrefix(res.DOT, "digraph"))

	rec = do(t, h, http.MethodPost, "/analyze/url", `{"url": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/analyze/url", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	guarded := testAnalyzer(t, &Config{Capture: capture.Config{Mode: capture.ModeHTTP, BlockPrivate: true}}).Handler()
	rec = do(t, guarded, http.MethodPost, "/analyze/url", `{"url": "`+page.URL+`"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_Errors(t *testing.T) {
	a := testAnalyzer(t, &Config{HTTP: HTTPConfig{MaxBody: 64}, Root: RootConfig{CSS: "#absent"}})
	h := a.Handler()

	rec := do(t, h, http.MethodPost, "/analyze", "   ")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/analyze", forum())
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = do(t, h, http.MethodPost, "/analyze", "<ul><li>a</li></ul>")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "root selector matched nothing")

	rec = do(t, h, http.MethodGet, "/runs?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_HealthAndMetrics(t *testing.T) {
	h := testAnalyzer(t, nil).Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	do(t, h, http.MethodPost, "/analyze", forum())
	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `domcore_runs_total{source="html",status="ok"} 1`)
	assert.Contains(t, body, `domcore_groups_total{outcome="aligned"} 1`)
	assert.Contains(t, body, "domcore_run_duration_seconds_bucket")
}
