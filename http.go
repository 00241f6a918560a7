// CLAUDE:SUMMARY chi HTTP API: analyze inline HTML or a URL, browse and delete run history, Prometheus metrics, health check.
package domcore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazyhaar/domcore/capture"
	"github.com/hazyhaar/domcore/internal/store"
	"github.com/hazyhaar/domcore/repeat"
	"github.com/hazyhaar/domcore/shield"
)

// Handler returns the HTTP API:
//
//	POST   /analyze        HTML body, ?url= label, ?format=json|dot
//	POST   /analyze/url    {"url": "...", "dot": false}, ?format=json|dot
//	GET    /runs           ?limit=
//	GET    /runs/{id}
//	DELETE /runs/{id}
//	GET    /metrics
//	GET    /healthz
func (a *Analyzer) Handler() http.Handler {
	eps := a.endpoints()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	for _, mw := range shield.APIStack(a.cfg.HTTP.MaxBody) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok\n")
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.metrics.Registry, promhttp.HandlerOpts{}))

	r.Post("/analyze", func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			a.writeError(w, err)
			return
		}
		dot := wantsDOT(req)
		resp, err := eps.analyzeHTML(req.Context(), AnalyzeHTMLRequest{
			HTML: string(body),
			URL:  req.URL.Query().Get("url"),
			DOT:  dot,
		})
		a.writeResult(w, resp, err, dot)
	})

	r.Post("/analyze/url", func(w http.ResponseWriter, req *http.Request) {
		var in AnalyzeURLRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			a.writeError(w, badRequest(err))
			return
		}
		dot := in.DOT || wantsDOT(req)
		in.DOT = dot
		resp, err := eps.analyzeURL(req.Context(), in)
		a.writeResult(w, resp, err, wantsDOT(req))
	})

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			limit := 0
			if s := req.URL.Query().Get("limit"); s != "" {
				n, err := strconv.Atoi(s)
				if err != nil || n < 0 {
					a.writeError(w, badRequest(errors.New("limit must be a non-negative integer")))
					return
				}
				limit = n
			}
			resp, err := eps.listRuns(req.Context(), ListRunsRequest{Limit: limit})
			a.writeResult(w, resp, err, false)
		})
		r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			resp, err := eps.getRun(req.Context(), RunRequest{ID: chi.URLParam(req, "id")})
			a.writeResult(w, resp, err, false)
		})
		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			resp, err := eps.deleteRun(req.Context(), RunRequest{ID: chi.URLParam(req, "id")})
			a.writeResult(w, resp, err, false)
		})
	})

	return r
}

func wantsDOT(req *http.Request) bool {
	return strings.EqualFold(req.URL.Query().Get("format"), "dot")
}

func badRequest(err error) error {
	return errors.Join(ErrBadRequest, err)
}

func (a *Analyzer) writeResult(w http.ResponseWriter, resp any, err error, dot bool) {
	if err != nil {
		a.writeError(w, err)
		return
	}
	if res, ok := resp.(*Result); ok && dot {
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		w.Header().Set("X-Run-ID", res.RunID)
		io.WriteString(w, res.DOT)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *Analyzer) writeError(w http.ResponseWriter, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		a.logger.Error("domcore: http", "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	var (
		tooBig *http.MaxBytesError
		status *capture.StatusError
	)
	switch {
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, capture.ErrPrivateTarget):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound), errors.Is(err, ErrNoHistory):
		return http.StatusNotFound
	case errors.Is(err, ErrRootNotFound), errors.Is(err, ErrEmptyDocument), errors.Is(err, repeat.ErrInvalidConfig):
		return http.StatusUnprocessableEntity
	case errors.As(err, &status):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
