package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	errs "github.com/matzehuels/trip/pkg/errors"
	"github.com/matzehuels/trip/pkg/history"
	imgio "github.com/matzehuels/trip/pkg/io"
	"github.com/matzehuels/trip/pkg/observability"
	"github.com/matzehuels/trip/pkg/pipeline"
	"github.com/matzehuels/trip/pkg/recipe"
)

// Query parameter defaults for the single-transform routes.
const (
	defaultChannel   = 0
	defaultShuffleBS = 16
	defaultStreakBS  = 128
	defaultPercent   = 0.45
	defaultMargin    = 0.33
	maxRunsLimit     = 500
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleShuffle(w http.ResponseWriter, r *http.Request) {
	q := query{v: r.URL.Query()}
	step := recipe.Shuffle(q.intParam("channel", defaultChannel), q.intParam("block_size", defaultShuffleBS))
	s.transform(w, r, recipe.Recipe{Name: "shuffle", Steps: []recipe.Step{step}}, &q)
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	q := query{v: r.URL.Query()}
	step := recipe.Streak(
		q.intParam("axis", 0),
		q.intParam("block_size", defaultStreakBS),
		q.floatParam("percent", defaultPercent),
		q.floatParam("margin", defaultMargin),
	)
	s.transform(w, r, recipe.Recipe{Name: "streak", Steps: []recipe.Step{step}}, &q)
}

func (s *Server) handleRecipe(w http.ResponseWriter, r *http.Request) {
	rec, err := s.recipes.Find(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := query{v: r.URL.Query()}
	s.transform(w, r, rec, &q)
}

type recipeSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Seed        uint64   `json:"seed"`
	Steps       []string `json:"steps"`
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	out := make([]recipeSummary, len(s.recipes.Recipes))
	for i, rec := range s.recipes.Recipes {
		steps := make([]string, len(rec.Steps))
		for j, st := range rec.Steps {
			steps[j] = st.String()
		}
		out[i] = recipeSummary{Name: rec.Name, Description: rec.Description, Seed: rec.Seed, Steps: steps}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	q := query{v: r.URL.Query()}
	limit := q.intParam("limit", history.DefaultLimit)
	if q.err == nil && (limit < 1 || limit > maxRunsLimit) {
		q.err = errs.New(errs.ErrCodeInvalidInput, "limit must be in [1, %d], got %d", maxRunsLimit, limit)
	}
	if q.err != nil {
		s.writeError(w, r, q.err)
		return
	}
	runs, err := s.runner.History.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// transform runs rec on the request body and writes the encoded result.
func (s *Server) transform(w http.ResponseWriter, r *http.Request, rec recipe.Recipe, q *query) {
	opts := pipeline.Options{
		InputName: r.Header.Get("X-Trip-Input-Name"),
		Recipe:    rec,
		Seed:      q.uintParam("seed"),
		Format:    q.v.Get("format"),
		Quality:   q.intParam("quality", 0),
		Source:    pipeline.SourceAPI,
	}
	if q.err != nil {
		s.writeError(w, r, q.err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, pipeline.MaxInputBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, r, errs.Wrap(errs.ErrCodeInvalidInput, err, "read request body"))
		return
	}
	opts.Input = body

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cacheStatus := "miss"
	if res.CacheHit {
		cacheStatus = "hit"
	}
	w.Header().Set("Content-Type", imgio.ContentType(res.Format))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Artifact)))
	w.Header().Set(HeaderRunID, res.RunID)
	w.Header().Set(HeaderCache, cacheStatus)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Artifact); err != nil {
		s.logger.Debug("write response", "run", res.RunID, "error", err)
	}
}

// =============================================================================
// Errors
// =============================================================================

type errorBody struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch {
	case errs.IsValidation(err):
		return http.StatusBadRequest
	case errs.Is(err, errs.ErrCodeNotFound):
		return http.StatusNotFound
	case errs.Is(err, errs.ErrCodeUnsupported):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	route := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		route = rctx.RoutePattern()
	}
	observability.HTTP().OnError(r.Context(), r.Method, route, err)

	status := statusFor(err)
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "route", route, "error", err)
	}
	writeJSON(w, status, errorBody{Code: code, Message: errs.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =============================================================================
// Query parsing
// =============================================================================

// query parses typed query parameters, keeping the first error.
type query struct {
	v   url.Values
	err error
}

func (q *query) intParam(name string, def int) int {
	s := q.v.Get(name)
	if s == "" || q.err != nil {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		q.err = errs.New(errs.ErrCodeInvalidInput, "query parameter %s: %q is not an integer", name, s)
		return def
	}
	return n
}

func (q *query) uintParam(name string) uint64 {
	s := q.v.Get(name)
	if s == "" || q.err != nil {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		q.err = errs.New(errs.ErrCodeInvalidInput, "query parameter %s: %q is not an unsigned integer", name, s)
		return 0
	}
	return n
}

func (q *query) floatParam(name string, def float64) float64 {
	s := q.v.Get(name)
	if s == "" || q.err != nil {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		q.err = errs.New(errs.ErrCodeInvalidInput, "query parameter %s: %q is not a number", name, s)
		return def
	}
	return f
}
