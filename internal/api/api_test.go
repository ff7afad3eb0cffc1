package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	errs "github.com/matzehuels/trip/pkg/errors"
	"github.com/matzehuels/trip/pkg/glitch"
	"github.com/matzehuels/trip/pkg/history"
	imgio "github.com/matzehuels/trip/pkg/io"
	"github.com/matzehuels/trip/pkg/observability"
	"github.com/matzehuels/trip/pkg/pipeline"
	"github.com/matzehuels/trip/pkg/pixel"
	"github.com/matzehuels/trip/pkg/recipe"
)

func testImage(t *testing.T) (*pixel.Array, []byte) {
	t.Helper()
	a := pixel.New(16, 16, 3)
	for i := range a.Pix {
		a.Pix[i] = uint8(i * 13)
	}
	data, err := imgio.EncodeBytes(a, imgio.FormatPNG, 0)
	if err != nil {
		t.Fatal(err)
	}
	return a, data
}

func testServer(t *testing.T) (*httptest.Server, *history.MemoryStore) {
	t.Helper()
	store := history.NewMemoryStore(10)
	runner := pipeline.NewRunner(nil, nil, store, nil)
	server := httptest.NewServer(New(runner, nil, nil).Handler())
	t.Cleanup(server.Close)
	return server, store
}

func post(t *testing.T, url string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/octet-stream", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestHealth(t *testing.T) {
	server, _ := testServer(t)
	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestShuffle(t *testing.T) {
	server, _ := testServer(t)
	a, data := testImage(t)

	resp := post(t, server.URL+"/v1/shuffle?channel=1&block_size=4", data)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %+v", resp.StatusCode, decodeError(t, resp))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if resp.Header.Get(HeaderRunID) == "" {
		t.Error("missing run id header")
	}

	got, _, err := imgio.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	want, err := glitch.BlockShuffle(a, 1, 4, glitch.NewSource(pipeline.DefaultSeed))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(want) {
		t.Error("response differs from BlockShuffle with the default seed")
	}
}

func TestStreak(t *testing.T) {
	server, _ := testServer(t)
	a, data := testImage(t)

	resp := post(t, server.URL+"/v1/streak?axis=1&block_size=4&percent=0.5&margin=0.25&seed=9", data)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %+v", resp.StatusCode, decodeError(t, resp))
	}
	got, _, err := imgio.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	opts := glitch.StreakOptions{Axis: 1, BlockSize: 4, PercentCorrupted: 0.5, MarginCorrupted: 0.25}
	want, err := glitch.RepeatPixels(a, opts, glitch.NewSource(9))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(want) {
		t.Error("response differs from RepeatPixels with seed 9")
	}
}

func TestRecipe(t *testing.T) {
	store := history.NewMemoryStore(10)
	runner := pipeline.NewRunner(nil, nil, store, nil)
	recipes := &recipe.File{Recipes: []recipe.Recipe{{
		Name:  "small",
		Seed:  3,
		Steps: []recipe.Step{recipe.Shuffle(0, 8), recipe.Streak(0, 4, 0.5, 0.25)},
	}}}
	server := httptest.NewServer(New(runner, recipes, nil).Handler())
	defer server.Close()
	a, data := testImage(t)

	resp := post(t, server.URL+"/v1/recipes/small?format=bmp", data)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %+v", resp.StatusCode, decodeError(t, resp))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/bmp" {
		t.Errorf("Content-Type = %q", ct)
	}
	got, format, err := imgio.Decode(resp.Body)
	if err != nil || format != "bmp" {
		t.Fatalf("decode: %q, %v", format, err)
	}
	want, err := recipes.Recipes[0].Apply(a, glitch.NewSource(3))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(want) {
		t.Error("response differs from applying the recipe")
	}

	missing := post(t, server.URL+"/v1/recipes/nope", data)
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("unknown recipe status = %d", missing.StatusCode)
	}
	if body := decodeError(t, missing); body.Code != errs.ErrCodeNotFound {
		t.Errorf("unknown recipe code = %s", body.Code)
	}
}

func TestListRecipes(t *testing.T) {
	server, _ := testServer(t)
	resp, err := http.Get(server.URL + "/v1/recipes")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got []recipeSummary
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != len(recipe.Builtin().Recipes) {
		t.Fatalf("listed %d recipes", len(got))
	}
	if got[0].Name != "shuffle-red" || got[0].Steps[0] != "shuffle channel=0 block=16" {
		t.Errorf("first recipe = %+v", got[0])
	}
}

func TestValidationErrors(t *testing.T) {
	server, _ := testServer(t)
	_, data := testImage(t)

	tests := []struct {
		name   string
		path   string
		body   []byte
		status int
		code   errs.Code
	}{
		{"block too large", "/v1/shuffle?block_size=32", data, 400, errs.ErrCodeInvalidBlockSize},
		{"bad channel", "/v1/shuffle?channel=3&block_size=4", data, 400, errs.ErrCodeInvalidChannel},
		{"bad axis", "/v1/streak?axis=2&block_size=4", data, 400, errs.ErrCodeInvalidAxis},
		{"corruption past end", "/v1/streak?block_size=4&percent=0.5&margin=0.75", data, 400, errs.ErrCodeInvalidCorruptionRange},
		{"empty range", "/v1/streak?block_size=4&percent=0&margin=0", data, 400, errs.ErrCodeInvalidRange},
		{"non-numeric", "/v1/shuffle?block_size=big", data, 400, errs.ErrCodeInvalidInput},
		{"negative seed", "/v1/shuffle?seed=-1", data, 400, errs.ErrCodeInvalidInput},
		{"bad format", "/v1/shuffle?block_size=4&format=gif", data, 400, errs.ErrCodeInvalidFormat},
		{"empty body", "/v1/shuffle?block_size=4", nil, 400, errs.ErrCodeInvalidInput},
		{"not an image", "/v1/shuffle?block_size=4", []byte("hello"), 400, errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, server.URL+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if body := decodeError(t, resp); body.Code != tt.code || body.Message == "" {
				t.Errorf("body = %+v, want code %s", body, tt.code)
			}
		})
	}
}

func TestRuns(t *testing.T) {
	server, store := testServer(t)
	_, data := testImage(t)

	post(t, server.URL+"/v1/shuffle?block_size=4", data)
	post(t, server.URL+"/v1/shuffle?block_size=64", data)

	resp, err := http.Get(server.URL + "/v1/runs?limit=5")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var runs []history.Run
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].OK() || !runs[1].OK() || runs[1].Source != pipeline.SourceAPI {
		t.Errorf("runs = %+v", runs)
	}

	recent, _ := store.Recent(context.Background(), 10)
	if len(recent) != 2 {
		t.Errorf("store holds %d runs", len(recent))
	}

	bad, err := http.Get(server.URL + "/v1/runs?limit=0")
	if err != nil {
		t.Fatal(err)
	}
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("limit=0 status = %d", bad.StatusCode)
	}
}

func TestRunsEmpty(t *testing.T) {
	server, _ := testServer(t)
	resp, err := http.Get(server.URL + "/v1/runs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(bytes.TrimSpace(body)) != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
	errors int
}

func (h *recordingHooks) OnResponse(_ context.Context, _, route string, _ int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, route)
}

func (h *recordingHooks) OnError(context.Context, string, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors++
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	server, _ := testServer(t)
	post(t, server.URL+"/v1/recipes/nope", []byte("x"))

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.routes) != 1 || hooks.routes[0] != "/v1/recipes/{name}" {
		t.Errorf("routes = %v", hooks.routes)
	}
	if hooks.errors != 1 {
		t.Errorf("errors = %d, want 1", hooks.errors)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	runner := pipeline.NewRunner(nil, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(runner, nil, nil).ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
