package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "github.com/matzehuels/trip/pkg/errors"
	"github.com/matzehuels/trip/pkg/glitch"
	imgio "github.com/matzehuels/trip/pkg/io"
	"github.com/matzehuels/trip/pkg/observability"
	"github.com/matzehuels/trip/pkg/pipeline"
	"github.com/matzehuels/trip/pkg/pixel"
	"github.com/matzehuels/trip/pkg/recipe"
)

// setupCLIEnv isolates the cache and backing services and returns a
// scratch directory.
func setupCLIEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv(envCacheURL, "")
	t.Setenv(envHistoryURI, "")
	t.Cleanup(observability.Reset)
	return t.TempDir()
}

func writeTestImage(t *testing.T, dir, name string, size int) (*pixel.Array, string) {
	t.Helper()
	a := pixel.New(size, size, 3)
	for i := range a.Pix {
		a.Pix[i] = uint8(i*31) ^ name[0]
	}
	path := filepath.Join(dir, name)
	if err := imgio.Export(a, path, 0); err != nil {
		t.Fatalf("write test image: %v", err)
	}
	return a, path
}

func executeCLI(args ...string) (string, error) {
	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	out, err := executeCLI(args...)
	if err != nil {
		t.Fatalf("trip %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func importImage(t *testing.T, path string) *pixel.Array {
	t.Helper()
	a, err := imgio.Import(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return a
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"shuffle", "streak", "run", "recipe", "serve", "history", "cache", "completion"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	for _, flag := range []string{"no-cache", "cache-url", "history-uri"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestShuffleCommand(t *testing.T) {
	dir := setupCLIEnv(t)
	a, in := writeTestImage(t, dir, "in.png", 16)
	out := filepath.Join(dir, "out.png")

	runCLI(t, "shuffle", in, "-c", "1", "-b", "4", "-o", out, "--seed", "3")

	want, err := glitch.BlockShuffle(a, 1, 4, glitch.NewSource(3))
	if err != nil {
		t.Fatal(err)
	}
	if !importImage(t, out).Equal(want) {
		t.Error("output differs from BlockShuffle")
	}
}

func TestStreakCommandDefaultOutput(t *testing.T) {
	dir := setupCLIEnv(t)
	a, in := writeTestImage(t, dir, "in.png", 16)

	runCLI(t, "--no-cache", "streak", in, "-a", "1", "-b", "4", "-p", "0.5", "-m", "0.25")

	opts := glitch.StreakOptions{Axis: 1, BlockSize: 4, PercentCorrupted: 0.5, MarginCorrupted: 0.25}
	want, err := glitch.RepeatPixels(a, opts, glitch.NewSource(pipeline.DefaultSeed))
	if err != nil {
		t.Fatal(err)
	}
	if !importImage(t, filepath.Join(dir, "in_streak.png")).Equal(want) {
		t.Error("output differs from RepeatPixels")
	}
}

func TestRunCommandBatch(t *testing.T) {
	dir := setupCLIEnv(t)
	a1, in1 := writeTestImage(t, dir, "a.png", 32)
	a2, in2 := writeTestImage(t, dir, "b.png", 32)
	outDir := filepath.Join(dir, "out")

	runCLI(t, "run", in1, in2, "-r", "shuffle-red", "-o", outDir, "-j", "2")

	rec, err := recipe.Builtin().Find("shuffle-red")
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		in   *pixel.Array
		name string
	}{{a1, "a_shuffle-red.png"}, {a2, "b_shuffle-red.png"}} {
		want, err := rec.Apply(tc.in, glitch.NewSource(rec.Seed))
		if err != nil {
			t.Fatal(err)
		}
		if !importImage(t, filepath.Join(outDir, tc.name)).Equal(want) {
			t.Errorf("%s differs from applying the recipe", tc.name)
		}
	}
}

func TestRunCommandBatchOutputCollision(t *testing.T) {
	dir := setupCLIEnv(t)
	for _, sub := range []string{"a", "b"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	_, in1 := writeTestImage(t, filepath.Join(dir, "a"), "cat.png", 32)
	_, in2 := writeTestImage(t, filepath.Join(dir, "b"), "cat.png", 32)
	outDir := filepath.Join(dir, "out")

	_, err := executeCLI("run", in1, in2, "-r", "shuffle-red", "-o", outDir)
	if !errs.Is(err, errs.ErrCodeInvalidPath) {
		t.Fatalf("error = %v, want INVALID_PATH", err)
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Error("output directory written despite the collision")
	}
}

func TestRunCommandRecipeFile(t *testing.T) {
	dir := setupCLIEnv(t)
	a, in := writeTestImage(t, dir, "in.png", 16)

	custom := recipe.Recipe{Name: "mine", Seed: 4, Steps: []recipe.Step{recipe.Shuffle(2, 8), recipe.Streak(0, 4, 0.5, 0.25)}}
	data, err := recipe.Marshal(custom)
	if err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(dir, "recipes.toml")
	if err := writeOutput(file, data); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out.bmp")
	runCLI(t, "run", in, "--recipes", file, "-r", "mine", "-o", out)

	want, err := custom.Apply(a, glitch.NewSource(4))
	if err != nil {
		t.Fatal(err)
	}
	if !importImage(t, out).Equal(want) {
		t.Error("output differs from applying the recipe")
	}
}

func TestCommandErrors(t *testing.T) {
	dir := setupCLIEnv(t)
	_, in := writeTestImage(t, dir, "in.png", 16)

	tests := []struct {
		name string
		args []string
		code errs.Code
	}{
		{"zero block size", []string{"shuffle", in, "-b", "0"}, errs.ErrCodeInvalidBlockSize},
		{"block larger than image", []string{"shuffle", in, "-b", "32"}, errs.ErrCodeInvalidBlockSize},
		{"bad channel", []string{"shuffle", in, "-c", "5", "-b", "4"}, errs.ErrCodeInvalidChannel},
		{"bad axis", []string{"streak", in, "-a", "2", "-b", "4"}, errs.ErrCodeInvalidAxis},
		{"unknown recipe", []string{"run", in, "-r", "nope"}, errs.ErrCodeNotFound},
		{"missing input", []string{"shuffle", filepath.Join(dir, "missing.png")}, errs.ErrCodeFileNotFound},
		{"bad output extension", []string{"shuffle", in, "-b", "4", "-o", filepath.Join(dir, "x.gif")}, errs.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCLI(tt.args...)
			if !errs.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRecipeShow(t *testing.T) {
	setupCLIEnv(t)
	out := runCLI(t, "recipe", "show", "cascade")

	f, err := recipe.Parse([]byte(out))
	if err != nil {
		t.Fatalf("show output does not parse: %v\n%s", err, out)
	}
	want, _ := recipe.Builtin().Find("cascade")
	got, err := f.Find("cascade")
	if err != nil || got.Fingerprint() != want.Fingerprint() {
		t.Errorf("show round trip = %+v, %v", got, err)
	}
}

func TestRecipeGraph(t *testing.T) {
	dir := setupCLIEnv(t)

	out := runCLI(t, "recipe", "graph", "triple")
	if !strings.HasPrefix(out, "digraph") {
		t.Errorf("graph output = %q", out)
	}

	file := filepath.Join(dir, "triple.dot")
	runCLI(t, "recipe", "graph", "triple", "-o", file)
	if got := importText(t, file); got != out {
		t.Error("DOT file differs from printed DOT")
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	setupCLIEnv(t)
	runCLI(t, "history")
}

func TestCompletion(t *testing.T) {
	setupCLIEnv(t)
	out := runCLI(t, "completion", "bash")
	if !strings.Contains(out, "trip") {
		t.Error("bash completion does not mention trip")
	}
}
