package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	payload := bytes.Repeat([]byte("glitch"), 1000)
	if err := c.Set(ctx, "k", payload, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("Get = hit %v, err %v", hit, err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("Get returned different bytes")
	}

	raw, err := os.ReadFile(c.path("k"))
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) >= len(payload) {
		t.Errorf("entry is %d bytes, want compressed below %d", len(raw), len(payload))
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("hit after Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("short")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}

	if err := c.Set(ctx, "forever", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl missing")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v, err %v; want silent miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Errorf("Clear = %d, %v; want 3", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("hit after Clear")
	}
}

func TestFileCacheConcurrentSetSameKey(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	payload := bytes.Repeat([]byte("same"), 256)
	var wg sync.WaitGroup
	errc := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errc <- c.Set(ctx, "shared", payload, time.Hour)
		}()
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		if err != nil {
			t.Errorf("Set: %v", err)
		}
	}

	got, hit, err := c.Get(ctx, "shared")
	if err != nil || !hit || !bytes.Equal(got, payload) {
		t.Errorf("Get = hit %v, err %v", hit, err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(c.Dir(), "*", "*"+tmpExt))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestFileCacheEntryLayout(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(context.Background(), "k", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(c.path("k"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(c.path("k")) != ".json" || !json.Valid(raw) {
		t.Errorf("entry %s is not a JSON file: %q", c.path("k"), raw)
	}
}

func TestFileCacheClearRemovesTempFiles(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(context.Background(), "k", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(filepath.Dir(c.path("k")), "123"+tmpExt)
	if err := os.WriteFile(stale, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}
	other := filepath.Join(c.Dir(), "notes.txt")
	if err := os.WriteFile(other, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := c.Clear()
	if err != nil || n != 1 {
		t.Errorf("Clear = %d, %v; want 1", n, err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale temp file survived Clear")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("Clear removed a file it does not own")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestArtifactKey(t *testing.T) {
	k := NewDefaultKeyer()
	base := ArtifactKeyOpts{Recipe: "shuffle channel=0 block=16", Seed: 1, Format: "png"}

	key := k.ArtifactKey("abc", base)
	if !strings.HasPrefix(key, "artifact:") {
		t.Errorf("key %q lacks prefix", key)
	}
	if key != k.ArtifactKey("abc", base) {
		t.Error("ArtifactKey should be deterministic")
	}

	variants := []ArtifactKeyOpts{
		{Recipe: base.Recipe, Seed: 2, Format: "png"},
		{Recipe: base.Recipe, Seed: 1, Format: "jpeg"},
		{Recipe: "shuffle channel=1 block=16", Seed: 1, Format: "png"},
		{Recipe: base.Recipe, Seed: 1, Format: "png", Quality: 80},
	}
	for _, v := range variants {
		if k.ArtifactKey("abc", v) == key {
			t.Errorf("opts %+v collide with base", v)
		}
	}
	if k.ArtifactKey("abd", base) == key {
		t.Error("different input hashes collide")
	}
}

func TestScopedKeyer(t *testing.T) {
	opts := ArtifactKeyOpts{Seed: 1, Format: "png"}
	scoped := NewScopedKeyer(nil, "trip:test:")
	want := "trip:test:" + NewDefaultKeyer().ArtifactKey("h", opts)
	if got := scoped.ArtifactKey("h", opts); got != want {
		t.Errorf("ArtifactKey = %q, want %q", got, want)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retryable: err %v after %d calls, want success after 2", err, calls)
	}

	calls = 0
	plain := errors.New("plain")
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return plain
	})
	if err != plain || calls != 1 {
		t.Errorf("non-retryable: err %v after %d calls", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(ErrUnavailable)
	})
	if !errors.Is(err, ErrUnavailable) || calls != 3 {
		t.Errorf("exhausted: err %v after %d calls, want ErrUnavailable after 3", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("TRIP_TEST_REDIS_URL")
	if url == "" {
		t.Skip("TRIP_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	key := "trip:test:" + Hash([]byte(t.Name()))
	if err := c.Set(ctx, key, []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(got) != "payload" {
		t.Errorf("Get = %q, %v, %v", got, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, err := c.Get(ctx, key); hit || err != nil {
		t.Errorf("after Delete: hit %v, err %v", hit, err)
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not a url"); err == nil {
		t.Error("expected error for malformed url")
	}
}
