package badger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := New(&Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	key := []byte{0x1e, 0x20, 0xaa}
	value := []byte("encoded result")

	if err := store.Put(ctx, key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Expected %q, got %q", value, got)
	}

	has, err := store.Has(ctx, key)
	if err != nil || !has {
		t.Errorf("Expected key to exist, has=%v err=%v", has, err)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err = store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for deleted key, got %q", got)
	}

	has, err = store.Has(ctx, key)
	if err != nil || has {
		t.Errorf("Expected key to be gone, has=%v err=%v", has, err)
	}

	if err := store.RunGC(0.5); err != nil {
		t.Errorf("RunGC failed: %v", err)
	}
}

func TestInMemoryWithLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := New(&Config{InMemory: true, Logger: logger})
	if err != nil {
		t.Fatalf("Failed to open in-memory store: %v", err)
	}
	defer store.Close()

	if err := store.Put(context.Background(), []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := store.Get(context.Background(), []byte("k"))
	if err != nil || string(got) != "v" {
		t.Errorf("Expected v, got %q (err %v)", got, err)
	}
}

func TestNewRequiresDataDir(t *testing.T) {
	if _, err := New(&Config{}); err == nil {
		t.Fatal("Expected error without DataDir")
	}
}

func TestSlogAdapterTrimsNewlines(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Warningf("value log %d rewritten\n", 3)

	out := buf.String()
	if !bytes.Contains([]byte(out), []byte(`msg="value log 3 rewritten"`)) {
		t.Errorf("Unexpected log line: %s", out)
	}
	if !bytes.Contains([]byte(out), []byte("component=badger")) {
		t.Errorf("Missing component attribute: %s", out)
	}
}
