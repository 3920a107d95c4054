package blob

import (
	"context"
	"strings"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore returned error: %v", err)
	}

	ctx := context.Background()
	url, err := store.Put(ctx, "documents/abc123/Weekly Sync_otter_ai.txt", []byte("Alice: hello"), "text/plain")
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if !strings.HasPrefix(url, "local://") {
		t.Errorf("Expected local:// url, got %s", url)
	}

	data, err := store.Get(ctx, url)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(data) != "Alice: hello" {
		t.Errorf("Unexpected blob content: %q", data)
	}
}

func TestLocalStoreUniqueKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore returned error: %v", err)
	}

	ctx := context.Background()
	first, err := store.Put(ctx, "documents/p1/notes.txt", []byte("v1"), "text/plain")
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	second, err := store.Put(ctx, "documents/p1/notes.txt", []byte("v2"), "text/plain")
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if first == second {
		t.Error("Expected distinct keys for repeated uploads of the same filename")
	}

	data, err := store.Get(ctx, first)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(data) != "v1" {
		t.Error("Expected first upload to survive second upload of same filename")
	}
}

func TestLocalStoreDeleteIdempotent(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore returned error: %v", err)
	}

	ctx := context.Background()
	url, err := store.Put(ctx, "summaries/s1.md", []byte("## Notes"), "text/markdown")
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	if err := store.Delete(ctx, url); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := store.Delete(ctx, url); err != nil {
		t.Errorf("Expected second delete to be a no-op, got: %v", err)
	}
	if _, err := store.Get(ctx, url); err == nil {
		t.Error("Expected Get after Delete to fail")
	}
}

func TestLocalStoreRejectsEscapingURL(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore returned error: %v", err)
	}

	if _, err := store.Get(context.Background(), "local://../../etc/passwd"); err == nil {
		t.Error("Expected traversal url to be rejected")
	}
	if _, err := store.Get(context.Background(), "s3://bucket/key"); err == nil {
		t.Error("Expected foreign scheme to be rejected")
	}
}
