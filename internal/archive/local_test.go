package archive

import (
	"context"
	"errors"
	"testing"
)

func TestLocalArchiveStoreRetrieve(t *testing.T) {
	arch, err := NewLocalArchive(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalArchive() failed: %v", err)
	}
	defer arch.Close()

	ctx := context.Background()
	payload := []byte("<rss><channel></channel></rss>")

	if err := arch.Store(ctx, "airnowapi.org/2026-08-27.xml", payload); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	got, err := arch.Retrieve(ctx, "airnowapi.org/2026-08-27.xml")
	if err != nil {
		t.Fatalf("Retrieve() failed: %v", err)
	}

	if string(got) != string(payload) {
		t.Errorf("Retrieve() = %q, want %q", got, payload)
	}
}

func TestLocalArchiveStoreReplaces(t *testing.T) {
	arch, err := NewLocalArchive(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalArchive() failed: %v", err)
	}

	ctx := context.Background()

	if err := arch.Store(ctx, "feed.xml", []byte("first")); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	if err := arch.Store(ctx, "feed.xml", []byte("second")); err != nil {
		t.Fatalf("second Store() failed: %v", err)
	}

	got, err := arch.Retrieve(ctx, "feed.xml")
	if err != nil {
		t.Fatalf("Retrieve() failed: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Retrieve() = %q, want latest snapshot", got)
	}
}

func TestLocalArchiveRetrieveNotFound(t *testing.T) {
	arch, err := NewLocalArchive(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalArchive() failed: %v", err)
	}

	_, err = arch.Retrieve(context.Background(), "missing.xml")
	if !IsNotFound(err) {
		t.Errorf("Retrieve() error = %v, want not-found", err)
	}
}

func TestLocalArchiveInvalidKey(t *testing.T) {
	arch, err := NewLocalArchive(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalArchive() failed: %v", err)
	}

	for _, key := range []string{"", "../escape.xml", "/absolute.xml"} {
		if err := arch.Store(context.Background(), key, []byte("x")); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Store(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestLocalArchiveList(t *testing.T) {
	arch, err := NewLocalArchive(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalArchive() failed: %v", err)
	}

	ctx := context.Background()
	keys := []string{
		"airnowapi.org/2026-08-26.xml",
		"airnowapi.org/2026-08-27.xml",
		"other.example/2026-08-27.xml",
	}
	for _, key := range keys {
		if err := arch.Store(ctx, key, []byte("payload")); err != nil {
			t.Fatalf("Store(%q) failed: %v", key, err)
		}
	}

	snapshots, err := arch.List(ctx, "airnowapi.org/")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}

	if len(snapshots) != 2 {
		t.Fatalf("List() returned %d snapshots, want 2", len(snapshots))
	}

	// Keys come back sorted.
	if snapshots[0].Key != "airnowapi.org/2026-08-26.xml" {
		t.Errorf("first key = %q, want oldest snapshot", snapshots[0].Key)
	}

	if snapshots[1].Size != int64(len("payload")) {
		t.Errorf("snapshot size = %d, want %d", snapshots[1].Size, len("payload"))
	}
}
