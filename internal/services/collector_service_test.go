package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"air-quality-api/internal/archive"
	"air-quality-api/internal/feed"
)

const collectorSampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<item>
<title>Seattle-Bellevue-Kent Valley, WA - Current Air Quality</title>
<link>https://airnow.example/seattle</link>
<description><![CDATA[
<div><b>Location:</b> Seattle, WA</div>
<div><b>Current Air Quality:</b> 08/27/26 10:00 AM PDT<br>
Good - 42 AQI - Particle Pollution (2.5 microns)<br>
</div>
<div><b>Agency:</b> Puget Sound Clean Air Agency</div>
]]></description>
</item>
<item>
<title>Yakima, WA - Current Air Quality</title>
<description><![CDATA[
Current Air Quality unavailable for Yakima, WA<br>
]]></description>
</item>
</channel>
</rss>`

func writeFeedList(t *testing.T, urls ...string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "city_urls.csv")

	content := "City,URL\n"
	for i, url := range urls {
		content += fmt.Sprintf("city-%d,%s\n", i, url)
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write feed list: %v", err)
	}

	return path
}

func TestCollectorService_Run(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, collectorSampleFeed)
	}))
	defer server.Close()

	repo := &stubRepository{}
	client := feed.NewClient(5*time.Second, nil)
	svc := NewCollectorService(repo, client, writeFeedList(t, server.URL), nil, nil)

	stats, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if stats.Feeds != 1 || stats.Entries != 2 || stats.Stored != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 1 feed, 2 entries, 1 stored, 1 skipped", stats)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("inserted %d readings, want 1", len(repo.inserted))
	}

	stored := repo.inserted[0]
	if stored.Location != "Seattle" {
		t.Errorf("stored location = %q, want %q (state suffix stripped)", stored.Location, "Seattle")
	}

	if stored.PM25 == nil || *stored.PM25 != 42 {
		t.Errorf("stored PM25 = %v, want 42", stored.PM25)
	}

	wantDate := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	if !stored.ReportDate.Equal(wantDate) {
		t.Errorf("stored ReportDate = %s, want %s", stored.ReportDate, wantDate)
	}
}

func TestCollectorService_Run_ArchivesRawPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, collectorSampleFeed)
	}))
	defer server.Close()

	arch, err := archive.NewLocalArchive(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalArchive() failed: %v", err)
	}

	repo := &stubRepository{}
	client := feed.NewClient(5*time.Second, nil)
	svc := NewCollectorService(repo, client, writeFeedList(t, server.URL), arch, nil)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	snapshots, err := arch.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}

	if len(snapshots) != 1 {
		t.Fatalf("archived %d snapshots, want 1", len(snapshots))
	}

	data, err := arch.Retrieve(context.Background(), snapshots[0].Key)
	if err != nil {
		t.Fatalf("Retrieve() failed: %v", err)
	}

	if string(data) != collectorSampleFeed {
		t.Error("archived payload does not match the served document")
	}
}

func TestCollectorService_Run_FeedFailureDoesNotAbort(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, collectorSampleFeed)
	}))
	defer server.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer dead.Close()

	repo := &stubRepository{}
	client := feed.NewClient(5*time.Second, nil)
	svc := NewCollectorService(repo, client, writeFeedList(t, dead.URL, server.URL), nil, nil)

	stats, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if stats.Failed != 1 {
		t.Errorf("stats.Failed = %d, want 1", stats.Failed)
	}

	if stats.Stored != 1 {
		t.Errorf("stats.Stored = %d, want 1 (healthy feed still processed)", stats.Stored)
	}
}

func TestCollectorService_Run_MissingFeedList(t *testing.T) {
	repo := &stubRepository{}
	client := feed.NewClient(time.Second, nil)
	svc := NewCollectorService(repo, client, "/nonexistent/city_urls.csv", nil, nil)

	if _, err := svc.Run(context.Background()); err == nil {
		t.Error("Run() succeeded with missing feed list")
	}
}

func TestCollectorService_ReadFeedURLs_NoURLColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(path, []byte("City,Feed\nSeattle,x\n"), 0644); err != nil {
		t.Fatalf("Failed to write feed list: %v", err)
	}

	svc := NewCollectorService(&stubRepository{}, feed.NewClient(time.Second, nil), path, nil, nil)

	if _, err := svc.Run(context.Background()); err == nil {
		t.Error("Run() succeeded with feed list missing URL column")
	}
}
