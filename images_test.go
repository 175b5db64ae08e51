package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/Seednode/guesswho/selector"
)

func TestImageStoreFiles(t *testing.T) {
	store := testStore(t, "carol.webp", "alice.JPG", "notes.txt", ".hidden.jpg", "bob.png")
	if err := store.fs.MkdirAll("imgs/nested.jpg", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := store.Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	want := []string{"alice.JPG", "bob.png", "carol.webp"}
	if !slices.Equal(files, want) {
		t.Fatalf("Files()=%v want=%v", files, want)
	}
}

func TestImageStoreFilesMissingDir(t *testing.T) {
	store := testStore(t)
	store.dir = "missing"

	if _, err := store.Files(); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestImageStoreRead(t *testing.T) {
	store := testStore(t, "alice.jpg", "notes.txt")

	data, contentType, err := store.Read("alice.jpg")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "img:alice.jpg" || contentType != "image/jpeg" {
		t.Fatalf("unexpected read result %q %q", data, contentType)
	}

	for _, bad := range []string{"notes.txt", "../alice.jpg", "sub/alice.jpg", ".alice.jpg", "nobody.jpg"} {
		if _, _, err := store.Read(bad); err == nil {
			t.Fatalf("Read(%q) should fail", bad)
		}
	}
}

func TestBuildCatalogFromDirectory(t *testing.T) {
	cfg := testConfig(selector.Sequential)
	cfg.blacklist = []string{"bob"}

	catalog, err := buildCatalog(cfg, testStore(t, "carol.jpg", "alice.jpg", "bob.jpg"))
	if err != nil {
		t.Fatalf("buildCatalog: %v", err)
	}

	images := catalog.Images()
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(images))
	}
	if images[0].Name != "alice" || images[0].Reference != "/images/alice.jpg" {
		t.Fatalf("unexpected first image %+v", images[0])
	}
	if !images[1].Excluded || images[1].Name != "bob" {
		t.Fatalf("bob should be excluded, got %+v", images[1])
	}
	if len(catalog.Selectable()) != 2 {
		t.Fatalf("expected 2 selectable images")
	}
}

func TestBuildCatalogKeepsExplicitOrder(t *testing.T) {
	cfg := testConfig(selector.Sequential)
	cfg.prefix = "/party"
	cfg.names = []string{"zed.jpg", "amy lee.png"}

	catalog, err := buildCatalog(cfg, testStore(t))
	if err != nil {
		t.Fatalf("buildCatalog: %v", err)
	}

	if got := catalog.Image(0).Name; got != "zed" {
		t.Fatalf("first image should be zed, got %q", got)
	}
	if got := catalog.Image(1).Reference; got != "/party/images/amy%20lee.png" {
		t.Fatalf("unexpected reference %q", got)
	}
}

func TestBuildCatalogEmpty(t *testing.T) {
	_, err := buildCatalog(testConfig(selector.Sequential), testStore(t, "readme.md"))
	if !errors.Is(err, selector.ErrEmptyCatalog) || !errors.Is(err, ErrNoImages) {
		t.Fatalf("expected empty catalog error, got %v", err)
	}
}

func TestUnmatchedBlacklist(t *testing.T) {
	names := []string{"Alice", "Bob", "Carol"}

	misses := unmatchedBlacklist(names, []string{"Alise", "Bob", "Zed"})

	want := []blacklistMiss{
		{name: "Alise", suggestion: "Alice"},
		{name: "Zed"},
	}
	if !slices.Equal(misses, want) {
		t.Fatalf("unmatchedBlacklist()=%+v want=%+v", misses, want)
	}
}

func TestServeImage(t *testing.T) {
	cfg := testConfig(selector.Sequential)
	store := testStore(t, "alice.png", "bob.jpg")
	h, _ := newTestHub(t, cfg, store)
	mux := newRouter(cfg, h, store, make(chan error, 8))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/alice.png", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rec.Body.String() != "img:alice.png" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/carol.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing image, got %d", rec.Code)
	}
}

func TestHumanReadableSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{in: 0, want: "0 B"},
		{in: 999, want: "999 B"},
		{in: 1500, want: "1.5 kB"},
		{in: 2_000_000, want: "2.0 MB"},
	}
	for _, tc := range tests {
		if got := humanReadableSize(tc.in); got != tc.want {
			t.Fatalf("humanReadableSize(%d)=%q want=%q", tc.in, got, tc.want)
		}
	}
}
