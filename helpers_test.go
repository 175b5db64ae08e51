package main

import (
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Seednode/guesswho/selector"
	"github.com/spf13/afero"
)

// manualClock stands in for the ticker so tests decide when frames fire.
type manualClock struct {
	ch        chan time.Time
	started   atomic.Int32
	cancelled atomic.Int32
}

func newManualClock() *manualClock {
	return &manualClock{ch: make(chan time.Time)}
}

func (c *manualClock) schedule(time.Duration) (<-chan time.Time, func()) {
	c.started.Add(1)
	return c.ch, func() { c.cancelled.Add(1) }
}

func testConfig(mode selector.Mode) *Config {
	return &Config{
		caption:   "Guess who?",
		images:    "imgs",
		interval:  50 * time.Millisecond,
		mode:      mode.String(),
		port:      8080,
		selection: mode,
	}
}

func testStore(t *testing.T, files ...string) *ImageStore {
	t.Helper()

	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("imgs", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, f := range files {
		if err := afero.WriteFile(fs, "imgs/"+f, []byte("img:"+f), 0o644); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
	}

	return newImageStore(fs, "imgs")
}

func newTestHub(t *testing.T, cfg *Config, store *ImageStore) (*Hub, *manualClock) {
	t.Helper()

	catalog, err := buildCatalog(cfg, store)
	if err != nil {
		t.Fatalf("buildCatalog: %v", err)
	}

	clock := newManualClock()
	h, err := newHub(cfg, catalog, rand.New(rand.NewPCG(7, 7)), clock.schedule)
	if err != nil {
		t.Fatalf("newHub: %v", err)
	}

	return h, clock
}
