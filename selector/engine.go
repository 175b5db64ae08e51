/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package selector cycles through a catalog of portraits and decides which
// one is picked when play stops.
//
// An Engine is not safe for concurrent use. Callers drive Start, Stop and
// Tick from a single goroutine, which is how the timer and the input
// handlers are expected to share it.
package selector

import (
	"math/rand/v2"
)

// Display receives every image the engine shows.
type Display interface {
	Render(Image) error
}

// DisplayFunc adapts a function to the Display interface.
type DisplayFunc func(Image) error

func (f DisplayFunc) Render(img Image) error {
	return f(img)
}

type Engine struct {
	catalog  *Catalog
	mode     Mode
	strategy Strategy
	display  Display
	rng      *rand.Rand

	running bool
	cursor  int
	chosen  int
}

// New returns a stopped engine positioned on the first catalog image. A nil
// rng is replaced with a randomly seeded one.
func New(catalog *Catalog, mode Mode, display Display, rng *rand.Rand) (*Engine, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, ErrEmptyCatalog
	}

	strategy, err := strategyFor(mode)
	if err != nil {
		return nil, err
	}

	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	if display == nil {
		display = DisplayFunc(func(Image) error { return nil })
	}

	return &Engine{
		catalog:  catalog,
		mode:     mode,
		strategy: strategy,
		display:  display,
		rng:      rng,
		cursor:   0,
		chosen:   catalog.Image(0).ID,
	}, nil
}

// Start reports whether the engine was stopped before the call.
func (e *Engine) Start() bool {
	if e.running {
		return false
	}

	e.running = true

	return true
}

// Tick advances to the next image and shows it. The cursor and choice are
// updated before the display is called, so a display error never loses
// progress.
func (e *Engine) Tick() error {
	if !e.running {
		return nil
	}

	e.cursor = e.strategy.Advance(e.catalog, e.cursor, e.rng)
	e.chosen = e.strategy.Resolve(e.catalog, e.cursor, e.chosen)

	return e.display.Render(e.catalog.Image(e.cursor))
}

// Stop halts play and settles the final choice. It reports whether the
// engine was running before the call.
func (e *Engine) Stop() (bool, error) {
	if !e.running {
		return false, nil
	}

	e.running = false

	next, chosen, moved := e.strategy.Settle(e.catalog, e.cursor, e.chosen)
	e.cursor, e.chosen = next, chosen

	if moved {
		return true, e.display.Render(e.catalog.Image(e.cursor))
	}

	return true, nil
}

// CurrentChoice returns the image that would be picked if play stopped now.
func (e *Engine) CurrentChoice() (Image, error) {
	img, ok := e.catalog.Lookup(e.chosen)
	if !ok {
		return Image{}, ErrNotFound
	}

	return img, nil
}

// Current returns the image under the cursor, which is the one last shown.
func (e *Engine) Current() Image {
	return e.catalog.Image(e.cursor)
}

func (e *Engine) Running() bool {
	return e.running
}

func (e *Engine) Cursor() int {
	return e.cursor
}

func (e *Engine) Mode() Mode {
	return e.mode
}

func (e *Engine) Catalog() *Catalog {
	return e.catalog
}
