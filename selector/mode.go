/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package selector

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Mode selects how the cursor moves on each tick and how exclusion is
// handled.
type Mode int

const (
	Sequential   Mode = iota // cycle in order, skip forward past excluded images on stop
	Random                   // random draw, chosen freezes on excluded draws
	Unrestricted             // random draw, exclusion ignored
)

func (m Mode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Random:
		return "random"
	case Unrestricted:
		return "unrestricted"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func (m Mode) valid() bool {
	return m >= Sequential && m <= Unrestricted
}

// ParseMode accepts the mode names as well as the letters a, b and c.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "sequential":
		return Sequential, nil
	case "b", "random":
		return Random, nil
	case "c", "unrestricted":
		return Unrestricted, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Strategy holds the per-mode cursor and choice rules.
type Strategy interface {
	// Advance returns the cursor for the next tick.
	Advance(c *Catalog, cursor int, rng *rand.Rand) int

	// Resolve returns the chosen id after the image at cursor was shown.
	Resolve(c *Catalog, cursor, prior int) int

	// Settle runs once when play stops. moved reports whether the cursor
	// changed and the new image must be shown.
	Settle(c *Catalog, cursor, prior int) (next, chosen int, moved bool)
}

func strategyFor(m Mode) (Strategy, error) {
	switch m {
	case Sequential:
		return sequential{}, nil
	case Random:
		return random{}, nil
	case Unrestricted:
		return unrestricted{}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrInvalidMode, m)
}

type sequential struct{}

func (sequential) Advance(c *Catalog, cursor int, _ *rand.Rand) int {
	return wrap(cursor+1, c.Len())
}

func (sequential) Resolve(c *Catalog, cursor, prior int) int {
	return keepValid(c, cursor, prior)
}

// Settle skips forward past excluded images. If every image is excluded the
// search gives up after one full cycle and prior is kept.
func (sequential) Settle(c *Catalog, cursor, prior int) (int, int, bool) {
	if !c.Image(cursor).Excluded {
		return cursor, prior, false
	}

	next := cursor
	for range c.Len() {
		next = wrap(next+1, c.Len())

		img := c.Image(next)
		if !img.Excluded {
			return next, img.ID, true
		}
	}

	return cursor, prior, false
}

type random struct{}

func (random) Advance(c *Catalog, _ int, rng *rand.Rand) int {
	return rng.IntN(c.Len())
}

func (random) Resolve(c *Catalog, cursor, prior int) int {
	return keepValid(c, cursor, prior)
}

func (random) Settle(_ *Catalog, cursor, prior int) (int, int, bool) {
	return cursor, prior, false
}

type unrestricted struct{}

func (unrestricted) Advance(c *Catalog, _ int, rng *rand.Rand) int {
	return rng.IntN(c.Len())
}

func (unrestricted) Resolve(c *Catalog, cursor, _ int) int {
	return c.Image(cursor).ID
}

func (unrestricted) Settle(_ *Catalog, cursor, prior int) (int, int, bool) {
	return cursor, prior, false
}

func keepValid(c *Catalog, cursor, prior int) int {
	img := c.Image(cursor)
	if img.Excluded {
		return prior
	}
	return img.ID
}
