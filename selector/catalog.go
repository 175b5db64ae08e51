/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package selector

// Image is one portrait in the catalog. Images are never mutated once the
// catalog is built.
type Image struct {
	ID        int
	Name      string
	Reference string
	Excluded  bool
}

// Source pairs a display name with an opaque reference (usually a URL).
type Source struct {
	Name      string
	Reference string
}

// Catalog is the ordered list of every image, including excluded ones.
type Catalog struct {
	images     []Image
	selectable []Image
}

// NewCatalog assigns ids by position and marks every source whose name is
// in blacklist as excluded.
func NewCatalog(sources []Source, blacklist []string) (*Catalog, error) {
	if len(sources) == 0 {
		return nil, ErrEmptyCatalog
	}

	banned := make(map[string]bool, len(blacklist))
	for _, name := range blacklist {
		banned[name] = true
	}

	c := &Catalog{
		images: make([]Image, 0, len(sources)),
	}

	for i, src := range sources {
		img := Image{
			ID:        i,
			Name:      src.Name,
			Reference: src.Reference,
			Excluded:  banned[src.Name],
		}

		c.images = append(c.images, img)

		if !img.Excluded {
			c.selectable = append(c.selectable, img)
		}
	}

	return c, nil
}

// NamesOnly builds sources whose reference is the name itself.
func NamesOnly(names []string) []Source {
	sources := make([]Source, len(names))
	for i, name := range names {
		sources[i] = Source{Name: name, Reference: name}
	}
	return sources
}

func (c *Catalog) Len() int {
	return len(c.images)
}

// Image returns the image at position i, wrapping i into range.
func (c *Catalog) Image(i int) Image {
	return c.images[wrap(i, len(c.images))]
}

func (c *Catalog) Images() []Image {
	out := make([]Image, len(c.images))
	copy(out, c.images)
	return out
}

// Selectable returns the non-excluded images in catalog order.
func (c *Catalog) Selectable() []Image {
	out := make([]Image, len(c.selectable))
	copy(out, c.selectable)
	return out
}

func (c *Catalog) Lookup(id int) (Image, bool) {
	if id < 0 || id >= len(c.images) {
		return Image{}, false
	}
	return c.images[id], true
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
