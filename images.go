/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Seednode/guesswho/selector"
	"github.com/agnivade/levenshtein"
	"github.com/julienschmidt/httprouter"
	"github.com/spf13/afero"
)

const suggestDistance = 2

var ErrNoImages = errors.New("no images found")

var imageTypes = map[string]string{
	".gif":  "image/gif",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ImageStore serves portraits out of a single flat directory.
type ImageStore struct {
	fs  afero.Fs
	dir string
}

func newImageStore(fs afero.Fs, dir string) *ImageStore {
	return &ImageStore{
		fs:  fs,
		dir: dir,
	}
}

// Files lists supported image files, sorted by name.
func (s *ImageStore) Files() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading image directory %q: %w", s.dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if _, ok := imageTypes[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}
		files = append(files, entry.Name())
	}

	slices.Sort(files)

	return files, nil
}

func (s *ImageStore) Read(file string) ([]byte, string, error) {
	contentType, ok := imageTypes[strings.ToLower(filepath.Ext(file))]
	if !ok || file != filepath.Base(file) || strings.HasPrefix(file, ".") {
		return nil, "", fmt.Errorf("%w: %q", afero.ErrFileNotFound, file)
	}

	data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, file))
	if err != nil {
		return nil, "", err
	}

	return data, contentType, nil
}

func displayName(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file))
}

func imageURL(cfg *Config, file string) string {
	return cfg.prefix + "/images/" + url.PathEscape(file)
}

// buildCatalog turns the configured files into a catalog. An explicit
// --names list keeps its order; otherwise the sorted directory listing is used.
func buildCatalog(cfg *Config, store *ImageStore) (*selector.Catalog, error) {
	files := cfg.names
	if len(files) == 0 {
		var err error

		files, err = store.Files()
		if err != nil {
			return nil, err
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %q: %w", ErrNoImages, store.dir, selector.ErrEmptyCatalog)
	}

	sources := make([]selector.Source, 0, len(files))
	names := make([]string, 0, len(files))
	for _, file := range files {
		name := displayName(file)

		sources = append(sources, selector.Source{
			Name:      name,
			Reference: imageURL(cfg, file),
		})
		names = append(names, name)
	}

	for _, miss := range unmatchedBlacklist(names, cfg.blacklist) {
		if miss.suggestion != "" {
			logf(cfg, "CONFIG: Blacklisted name %q matches no image (did you mean %q?)", miss.name, miss.suggestion)
		} else {
			logf(cfg, "CONFIG: Blacklisted name %q matches no image", miss.name)
		}
	}

	catalog, err := selector.NewCatalog(sources, cfg.blacklist)
	if err != nil {
		return nil, err
	}

	logf(cfg, "IMAGES: Loaded %d images (%d selectable)", catalog.Len(), len(catalog.Selectable()))

	return catalog, nil
}

type blacklistMiss struct {
	name       string
	suggestion string
}

// unmatchedBlacklist reports blacklist entries that name no image, along
// with the closest image name when it is a likely typo.
func unmatchedBlacklist(names, blacklist []string) []blacklistMiss {
	var misses []blacklistMiss

	for _, banned := range blacklist {
		if slices.Contains(names, banned) {
			continue
		}

		miss := blacklistMiss{name: banned}
		best := suggestDistance + 1
		for _, name := range names {
			dist := levenshtein.ComputeDistance(banned, name)
			if dist < best {
				best = dist
				miss.suggestion = name
			}
		}

		misses = append(misses, miss)
	}

	return misses
}

func serveImage(cfg *Config, store *ImageStore, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		file := path.Clean(p.ByName("file"))

		data, contentType, err := store.Read(file)
		if err != nil {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		written, err := w.Write(data)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Image %s (%s) to %s in %s",
			file,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveMusic(cfg *Config, fs afero.Fs) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		f, err := fs.Open(cfg.bgm)
		if err != nil {
			http.NotFound(w, r)

			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			http.NotFound(w, r)

			return
		}

		securityHeaders(cfg, w)

		http.ServeContent(w, r, filepath.Base(cfg.bgm), info.ModTime(), f)
	}
}

func humanReadableSize(bytes int64) string {
	const unit int64 = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB",
		float64(bytes)/float64(div),
		"kMGTPE"[exp])
}
