// Package storage keeps uploaded binaries (variant images, audio tracks, make
// icons) on a billy filesystem and serves them over HTTP.
package storage

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Key prefixes, one directory per kind of binary.
const (
	DirVariantImages = "variant_images"
	DirAudioTracks   = "audio_tracks"
	DirMakeIcons     = "make_icons"
)

var ErrInvalidKey = errors.New("invalid storage key")

type Storage struct {
	fs      billy.Filesystem
	baseURL string
	pending sync.WaitGroup
}

func New(fs billy.Filesystem, baseURL string) *Storage {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Storage{fs: fs, baseURL: baseURL}
}

// NewLocal stores files under root on the local disk.
func NewLocal(root, baseURL string) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return New(osfs.New(root), baseURL), nil
}

// NewMemory keeps files in memory.
func NewMemory(baseURL string) *Storage {
	return New(memfs.New(), baseURL)
}

// Save writes r under dir with a unique name derived from filename and
// returns the key.
func (s *Storage) Save(dir, filename string, r io.Reader) (string, error) {
	name := strings.ReplaceAll(path.Base(filename), " ", "_")
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	key := path.Join(dir, uuid.NewString()+"_"+name)

	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := s.fs.Create(key)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		s.fs.Remove(key)
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return key, nil
}

// Open returns the stored file. A missing key yields os.ErrNotExist.
func (s *Storage) Open(key string) (billy.File, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	return s.fs.Open(clean)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Storage) Delete(key string) error {
	clean, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(clean); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// DeleteLater removes keys in the background. Failures are logged only; the
// database rows are already gone.
func (s *Storage) DeleteLater(keys ...string) {
	if len(keys) == 0 {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		for _, key := range keys {
			if key == "" {
				continue
			}
			if err := s.Delete(key); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to delete stored file")
			}
		}
	}()
}

// Wait blocks until every DeleteLater call has finished.
func (s *Storage) Wait() {
	s.pending.Wait()
}

// URL is the public address of key; empty for an empty key.
func (s *Storage) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + key
}

// Handler serves GET {baseURL}{path...}. It expects the route pattern to
// bind the key to the "path" wildcard.
func (s *Storage) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, err := cleanKey(r.PathValue("path"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		info, err := s.fs.Stat(key)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		f, err := s.fs.Open(key)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()

		w.Header().Set("Cache-Control", "public, max-age=86400")
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

func cleanKey(key string) (string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return clean, nil
}
