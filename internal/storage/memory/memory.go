// Package memory keeps logo objects in process memory and can serve them
// over HTTP. It backs local development and tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/utafrali/CompanyDirectory/internal/storage"
)

// PathPrefix is where Handler expects to be mounted.
const PathPrefix = "/uploads/"

type object struct {
	contentType string
	data        []byte
}

// Storage implements storage.Storage using an in-memory map.
type Storage struct {
	mu      sync.RWMutex
	objects map[string]*object
	baseURL string
}

var _ storage.Storage = (*Storage)(nil)

// New creates a store whose URLs start with baseURL.
func New(baseURL string) *Storage {
	return &Storage{
		objects: make(map[string]*object),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Upload reads the whole object into memory.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	data, err := io.ReadAll(input.Data)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", input.Key, err)
	}

	s.mu.Lock()
	s.objects[input.Key] = &object{contentType: input.ContentType, data: data}
	s.mu.Unlock()

	return &storage.UploadResult{Key: input.Key, URL: s.url(input.Key)}, nil
}

// Delete removes the object under key.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	delete(s.objects, key)
	return nil
}

// GetURL returns the URL for key.
func (s *Storage) GetURL(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return s.url(key), nil
}

// Len returns the number of stored objects.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Handler serves stored objects under PathPrefix.
func (s *Storage) Handler() http.Handler {
	return http.StripPrefix(PathPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		obj, ok := s.objects[r.URL.Path]
		s.mu.RUnlock()
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", obj.contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.data)))
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = io.Copy(w, bytes.NewReader(obj.data))
	}))
}

func (s *Storage) url(key string) string {
	return s.baseURL + PathPrefix + key
}
