// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/melodylog/internal/models"
)

// SearchCall records one call to [MockProvider.Search].
type SearchCall struct {
	Keyword string
	Limit   int
}

// MockProvider is a test double for services.Provider.
//
// It returns Results (or Err) and records every call.
type MockProvider struct {
	ProviderID   string
	ProviderName string
	Results      []models.ProviderSong
	Err          error

	mu    sync.Mutex
	calls []SearchCall
}

func NewMockProvider(id string, results []models.ProviderSong, err error) *MockProvider {
	return &MockProvider{ProviderID: id, ProviderName: id, Results: results, Err: err}
}

func (m *MockProvider) ID() string   { return m.ProviderID }
func (m *MockProvider) Name() string { return m.ProviderName }

func (m *MockProvider) Search(ctx context.Context, keyword string, limit int) ([]models.ProviderSong, error) {
	m.mu.Lock()
	m.calls = append(m.calls, SearchCall{Keyword: keyword, Limit: limit})
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if limit > 0 && len(m.Results) > limit {
		return m.Results[:limit], nil
	}
	return m.Results, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockProvider) Calls() []SearchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SearchCall(nil), m.calls...)
}

// MemoryStore is an in-memory key-value store satisfying the storage port.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string]string
	GetErr error
	SetErr error
	// SetFailures makes the next n writes fail, after which writes succeed unless SetErr is set.
	SetFailures int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return "", false, s.GetErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetFailures > 0 {
		s.SetFailures--
		return errors.New("set failed")
	}
	if s.SetErr != nil {
		return s.SetErr
	}
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Has reports whether key is present without going through the port.
func (s *MemoryStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// SampleSong builds a valid song for fixtures.
func SampleSong(t *testing.T, id, title string, artists ...string) models.Song {
	t.Helper()
	if len(artists) == 0 {
		artists = []string{"Artist"}
	}
	s := models.NewSong(title, artists)
	if id != "" {
		s.ID = id
	}
	return s
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
