package ao3

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// stubTransport serves canned pages and records every request, so tests
// can assert on fetch counts and posted forms without a network.
type stubTransport struct {
	mu      sync.Mutex
	pages   map[string]string
	failing map[string]error
	fetches map[string]int

	auth     bool
	token    string
	username string

	posts      []postRecord
	postErr    error
	postResult *formResult
}

type postRecord struct {
	path    string
	form    url.Values
	headers map[string]string
}

func newStubTransport() *stubTransport {
	return &stubTransport{
		pages:   map[string]string{},
		failing: map[string]error{},
		fetches: map[string]int{},
	}
}

// pageKey folds the page query parameter into the lookup key so
// paginated listings can serve distinct pages.
func pageKey(path string, query url.Values) string {
	if p := query.Get("page"); p != "" {
		return path + "?page=" + p
	}
	return path
}

func (s *stubTransport) getDocument(ctx context.Context, path string, query url.Values) (*goquery.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pageKey(path, query)
	s.fetches[key]++
	if err := s.failing[key]; err != nil {
		return nil, err
	}
	html, ok := s.pages[key]
	if !ok {
		return nil, &HTTPError{StatusCode: 404, Path: path}
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (s *stubTransport) getBytes(ctx context.Context, path string, query url.Values) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pageKey(path, query)
	s.fetches[key]++
	if err := s.failing[key]; err != nil {
		return nil, err
	}
	html, ok := s.pages[key]
	if !ok {
		return nil, &HTTPError{StatusCode: 404, Path: path}
	}
	return []byte(html), nil
}

func (s *stubTransport) postForm(ctx context.Context, path string, form url.Values, headers map[string]string) (*formResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.posts = append(s.posts, postRecord{path: path, form: form, headers: headers})
	if s.postErr != nil {
		return nil, s.postErr
	}
	if s.postResult != nil {
		return s.postResult, nil
	}
	return &formResult{StatusCode: 200}, nil
}

func (s *stubTransport) authenticated() bool {
	return s.auth
}

func (s *stubTransport) authenticityToken() string {
	return s.token
}

func (s *stubTransport) currentUsername() string {
	return s.username
}

func (s *stubTransport) fetchCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[key]
}

func (s *stubTransport) totalFetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.fetches {
		total += n
	}
	return total
}

func (s *stubTransport) postCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}
