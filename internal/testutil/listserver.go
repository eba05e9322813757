// Package testutil provides helpers for deterministic list download tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Response defines a fixed HTTP reply for a path.
type Response struct {
	Body   string
	Status int
	// Delay holds the reply back; a cancelled request returns early.
	Delay time.Duration
}

// ListServer serves fixed list bodies over HTTP and counts requests.
type ListServer struct {
	URL string

	server *httptest.Server
	mu     sync.Mutex
	routes map[string]Response
	hits   map[string]*atomic.Int64
	header http.Header
}

// StartListServer starts a server for routes and closes it on test cleanup.
func StartListServer(t *testing.T, routes map[string]Response) *ListServer {
	t.Helper()

	s := &ListServer{
		routes: make(map[string]Response, len(routes)),
		hits:   make(map[string]*atomic.Int64, len(routes)),
	}
	for path, resp := range routes {
		s.routes[path] = resp
		s.hits[path] = &atomic.Int64{}
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.serve))
	s.URL = s.server.URL
	t.Cleanup(s.server.Close)
	return s
}

func (s *ListServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp, ok := s.routes[r.URL.Path]
	counter := s.hits[r.URL.Path]
	s.header = r.Header.Clone()
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	counter.Add(1)

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}
	if resp.Status != 0 && resp.Status != http.StatusOK {
		w.WriteHeader(resp.Status)
		return
	}
	_, _ = w.Write([]byte(resp.Body))
}

// Set replaces the response for path.
func (s *ListServer) Set(path string, resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[path] = resp
	if s.hits[path] == nil {
		s.hits[path] = &atomic.Int64{}
	}
}

// Hits returns how many requests path received.
func (s *ListServer) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.hits[path]; c != nil {
		return int(c.Load())
	}
	return 0
}

// LastHeader returns the headers of the most recent request.
func (s *ListServer) LastHeader() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header.Clone()
}
