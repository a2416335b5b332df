package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/harshgondal/Job-Finder/internal/cache"
	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/llm"
	"github.com/harshgondal/Job-Finder/internal/source"
)

// stubSource records every search and answers from a callback.
type stubSource struct {
	name    string
	cooling bool
	respond func(source.SearchParams) ([]domain.Job, error)

	mu    sync.Mutex
	calls []source.SearchParams
}

func (s *stubSource) Name() string      { return s.name }
func (s *stubSource) CoolingDown() bool { return s.cooling }

func (s *stubSource) Search(ctx context.Context, p source.SearchParams) ([]domain.Job, error) {
	s.mu.Lock()
	s.calls = append(s.calls, p)
	s.mu.Unlock()
	if s.respond == nil {
		return nil, nil
	}
	return s.respond(p)
}

func (s *stubSource) Calls() []source.SearchParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]source.SearchParams(nil), s.calls...)
}

type stubRoles struct {
	roles []string
}

func (s stubRoles) SimilarRoles(ctx context.Context, role, location string) []string {
	return s.roles
}

// stubLLM returns a fixed answer or error and counts calls.
type stubLLM struct {
	answer string
	err    error
	calls  atomic.Int32
	last   llm.Request
	mu     sync.Mutex
}

func (s *stubLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.last = req
	s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func (s *stubLLM) lastRequest() llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

var errStub = errors.New("stub failure")

func newMemoryCache() *cache.Cache {
	return cache.New(cache.NewMemoryStore(1000))
}

func job(id, title, company, location string) domain.Job {
	return domain.Job{ID: id, Title: title, Company: company, Location: location, Source: "stub"}
}
