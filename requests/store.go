package requests

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned when no request has the given id
var ErrNotFound = errors.New("request not found")

// ErrDuplicateID is returned when a request id is already stored
var ErrDuplicateID = errors.New("request id already exists")

// RequestStore persists submitted requests
type RequestStore interface {
	// Add appends a request; ids must be unique
	Add(ctx context.Context, req *Request) error

	// List returns all requests, newest first
	List(ctx context.Context) ([]*Request, error)

	// Get returns the request with the given id or ErrNotFound
	Get(ctx context.Context, id string) (*Request, error)
}

// InMemoryRequestStore keeps requests for the lifetime of the process.
// Every server instance has its own copy; nothing survives a restart.
type InMemoryRequestStore struct {
	requests []*Request
	mu       sync.RWMutex
}

// NewInMemoryRequestStore creates an empty in-memory store
func NewInMemoryRequestStore() *InMemoryRequestStore {
	return &InMemoryRequestStore{}
}

// Add appends a request to the log
func (s *InMemoryRequestStore) Add(ctx context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.requests {
		if existing.ID == req.ID {
			return fmt.Errorf("request %s: %w", req.ID, ErrDuplicateID)
		}
	}

	stored := *req
	s.requests = append(s.requests, &stored)
	return nil
}

// List returns copies of all requests sorted by CreatedAt descending.
// Requests with equal timestamps keep insertion order.
func (s *InMemoryRequestStore) List(ctx context.Context) ([]*Request, error) {
	s.mu.RLock()
	out := make([]*Request, len(s.requests))
	for i, r := range s.requests {
		c := *r
		out[i] = &c
	}
	s.mu.RUnlock()

	SortNewestFirst(out)
	return out, nil
}

// Get looks a request up by id
func (s *InMemoryRequestStore) Get(ctx context.Context, id string) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.requests {
		if r.ID == id {
			c := *r
			return &c, nil
		}
	}
	return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
}

// SortNewestFirst orders requests by CreatedAt descending, stable on ties
func SortNewestFirst(reqs []*Request) {
	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
}

// ListByWard filters the store's listing down to one ward
func ListByWard(ctx context.Context, store RequestStore, wardID int) ([]*Request, error) {
	all, err := store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := []*Request{}
	for _, r := range all {
		if r.WardID == wardID {
			out = append(out, r)
		}
	}
	return out, nil
}
