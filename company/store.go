// Package company stores the per-company anchor data that deadline rules
// resolve against. Stores are tenant-scoped: one Store instance serves
// exactly one tenant.
package company

import (
	"fmt"
	"sync"
	"time"

	"github.com/complyport/deadlines/deadline"
)

// Company is a tracked company and its anchor data.
type Company struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`

	Anchors deadline.CompanyAnchorData `json:"anchors"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store manages company persistence and retrieval.
type Store interface {
	// Add a new company
	Add(c *Company) error

	// Get a company by ID
	Get(id string) (*Company, error)

	// List all active companies
	ListActive() ([]*Company, error)

	// Update an existing company
	Update(c *Company) error

	// Delete a company
	Delete(id string) error
}

// InMemoryStore implements Store using an in-memory map. Reads hand out
// copies so callers can mutate what they got back without racing other
// readers; a mutation only lands when written back through Update.
type InMemoryStore struct {
	companies map[string]*Company
	mu        sync.RWMutex
}

// NewInMemoryStore creates a new in-memory company store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		companies: make(map[string]*Company),
	}
}

// Add adds a new company to the store.
func (s *InMemoryStore) Add(c *Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.companies[c.ID]; exists {
		return fmt.Errorf("company with ID %s already exists", c.ID)
	}

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	stored := *c
	s.companies[c.ID] = &stored
	return nil
}

// Get retrieves a company by ID.
func (s *InMemoryStore) Get(id string) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.companies[id]
	if !exists {
		return nil, fmt.Errorf("company with ID %s not found", id)
	}
	cp := *c
	return &cp, nil
}

// ListActive returns all active companies.
func (s *InMemoryStore) ListActive() ([]*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []*Company
	for _, c := range s.companies {
		if c.Active {
			cp := *c
			active = append(active, &cp)
		}
	}
	return active, nil
}

// Update updates an existing company.
func (s *InMemoryStore) Update(c *Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.companies[c.ID]
	if !exists {
		return fmt.Errorf("company with ID %s not found", c.ID)
	}

	// Preserve original CreatedAt timestamp
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now()
	stored := *c
	s.companies[c.ID] = &stored
	return nil
}

// Delete removes a company from the store.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.companies[id]; !exists {
		return fmt.Errorf("company with ID %s not found", id)
	}

	delete(s.companies, id)
	return nil
}
