// Package tenantengine manages per-tenant deadline engines, company
// stores, and preview caches.
package tenantengine

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/complyport/deadlines/company"
	"github.com/complyport/deadlines/deadline"
)

// Tenant bundles everything the server needs to answer requests for one
// tenant.
type Tenant struct {
	TenantID  string
	Name      string
	Engine    *deadline.Engine
	Companies company.Store
	Previews  deadline.PreviewCache
}

// Manager manages tenants for the whole process. Tenant lookups are hot;
// creation and deletion are rare.
type Manager struct {
	tenants map[string]*Tenant
	db      *sql.DB
	cache   deadline.CacheConfig
	mu      sync.RWMutex
}

// NewManager creates a manager. A nil db means tenants get in-memory
// company stores, which is what the tests and the stateless preview path
// use.
func NewManager(db *sql.DB) *Manager {
	return &Manager{
		tenants: make(map[string]*Tenant),
		db:      db,
		cache:   deadline.DefaultCacheConfig(),
	}
}

// LoadAllTenants loads every tenant from the database and initializes
// its engine. Returns the number of tenants loaded.
func (m *Manager) LoadAllTenants() (int, error) {
	if m.db == nil {
		return 0, fmt.Errorf("no database configured")
	}

	rows, err := m.db.Query(`
		SELECT id, name
		FROM tenants
		ORDER BY created_at ASC
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch tenants: %w", err)
	}
	defer rows.Close()

	loaded := 0
	for rows.Next() {
		var tenantID, name string
		if err := rows.Scan(&tenantID, &name); err != nil {
			return loaded, fmt.Errorf("failed to scan tenant row: %w", err)
		}

		if err := m.CreateTenant(tenantID, name); err != nil {
			return loaded, fmt.Errorf("failed to initialize tenant %s: %w", tenantID, err)
		}
		loaded++
	}

	if err := rows.Err(); err != nil {
		return loaded, fmt.Errorf("error iterating tenant rows: %w", err)
	}

	return loaded, nil
}

// CreateTenant creates a tenant with a fresh engine, company store, and
// preview cache.
func (m *Manager) CreateTenant(tenantID, name string) error {
	engine, err := deadline.NewEngine()
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	var store company.Store
	if m.db != nil {
		store = company.NewPostgresStore(m.db, tenantID)
	} else {
		store = company.NewInMemoryStore()
	}

	m.mu.Lock()
	m.tenants[tenantID] = &Tenant{
		TenantID:  tenantID,
		Name:      name,
		Engine:    engine,
		Companies: store,
		Previews:  deadline.NewInMemoryPreviewCache(m.cache),
	}
	m.mu.Unlock()

	return nil
}

// GetTenant retrieves a tenant by ID.
func (m *Manager) GetTenant(tenantID string) (*Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, exists := m.tenants[tenantID]
	if !exists {
		return nil, fmt.Errorf("tenant %s not found", tenantID)
	}
	return t, nil
}

// ListTenants returns all loaded tenant IDs.
func (m *Manager) ListTenants() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tenants := make([]string, 0, len(m.tenants))
	for tenantID := range m.tenants {
		tenants = append(tenants, tenantID)
	}
	return tenants
}

// DeleteTenant removes a tenant from the manager. The database row, if
// any, is untouched.
func (m *Manager) DeleteTenant(tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tenants[tenantID]; !exists {
		return fmt.Errorf("tenant %s not found", tenantID)
	}

	delete(m.tenants, tenantID)
	return nil
}
