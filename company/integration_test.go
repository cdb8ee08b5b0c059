//go:build integration
// +build integration

package company_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/complyport/deadlines/company"
	"github.com/complyport/deadlines/deadline"

	_ "github.com/lib/pq"
)

// setupTestDB creates a PostgreSQL container and returns a connection
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "deadlines_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(60 * time.Second),
	}

	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	connStr := fmt.Sprintf("host=%s port=%s user=test password=test dbname=deadlines_test sslmode=disable", host, port.Port())

	// Wait for connection to be available
	var db *sql.DB
	for i := 0; i < 30; i++ {
		db, err = sql.Open("postgres", connStr)
		if err == nil {
			err = db.Ping()
			if err == nil {
				break
			}
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	migrationSQL, err := os.ReadFile(filepath.Join("..", "migrations", "000001_initial_schema.up.sql"))
	if err != nil {
		migrationSQL, err = os.ReadFile(filepath.Join("migrations", "000001_initial_schema.up.sql"))
		if err != nil {
			t.Fatalf("Failed to read migration file: %v", err)
		}
	}

	_, err = db.Exec(string(migrationSQL))
	if err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		db.Close()
		postgresContainer.Terminate(ctx)
	}

	return db, cleanup
}

// createTenant helper function to create a tenant in the database
func createTenant(t *testing.T, db *sql.DB, name string) string {
	var tenantID string
	err := db.QueryRow(`
		INSERT INTO tenants (name) VALUES ($1) RETURNING id
	`, name).Scan(&tenantID)
	if err != nil {
		t.Fatalf("Failed to create tenant: %v", err)
	}
	return tenantID
}

func TestPostgresStore_BasicCRUD(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	tenantID := createTenant(t, db, "test-tenant")
	store := company.NewPostgresStore(db, tenantID)

	incDate := time.Date(2019, time.July, 1, 0, 0, 0, 0, time.UTC)
	companyID := uuid.New().String()
	c := &company.Company{
		ID:     companyID,
		Name:   "Acme Pte Ltd",
		Active: true,
		Anchors: deadline.CompanyAnchorData{
			FYEMonth:          6,
			FYEDay:            30,
			IncorporationDate: &incDate,
			GSTRegistered:     true,
		},
	}

	if err := store.Add(c); err != nil {
		t.Fatalf("Failed to add company: %v", err)
	}

	retrieved, err := store.Get(companyID)
	if err != nil {
		t.Fatalf("Failed to get company: %v", err)
	}
	if retrieved.Name != "Acme Pte Ltd" {
		t.Errorf("Expected name 'Acme Pte Ltd', got '%s'", retrieved.Name)
	}
	if retrieved.Anchors.FYEMonth != 6 || retrieved.Anchors.FYEDay != 30 {
		t.Errorf("Expected FYE June 30, got %+v", retrieved.Anchors)
	}
	if retrieved.Anchors.IncorporationDate == nil {
		t.Error("Expected incorporation date to round-trip")
	}

	active, err := store.ListActive()
	if err != nil {
		t.Fatalf("Failed to list active companies: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("Expected 1 active company, got %d", len(active))
	}

	c.Name = "Acme Holdings"
	c.Active = false
	if err := store.Update(c); err != nil {
		t.Fatalf("Failed to update company: %v", err)
	}

	updated, err := store.Get(companyID)
	if err != nil {
		t.Fatalf("Failed to get updated company: %v", err)
	}
	if updated.Name != "Acme Holdings" {
		t.Errorf("Expected name 'Acme Holdings', got '%s'", updated.Name)
	}

	active, err = store.ListActive()
	if err != nil {
		t.Fatalf("Failed to list active companies: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("Expected 0 active companies, got %d", len(active))
	}

	if err := store.Delete(companyID); err != nil {
		t.Fatalf("Failed to delete company: %v", err)
	}
	if _, err := store.Get(companyID); err == nil {
		t.Error("Expected error when getting deleted company, got nil")
	}
}

func TestPostgresStore_TenantIsolation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	tenantA := createTenant(t, db, "tenant-a")
	tenantB := createTenant(t, db, "tenant-b")

	storeA := company.NewPostgresStore(db, tenantA)
	storeB := company.NewPostgresStore(db, tenantB)

	companyAID := uuid.New().String()
	if err := storeA.Add(&company.Company{ID: companyAID, Name: "A Co", Active: true}); err != nil {
		t.Fatalf("Failed to add company for tenant A: %v", err)
	}

	companyBID := uuid.New().String()
	if err := storeB.Add(&company.Company{ID: companyBID, Name: "B Co", Active: true}); err != nil {
		t.Fatalf("Failed to add company for tenant B: %v", err)
	}

	if _, err := storeA.Get(companyBID); err == nil {
		t.Error("Tenant A should not be able to see tenant B's company")
	}
	if _, err := storeB.Get(companyAID); err == nil {
		t.Error("Tenant B should not be able to see tenant A's company")
	}

	companiesA, err := storeA.ListActive()
	if err != nil {
		t.Fatalf("Failed to list companies for tenant A: %v", err)
	}
	if len(companiesA) != 1 || companiesA[0].Name != "A Co" {
		t.Errorf("Expected tenant A to have exactly 'A Co', got %v", companiesA)
	}
}

func TestPostgresStore_DuplicateID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	tenantID := createTenant(t, db, "test-tenant")
	store := company.NewPostgresStore(db, tenantID)

	companyID := uuid.New().String()
	c := &company.Company{ID: companyID, Name: "Acme", Active: true}

	if err := store.Add(c); err != nil {
		t.Fatalf("Failed to add company: %v", err)
	}
	if err := store.Add(c); err == nil {
		t.Error("Expected error when adding duplicate company, got nil")
	}
}

func TestPostgresStore_UpdateAndDeleteNonExistent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	tenantID := createTenant(t, db, "test-tenant")
	store := company.NewPostgresStore(db, tenantID)

	missing := &company.Company{ID: uuid.New().String(), Name: "Ghost"}
	if err := store.Update(missing); err == nil {
		t.Error("Expected error when updating non-existent company, got nil")
	}
	if err := store.Delete(uuid.New().String()); err == nil {
		t.Error("Expected error when deleting non-existent company, got nil")
	}
}

func TestCascadingDelete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	tenantID := createTenant(t, db, "test-tenant")
	store := company.NewPostgresStore(db, tenantID)

	if err := store.Add(&company.Company{ID: uuid.New().String(), Name: "Acme", Active: true}); err != nil {
		t.Fatalf("Failed to add company: %v", err)
	}

	if _, err := db.Exec("DELETE FROM tenants WHERE id = $1", tenantID); err != nil {
		t.Fatalf("Failed to delete tenant: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM companies WHERE tenant_id = $1", tenantID).Scan(&count); err != nil {
		t.Fatalf("Failed to count companies: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 companies after tenant deletion, got %d", count)
	}
}
