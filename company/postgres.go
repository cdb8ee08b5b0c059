package company

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store backed by PostgreSQL.
type PostgresStore struct {
	db       *sql.DB
	tenantID string
}

// NewPostgresStore creates a new PostgreSQL-backed Store for a specific tenant.
func NewPostgresStore(db *sql.DB, tenantID string) *PostgresStore {
	return &PostgresStore{
		db:       db,
		tenantID: tenantID,
	}
}

// Add inserts a new company into the database.
func (s *PostgresStore) Add(c *Company) error {
	// Check if company already exists
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM companies WHERE id = $1 AND tenant_id = $2)
	`, c.ID, s.tenantID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check company existence: %w", err)
	}
	if exists {
		return fmt.Errorf("company with ID %s already exists", c.ID)
	}

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err = s.db.Exec(`
		INSERT INTO companies (id, tenant_id, name, active, fye_month, fye_day, fye_year,
			incorporation_date, gst_registered, gst_registration_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, c.ID, s.tenantID, c.Name, c.Active, c.Anchors.FYEMonth, c.Anchors.FYEDay, c.Anchors.FYEYear,
		c.Anchors.IncorporationDate, c.Anchors.GSTRegistered, c.Anchors.GSTRegistrationDate,
		c.CreatedAt, c.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert company: %w", err)
	}

	return nil
}

// Get retrieves a company by ID.
func (s *PostgresStore) Get(id string) (*Company, error) {
	var c Company
	err := s.db.QueryRow(`
		SELECT id, name, active, fye_month, fye_day, fye_year,
			incorporation_date, gst_registered, gst_registration_date, created_at, updated_at
		FROM companies
		WHERE id = $1 AND tenant_id = $2
	`, id, s.tenantID).Scan(
		&c.ID,
		&c.Name,
		&c.Active,
		&c.Anchors.FYEMonth,
		&c.Anchors.FYEDay,
		&c.Anchors.FYEYear,
		&c.Anchors.IncorporationDate,
		&c.Anchors.GSTRegistered,
		&c.Anchors.GSTRegistrationDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("company %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return &c, nil
}

// ListActive returns all active companies for the tenant.
func (s *PostgresStore) ListActive() ([]*Company, error) {
	rows, err := s.db.Query(`
		SELECT id, name, active, fye_month, fye_day, fye_year,
			incorporation_date, gst_registered, gst_registration_date, created_at, updated_at
		FROM companies
		WHERE tenant_id = $1 AND active = true
		ORDER BY created_at ASC
	`, s.tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active companies: %w", err)
	}
	defer rows.Close()

	var companies []*Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Active,
			&c.Anchors.FYEMonth, &c.Anchors.FYEDay, &c.Anchors.FYEYear,
			&c.Anchors.IncorporationDate, &c.Anchors.GSTRegistered, &c.Anchors.GSTRegistrationDate,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating companies: %w", err)
	}

	return companies, nil
}

// Update modifies an existing company.
func (s *PostgresStore) Update(c *Company) error {
	// Check if company exists
	_, err := s.Get(c.ID)
	if err != nil {
		return err
	}

	// Update the timestamp
	c.UpdatedAt = time.Now()

	result, err := s.db.Exec(`
		UPDATE companies
		SET name = $1, active = $2, fye_month = $3, fye_day = $4, fye_year = $5,
			incorporation_date = $6, gst_registered = $7, gst_registration_date = $8, updated_at = $9
		WHERE id = $10 AND tenant_id = $11
	`, c.Name, c.Active, c.Anchors.FYEMonth, c.Anchors.FYEDay, c.Anchors.FYEYear,
		c.Anchors.IncorporationDate, c.Anchors.GSTRegistered, c.Anchors.GSTRegistrationDate,
		c.UpdatedAt, c.ID, s.tenantID)

	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("company %s not found", c.ID)
	}

	return nil
}

// Delete removes a company from the database.
func (s *PostgresStore) Delete(id string) error {
	result, err := s.db.Exec(`
		DELETE FROM companies
		WHERE id = $1 AND tenant_id = $2
	`, id, s.tenantID)

	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("company %s not found", id)
	}

	return nil
}
