package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eaglebank/personnel-service/shared/models"
	"github.com/lib/pq"
)

const employeeColumns = `id, firstname, lastname, salary, address, phone_number, created_at, updated_at`

// PostgresEmployeeRepository stores employee records in the employees table.
// The schema lives in migrations/001_create_employees.sql.
type PostgresEmployeeRepository struct {
	db *sql.DB
}

func NewPostgresEmployeeRepository(db *sql.DB) *PostgresEmployeeRepository {
	return &PostgresEmployeeRepository{db: db}
}

func (r *PostgresEmployeeRepository) FindAll(ctx context.Context) ([]models.EmployeeRecord, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	records := []models.EmployeeRecord{}
	for rows.Next() {
		record, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return records, nil
}

func (r *PostgresEmployeeRepository) FindByID(ctx context.Context, id string) (*models.EmployeeRecord, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	record, err := scanEmployee(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return record, nil
}

func (r *PostgresEmployeeRepository) Create(ctx context.Context, details models.PersonalDetails) (*models.EmployeeRecord, error) {
	record, err := newRecord(details)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		record.ID, record.Firstname, record.Lastname, record.Salary,
		record.Address, record.PhoneNumber, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, fmt.Errorf("employee %s already exists: %w", record.ID, err)
		}
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	return record, nil
}

// UpdateByID only overwrites the columns whose change is non-nil.
func (r *PostgresEmployeeRepository) UpdateByID(ctx context.Context, id string, changes models.EmployeeChanges) (*models.EmployeeRecord, error) {
	query := `
		UPDATE employees
		SET firstname = COALESCE($2, firstname),
			lastname = COALESCE($3, lastname),
			salary = COALESCE($4, salary),
			address = COALESCE($5, address),
			phone_number = COALESCE($6, phone_number),
			updated_at = $7
		WHERE id = $1
		RETURNING ` + employeeColumns
	record, err := scanEmployee(r.db.QueryRowContext(ctx, query,
		id,
		nullString(changes.Firstname),
		nullString(changes.Lastname),
		nullFloat(changes.Salary),
		nullString(changes.Address),
		nullString(changes.PhoneNumber),
		time.Now().UTC().Truncate(time.Millisecond),
	))
	if err == sql.ErrNoRows {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}
	return record, nil
}

func (r *PostgresEmployeeRepository) DeleteByID(ctx context.Context, id string) (*models.EmployeeRecord, error) {
	query := `DELETE FROM employees WHERE id = $1 RETURNING ` + employeeColumns
	record, err := scanEmployee(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete employee: %w", err)
	}
	return record, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*models.EmployeeRecord, error) {
	var record models.EmployeeRecord
	err := row.Scan(
		&record.ID, &record.Firstname, &record.Lastname, &record.Salary,
		&record.Address, &record.PhoneNumber, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return &record, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
