package employees

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const employeeColumns = `id, login, password_hash, full_name, email, phone, department, position, role, joined_at, created_at, updated_at`

func (r *Repository) CreateEmployee(ctx context.Context, login, passwordHash, fullName, department, position string, email, phone *string) (*Employee, error) {
	query := `
		INSERT INTO employees (login, password_hash, full_name, email, phone, department, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + employeeColumns

	var employee Employee
	err := r.db.GetContext(ctx, &employee, query, login, passwordHash, fullName, email, phone, department, position)
	if err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	return &employee, nil
}

func (r *Repository) GetByLogin(ctx context.Context, login string) (*Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE login = $1`

	var employee Employee
	err := r.db.GetContext(ctx, &employee, query, login)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee by login: %w", err)
	}
	return &employee, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	var employee Employee
	err := r.db.GetContext(ctx, &employee, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee by id: %w", err)
	}
	return &employee, nil
}

func (r *Repository) Search(ctx context.Context, query string, limit int) ([]Employee, error) {
	sqlQuery := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE LOWER(full_name) LIKE LOWER($1)
		   OR LOWER(department) LIKE LOWER($1)
		   OR LOWER(position) LIKE LOWER($1)
		ORDER BY full_name
		LIMIT $2
	`

	var result []Employee
	err := r.db.SelectContext(ctx, &result, sqlQuery, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search employees: %w", err)
	}
	return result, nil
}
