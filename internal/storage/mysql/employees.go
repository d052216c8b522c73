package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"piecetrack/internal/storage"
)

// ListActiveEmployees returns the active roster ordered by name. PINs are
// not included; they never leave the login path.
func (s *Storage) ListActiveEmployees(ctx context.Context) ([]storage.Employee, error) {
	const op = "storage.mysql.ListActiveEmployees"

	rows, err := s.db.QueryContext(ctx, `
        SELECT employee_id, name, role, is_active
        FROM employees
        WHERE is_active = TRUE
        ORDER BY name ASC`)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var employees []storage.Employee
	for rows.Next() {
		var e storage.Employee
		if err := rows.Scan(&e.EmployeeID, &e.Name, &e.Role, &e.IsActive); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// ListAllEmployees includes inactive rows for the admin panel.
func (s *Storage) ListAllEmployees(ctx context.Context) ([]storage.Employee, error) {
	const op = "storage.mysql.ListAllEmployees"

	rows, err := s.db.QueryContext(ctx, `
        SELECT employee_id, name, role, is_active
        FROM employees
        ORDER BY name ASC`)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var employees []storage.Employee
	for rows.Next() {
		var e storage.Employee
		if err := rows.Scan(&e.EmployeeID, &e.Name, &e.Role, &e.IsActive); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// FindByCredentials is the login equality check: id + PIN against an
// active roster row.
func (s *Storage) FindByCredentials(ctx context.Context, employeeID, pin string) (*storage.Employee, error) {
	const op = "storage.mysql.FindByCredentials"

	var e storage.Employee
	err := s.db.QueryRowContext(ctx, `
        SELECT employee_id, name, role, is_active
        FROM employees
        WHERE employee_id = ? AND pin = ? AND is_active = TRUE`,
		employeeID, pin).Scan(&e.EmployeeID, &e.Name, &e.Role, &e.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrEmployeeNotFound)
	}
	if err != nil {
		return nil, unavailable(op, err)
	}
	return &e, nil
}

// SaveEmployee creates a roster entry (admin panel).
func (s *Storage) SaveEmployee(ctx context.Context, e storage.Employee) error {
	const op = "storage.mysql.SaveEmployee"

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO employees (employee_id, name, pin, role, is_active)
        VALUES (?, ?, ?, ?, ?)`,
		e.EmployeeID, e.Name, e.PIN, e.Role, e.IsActive)
	if err != nil {
		return unavailable(op, err)
	}
	return nil
}

// UpdateEmployee updates name, role and the active flag. The PIN is only
// replaced when a new one is supplied.
func (s *Storage) UpdateEmployee(ctx context.Context, e storage.Employee) error {
	const op = "storage.mysql.UpdateEmployee"

	query := `UPDATE employees SET name = ?, role = ?, is_active = ? WHERE employee_id = ?`
	args := []any{e.Name, e.Role, e.IsActive, e.EmployeeID}
	if e.PIN != "" {
		query = `UPDATE employees SET name = ?, role = ?, is_active = ?, pin = ? WHERE employee_id = ?`
		args = []any{e.Name, e.Role, e.IsActive, e.PIN, e.EmployeeID}
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return unavailable(op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrEmployeeNotFound)
	}
	return nil
}
