package mysql

import (
	"context"
	"fmt"

	"piecetrack/internal/storage"
)

// ListOperations returns the operation reference list in display order.
func (s *Storage) ListOperations(ctx context.Context) ([]storage.Operation, error) {
	const op = "storage.mysql.ListOperations"

	rows, err := s.db.QueryContext(ctx, `
        SELECT operation, operation_name, sort_order
        FROM operations
        ORDER BY sort_order ASC`)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var operations []storage.Operation
	for rows.Next() {
		var o storage.Operation
		if err := rows.Scan(&o.Code, &o.Name, &o.SortOrder); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		operations = append(operations, o)
	}
	return operations, rows.Err()
}
