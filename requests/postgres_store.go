package requests

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

const selectColumns = `id, type, title, description, location, ward_id, ward_name, alderman_name,
		status, priority, created_at, estimated_response_time, ai_generated_text`

// PostgresRequestStore implements RequestStore backed by PostgreSQL.
// The table is created by the migrations under migrations/.
type PostgresRequestStore struct {
	db *sql.DB
}

// NewPostgresRequestStore creates a PostgreSQL-backed RequestStore
func NewPostgresRequestStore(db *sql.DB) *PostgresRequestStore {
	return &PostgresRequestStore{db: db}
}

// Add inserts a new request
func (s *PostgresRequestStore) Add(ctx context.Context, req *Request) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requests (id, type, title, description, location, ward_id, ward_name, alderman_name,
			status, priority, created_at, estimated_response_time, ai_generated_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, req.ID, string(req.Type), req.Title, req.Description, req.Location, req.WardID, req.WardName,
		req.AldermanName, string(req.Status), string(req.Priority), req.CreatedAt,
		req.EstimatedResponseTime, req.AIGeneratedText)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return fmt.Errorf("request %s: %w", req.ID, ErrDuplicateID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}

	return nil
}

// List returns all requests newest first; seq preserves insertion order on ties
func (s *PostgresRequestStore) List(ctx context.Context) ([]*Request, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM requests
		ORDER BY created_at DESC, seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	list := []*Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		list = append(list, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}

	return list, nil
}

// Get retrieves a request by id
func (s *PostgresRequestStore) Get(ctx context.Context, id string) (*Request, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM requests
		WHERE id = $1
	`, id)

	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*Request, error) {
	var r Request
	var typ, status, priority string
	err := row.Scan(
		&r.ID,
		&typ,
		&r.Title,
		&r.Description,
		&r.Location,
		&r.WardID,
		&r.WardName,
		&r.AldermanName,
		&status,
		&priority,
		&r.CreatedAt,
		&r.EstimatedResponseTime,
		&r.AIGeneratedText,
	)
	if err != nil {
		return nil, err
	}

	r.Type = Type(typ)
	r.Status = Status(status)
	r.Priority = Priority(priority)
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}
