package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrWong99/mouthpiece/internal/store"
)

const clientColumns = `id, name, language, notes, created_at, updated_at`

func scanClient(scanner interface{ Scan(dest ...any) error }) (*store.Client, error) {
	var (
		c                    store.Client
		createdAt, updatedAt string
	)
	if err := scanner.Scan(&c.ID, &c.Name, &c.Language, &c.Notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClient inserts a new client.
func (s *Store) CreateClient(ctx context.Context, c *store.Client) error {
	if err := store.PrepareClient(c, s.now()); err != nil {
		return fmt.Errorf("sqlite: create client: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		c.ID, c.Name, string(c.Language), c.Notes,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: create client %s: %w", c.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sqlite: create client %s: %w", c.ID, store.ErrAlreadyExists)
	}
	return nil
}

// GetClient retrieves a client by ID.
func (s *Store) GetClient(ctx context.Context, id string) (*store.Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get client %s: %w", id, notFound(err))
	}
	return c, nil
}

// ListClients returns matching clients ordered by name.
func (s *Store) ListClients(ctx context.Context, f store.ClientFilter) ([]store.Client, error) {
	var (
		where []string
		args  []any
	)
	if f.Name != "" {
		where = append(where, "instr(lower(name), lower(?)) > 0")
		args = append(args, f.Name)
	}
	if f.Language != "" {
		where = append(where, "language = ?")
		args = append(args, string(f.Language))
	}
	query := `SELECT ` + clientColumns + ` FROM clients`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY lower(name), id LIMIT ?`
	args = append(args, store.Limit(f.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list clients: %w", err)
	}
	defer rows.Close()

	out := make([]store.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list clients: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list clients: %w", err)
	}
	return out, nil
}

// UpdateClient replaces the mutable fields of an existing client.
func (s *Store) UpdateClient(ctx context.Context, c *store.Client) error {
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("sqlite: update client: %w", store.ErrInvalidInput)
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE clients SET name = ?, language = ?, notes = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+clientColumns,
		c.Name, string(c.Language), c.Notes, formatTime(s.now()), c.ID,
	)
	updated, err := scanClient(row)
	if err != nil {
		return fmt.Errorf("sqlite: update client %s: %w", c.ID, notFound(err))
	}
	*c = *updated
	return nil
}

// DeleteClient removes a client by ID. Its attempts are kept.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete client %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sqlite: delete client %s: %w", id, store.ErrNotFound)
	}
	return nil
}
