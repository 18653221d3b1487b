package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrWong99/mouthpiece/internal/store"
)

// attemptColumns must match the scan order in scanAttempt.
const attemptColumns = `id, client_id, mode, target, language, policy, expected, detected,
	score, accepted, feedback, transcript, backend, created_at`

func scanAttempt(scanner interface{ Scan(dest ...any) error }) (*store.Attempt, error) {
	var (
		a                            store.Attempt
		expected, detected, feedback string
		accepted                     int
		createdAt                    string
	)
	err := scanner.Scan(
		&a.ID, &a.ClientID, &a.Mode, &a.Target, &a.Language, &a.Policy,
		&expected, &detected, &a.Score, &accepted, &feedback,
		&a.Transcript, &a.Backend, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if a.Expected, err = decodeList(expected); err != nil {
		return nil, fmt.Errorf("decode expected: %w", err)
	}
	if a.Detected, err = decodeList(detected); err != nil {
		return nil, fmt.Errorf("decode detected: %w", err)
	}
	if a.Feedback, err = decodeList(feedback); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	a.Accepted = accepted != 0
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveAttempt inserts a new attempt.
func (s *Store) SaveAttempt(ctx context.Context, a *store.Attempt) error {
	if err := store.PrepareAttempt(a, s.now()); err != nil {
		return fmt.Errorf("sqlite: save attempt: %w", err)
	}
	expected, err := encodeList(a.Expected)
	if err != nil {
		return fmt.Errorf("sqlite: save attempt: %w", err)
	}
	detected, err := encodeList(a.Detected)
	if err != nil {
		return fmt.Errorf("sqlite: save attempt: %w", err)
	}
	feedback, err := encodeList(a.Feedback)
	if err != nil {
		return fmt.Errorf("sqlite: save attempt: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts (`+attemptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		a.ID, a.ClientID, string(a.Mode), a.Target, string(a.Language), a.Policy,
		expected, detected, a.Score, boolToInt(a.Accepted), feedback,
		a.Transcript, a.Backend, formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save attempt %s: %w", a.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sqlite: save attempt %s: %w", a.ID, store.ErrAlreadyExists)
	}
	return nil
}

// GetAttempt retrieves an attempt by ID.
func (s *Store) GetAttempt(ctx context.Context, id string) (*store.Attempt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = ?`, id)
	a, err := scanAttempt(row)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get attempt %s: %w", id, notFound(err))
	}
	return a, nil
}

// ListAttempts returns matching attempts, newest first.
func (s *Store) ListAttempts(ctx context.Context, f store.AttemptFilter) ([]store.Attempt, error) {
	var (
		where []string
		args  []any
	)
	if f.ClientID != "" {
		where = append(where, "client_id = ?")
		args = append(args, f.ClientID)
	}
	if f.Target != "" {
		where = append(where, "target = ? COLLATE NOCASE")
		args = append(args, f.Target)
	}
	if f.Language != "" {
		where = append(where, "language = ?")
		args = append(args, string(f.Language))
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, formatTime(f.Since))
	}

	query := `SELECT ` + attemptColumns + ` FROM attempts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, store.Limit(f.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list attempts: %w", err)
	}
	defer rows.Close()

	out := make([]store.Attempt, 0)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list attempts: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list attempts: %w", err)
	}
	return out, nil
}

// DeleteAttempt removes an attempt by ID.
func (s *Store) DeleteAttempt(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM attempts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete attempt %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sqlite: delete attempt %s: %w", id, store.ErrNotFound)
	}
	return nil
}
