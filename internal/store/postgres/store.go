// Package postgres is a [store.Store] backed by PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/mouthpiece/internal/store"
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
)

// DB is the subset of *pgxpool.Pool the store uses. *pgx.Conn satisfies it
// too.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Compile-time interface assertion.
var _ store.Store = (*Store)(nil)

// Store is a [store.Store] backed by PostgreSQL. String lists are stored as
// TEXT[] columns.
type Store struct {
	db   DB
	pool *pgxpool.Pool
	now  func() time.Time
}

// Open connects a pool to dsn, pings it and runs [Store.Migrate].
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	s := &Store{db: pool, pool: pool, now: time.Now}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection or pool. The caller runs
// [Store.Migrate] and owns the connection's lifetime.
func New(db DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Close releases the pool opened by [Open]. It is a no-op for stores built
// with [New].
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

const attemptColumns = `id, client_id, mode, target, language, policy, expected, detected,
	score, accepted, feedback, transcript, backend, created_at`

func scanAttempt(row pgx.Row) (store.Attempt, error) {
	var (
		a              store.Attempt
		mode, language string
	)
	err := row.Scan(
		&a.ID, &a.ClientID, &mode, &a.Target, &language, &a.Policy,
		&a.Expected, &a.Detected, &a.Score, &a.Accepted, &a.Feedback,
		&a.Transcript, &a.Backend, &a.CreatedAt,
	)
	a.Mode = store.Mode(mode)
	a.Language = phoneme.Language(language)
	return a, err
}

// SaveAttempt inserts a new attempt.
func (s *Store) SaveAttempt(ctx context.Context, a *store.Attempt) error {
	if err := store.PrepareAttempt(a, s.now()); err != nil {
		return fmt.Errorf("postgres: save attempt: %w", err)
	}
	const query = `
		INSERT INTO attempts (` + attemptColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err := s.db.Exec(ctx, query,
		a.ID, a.ClientID, string(a.Mode), a.Target, string(a.Language), a.Policy,
		emptySlice(a.Expected), emptySlice(a.Detected), a.Score, a.Accepted, emptySlice(a.Feedback),
		a.Transcript, a.Backend, a.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("postgres: save attempt %s: %w", a.ID, store.ErrAlreadyExists)
		}
		return fmt.Errorf("postgres: save attempt %s: %w", a.ID, err)
	}
	return nil
}

// GetAttempt retrieves an attempt by ID.
func (s *Store) GetAttempt(ctx context.Context, id string) (*store.Attempt, error) {
	a, err := scanAttempt(s.db.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("postgres: get attempt %s: %w", id, notFound(err))
	}
	return &a, nil
}

// ListAttempts returns matching attempts, newest first.
func (s *Store) ListAttempts(ctx context.Context, f store.AttemptFilter) ([]store.Attempt, error) {
	var q queryBuilder
	if f.ClientID != "" {
		q.where("client_id = %s", f.ClientID)
	}
	if f.Target != "" {
		q.where("lower(target) = lower(%s)", f.Target)
	}
	if f.Language != "" {
		q.where("language = %s", string(f.Language))
	}
	if !f.Since.IsZero() {
		q.where("created_at >= %s", f.Since)
	}
	query := `SELECT ` + attemptColumns + ` FROM attempts` + q.clause() +
		` ORDER BY created_at DESC, id DESC LIMIT ` + q.arg(store.Limit(f.Limit))

	rows, err := s.db.Query(ctx, query, q.args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list attempts: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Attempt, error) {
		return scanAttempt(row)
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: list attempts: %w", err)
	}
	if out == nil {
		out = []store.Attempt{}
	}
	return out, nil
}

// DeleteAttempt removes an attempt by ID.
func (s *Store) DeleteAttempt(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM attempts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete attempt %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: delete attempt %s: %w", id, store.ErrNotFound)
	}
	return nil
}

const clientColumns = `id, name, language, notes, created_at, updated_at`

func scanClient(row pgx.Row) (store.Client, error) {
	var (
		c        store.Client
		language string
	)
	err := row.Scan(&c.ID, &c.Name, &language, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	c.Language = phoneme.Language(language)
	return c, err
}

// CreateClient inserts a new client.
func (s *Store) CreateClient(ctx context.Context, c *store.Client) error {
	if err := store.PrepareClient(c, s.now()); err != nil {
		return fmt.Errorf("postgres: create client: %w", err)
	}
	const query = `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := s.db.Exec(ctx, query,
		c.ID, c.Name, string(c.Language), c.Notes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("postgres: create client %s: %w", c.ID, store.ErrAlreadyExists)
		}
		return fmt.Errorf("postgres: create client %s: %w", c.ID, err)
	}
	return nil
}

// GetClient retrieves a client by ID.
func (s *Store) GetClient(ctx context.Context, id string) (*store.Client, error) {
	c, err := scanClient(s.db.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("postgres: get client %s: %w", id, notFound(err))
	}
	return &c, nil
}

// ListClients returns matching clients ordered by name.
func (s *Store) ListClients(ctx context.Context, f store.ClientFilter) ([]store.Client, error) {
	var q queryBuilder
	if f.Name != "" {
		q.where("strpos(lower(name), lower(%s)) > 0", f.Name)
	}
	if f.Language != "" {
		q.where("language = %s", string(f.Language))
	}
	query := `SELECT ` + clientColumns + ` FROM clients` + q.clause() +
		` ORDER BY lower(name), id LIMIT ` + q.arg(store.Limit(f.Limit))

	rows, err := s.db.Query(ctx, query, q.args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list clients: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Client, error) {
		return scanClient(row)
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: list clients: %w", err)
	}
	if out == nil {
		out = []store.Client{}
	}
	return out, nil
}

// UpdateClient replaces the mutable fields of an existing client.
func (s *Store) UpdateClient(ctx context.Context, c *store.Client) error {
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("postgres: update client: %w", store.ErrInvalidInput)
	}
	const query = `
		UPDATE clients SET name = $2, language = $3, notes = $4, updated_at = $5
		WHERE id = $1
		RETURNING ` + clientColumns
	updated, err := scanClient(s.db.QueryRow(ctx, query,
		c.ID, c.Name, string(c.Language), c.Notes, s.now().UTC()))
	if err != nil {
		return fmt.Errorf("postgres: update client %s: %w", c.ID, notFound(err))
	}
	*c = updated
	return nil
}

// DeleteClient removes a client by ID. Its attempts are kept.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete client %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: delete client %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// GetSetting returns the value stored under key.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	if err := s.db.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&v); err != nil {
		return "", fmt.Errorf("postgres: get setting %q: %w", key, notFound(err))
	}
	return v, nil
}

// SetSetting creates or replaces the value stored under key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if err := store.ValidateSettingKey(key); err != nil {
		return fmt.Errorf("postgres: set setting: %w", err)
	}
	const query = `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := s.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("postgres: set setting %q: %w", key, err)
	}
	return nil
}

// queryBuilder collects WHERE conditions with numbered placeholders.
type queryBuilder struct {
	conds []string
	args  []any
}

func (q *queryBuilder) arg(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

func (q *queryBuilder) where(cond string, v any) {
	q.conds = append(q.conds, fmt.Sprintf(cond, q.arg(v)))
}

func (q *queryBuilder) clause() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conds, " AND ")
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func emptySlice(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
