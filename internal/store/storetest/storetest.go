// Package storetest is a conformance suite run against every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrWong99/mouthpiece/internal/store"
)

// Factory returns a fresh, empty store. It should register cleanup with t.
type Factory func(t *testing.T) store.Store

// Run executes the suite. Every subtest receives its own store.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"AttemptRoundTrip", testAttemptRoundTrip},
		{"AttemptDefaults", testAttemptDefaults},
		{"AttemptValidation", testAttemptValidation},
		{"AttemptDuplicateID", testAttemptDuplicateID},
		{"ListAttemptsFilterAndOrder", testListAttempts},
		{"DeleteAttempt", testDeleteAttempt},
		{"ClientCRUD", testClientCRUD},
		{"ListClients", testListClients},
		{"Settings", testSettings},
		{"Ping", testPing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func attempt(id, client, target string, at time.Time) *store.Attempt {
	return &store.Attempt{
		ID:        id,
		ClientID:  client,
		Mode:      store.ModeWord,
		Target:    target,
		Language:  "en",
		Policy:    "greedy",
		Expected:  []string{"h", "ɛ", "l", "oʊ"},
		Detected:  []string{"h", "eh", "l", "oh"},
		Score:     1,
		Accepted:  true,
		Feedback:  []string{"Great job! Your pronunciation matches the target."},
		CreatedAt: at,
	}
}

func testAttemptRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	want := attempt("att-1", "cli-1", "hello", base)
	want.Transcript = "hello"
	want.Backend = "whisper"
	require.NoError(t, s.SaveAttempt(ctx, want))

	got, err := s.GetAttempt(ctx, "att-1")
	require.NoError(t, err)
	assert.Equal(t, want.ClientID, got.ClientID)
	assert.Equal(t, want.Mode, got.Mode)
	assert.Equal(t, want.Target, got.Target)
	assert.Equal(t, want.Language, got.Language)
	assert.Equal(t, want.Policy, got.Policy)
	assert.Equal(t, want.Expected, got.Expected)
	assert.Equal(t, want.Detected, got.Detected)
	assert.InDelta(t, want.Score, got.Score, 1e-9)
	assert.True(t, got.Accepted)
	assert.Equal(t, want.Feedback, got.Feedback)
	assert.Equal(t, "hello", got.Transcript)
	assert.Equal(t, "whisper", got.Backend)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", got.CreatedAt, want.CreatedAt)

	_, err = s.GetAttempt(ctx, "att-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testAttemptDefaults(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := &store.Attempt{Target: "m", Language: "en", Score: 0.5}
	require.NoError(t, s.SaveAttempt(ctx, a))
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())
	assert.Equal(t, store.ModeWord, a.Mode)

	got, err := s.GetAttempt(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Expected)
	assert.Empty(t, got.Feedback)
	assert.WithinDuration(t, a.CreatedAt, got.CreatedAt, time.Millisecond)
}

func testAttemptValidation(t *testing.T, s store.Store) {
	ctx := context.Background()
	assert.ErrorIs(t, s.SaveAttempt(ctx, &store.Attempt{}), store.ErrInvalidInput)
	assert.ErrorIs(t, s.SaveAttempt(ctx, &store.Attempt{Target: "a", Score: 1.5}), store.ErrInvalidInput)
}

func testAttemptDuplicateID(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveAttempt(ctx, attempt("att-dup", "", "cat", base)))
	err := s.SaveAttempt(ctx, attempt("att-dup", "", "cat", base))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func testListAttempts(t *testing.T, s store.Store) {
	ctx := context.Background()
	seed := []*store.Attempt{
		attempt("att-a", "cli-1", "hello", base),
		attempt("att-b", "cli-1", "world", base.Add(time.Minute)),
		attempt("att-c", "cli-2", "Hello", base.Add(2*time.Minute)),
		attempt("att-d", "cli-1", "hola", base.Add(3*time.Minute)),
	}
	seed[3].Language = "es"
	for _, a := range seed {
		require.NoError(t, s.SaveAttempt(ctx, a))
	}

	ids := func(as []store.Attempt) []string {
		out := make([]string, len(as))
		for i, a := range as {
			out[i] = a.ID
		}
		return out
	}

	all, err := s.ListAttempts(ctx, store.AttemptFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"att-d", "att-c", "att-b", "att-a"}, ids(all))

	byClient, err := s.ListAttempts(ctx, store.AttemptFilter{ClientID: "cli-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"att-d", "att-b", "att-a"}, ids(byClient))

	byTarget, err := s.ListAttempts(ctx, store.AttemptFilter{Target: "HELLO"})
	require.NoError(t, err)
	assert.Equal(t, []string{"att-c", "att-a"}, ids(byTarget))

	byLang, err := s.ListAttempts(ctx, store.AttemptFilter{Language: "es"})
	require.NoError(t, err)
	assert.Equal(t, []string{"att-d"}, ids(byLang))

	since, err := s.ListAttempts(ctx, store.AttemptFilter{Since: base.Add(time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, []string{"att-d", "att-c", "att-b"}, ids(since))

	limited, err := s.ListAttempts(ctx, store.AttemptFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"att-d", "att-c"}, ids(limited))

	none, err := s.ListAttempts(ctx, store.AttemptFilter{ClientID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testDeleteAttempt(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveAttempt(ctx, attempt("att-x", "", "cat", base)))
	require.NoError(t, s.DeleteAttempt(ctx, "att-x"))
	_, err := s.GetAttempt(ctx, "att-x")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteAttempt(ctx, "att-x"), store.ErrNotFound)
}

func testClientCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := &store.Client{Name: "Ada", Language: "en", Notes: "lisps on s"}
	require.NoError(t, s.CreateClient(ctx, c))
	require.NotEmpty(t, c.ID)

	got, err := s.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, "lisps on s", got.Notes)

	dup := *c
	assert.ErrorIs(t, s.CreateClient(ctx, &dup), store.ErrAlreadyExists)
	assert.ErrorIs(t, s.CreateClient(ctx, &store.Client{}), store.ErrInvalidInput)

	upd := &store.Client{ID: c.ID, Name: "Ada L.", Language: "de"}
	require.NoError(t, s.UpdateClient(ctx, upd))
	assert.False(t, upd.UpdatedAt.Before(c.UpdatedAt))

	got, err = s.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	assert.EqualValues(t, "de", got.Language)
	assert.Empty(t, got.Notes)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt) || got.CreatedAt.Sub(c.CreatedAt).Abs() < time.Millisecond)

	assert.ErrorIs(t, s.UpdateClient(ctx, &store.Client{ID: "cli-missing", Name: "x"}), store.ErrNotFound)

	require.NoError(t, s.DeleteClient(ctx, c.ID))
	_, err = s.GetClient(ctx, c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteClient(ctx, c.ID), store.ErrNotFound)
}

func testListClients(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, c := range []*store.Client{
		{ID: "cli-3", Name: "carol", Language: "en"},
		{ID: "cli-1", Name: "Alice", Language: "de"},
		{ID: "cli-2", Name: "Bob", Language: "en"},
	} {
		require.NoError(t, s.CreateClient(ctx, c))
	}

	names := func(cs []store.Client) []string {
		out := make([]string, len(cs))
		for i, c := range cs {
			out[i] = c.Name
		}
		return out
	}

	all, err := s.ListClients(ctx, store.ClientFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob", "carol"}, names(all))

	en, err := s.ListClients(ctx, store.ClientFilter{Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob", "carol"}, names(en))

	sub, err := s.ListClients(ctx, store.ClientFilter{Name: "AR"})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, names(sub))

	one, err := s.ListClients(ctx, store.ClientFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, names(one))
}

func testSettings(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.GetSetting(ctx, "policy")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SetSetting(ctx, "policy", "greedy"))
	require.NoError(t, s.SetSetting(ctx, "policy", "strict-single"))
	v, err := s.GetSetting(ctx, "policy")
	require.NoError(t, err)
	assert.Equal(t, "strict-single", v)

	assert.ErrorIs(t, s.SetSetting(ctx, " ", "x"), store.ErrInvalidInput)
}

func testPing(t *testing.T, s store.Store) {
	require.NoError(t, s.Ping(context.Background()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Ping(ctx); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("Ping(cancelled) error = %v, want nil or context.Canceled", err)
	}
}
