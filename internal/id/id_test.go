package id_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/mouthpiece/internal/id"
)

func TestNew(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for range 100 {
		s, err := id.New(id.Attempt)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if !strings.HasPrefix(s, "att-") {
			t.Errorf("id %q lacks prefix", s)
		}
		if !id.HasPrefix(s, id.Attempt) {
			t.Errorf("HasPrefix(%q, att) = false", s)
		}
		if id.HasPrefix(s, id.Client) {
			t.Errorf("HasPrefix(%q, cli) = true", s)
		}
		if seen[s] {
			t.Fatalf("duplicate id %q", s)
		}
		seen[s] = true
	}
}

func TestHasPrefix_Malformed(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "att", "att-", "att-short", "cli-V1StGXR8_Z5jdHi6B-myT"} {
		if id.HasPrefix(s, id.Attempt) {
			t.Errorf("HasPrefix(%q, att) = true", s)
		}
	}
	if !id.HasPrefix(id.Must(id.Client), id.Client) {
		t.Error("Must(cli) not recognised")
	}
}
