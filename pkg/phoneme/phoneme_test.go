package phoneme_test

import (
	"testing"

	"github.com/MrWong99/mouthpiece/pkg/phoneme"
)

func TestNewSequence_DropsEmptySymbols(t *testing.T) {
	t.Parallel()

	seq := phoneme.NewSequence("h", "", "  ", "ɛ", " l ", "oʊ")
	want := []string{"h", "ɛ", "l", "oʊ"}
	got := seq.Symbols()
	if len(got) != len(want) {
		t.Fatalf("Symbols() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Symbols()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if seq.String() != "h ɛ l oʊ" {
		t.Errorf("String() = %q", seq.String())
	}
}

func TestFromUnits_CopiesAndFilters(t *testing.T) {
	t.Parallel()

	units := []phoneme.Unit{{Symbol: "m"}, {Symbol: ""}, {Symbol: "a", Grapheme: "a"}}
	seq := phoneme.FromUnits(units)
	if len(seq) != 2 {
		t.Fatalf("len = %d, want 2", len(seq))
	}
	units[0].Symbol = "changed"
	if seq[0].Symbol != "m" {
		t.Errorf("FromUnits must not alias its input, got %q", seq[0].Symbol)
	}
	if seq[1].Grapheme != "a" {
		t.Errorf("Grapheme lost: %+v", seq[1])
	}
}

func TestClone_Independent(t *testing.T) {
	t.Parallel()

	orig := phoneme.NewSequence("a", "b")
	c := orig.Clone()
	c[0].Symbol = "z"
	if orig[0].Symbol != "a" {
		t.Error("Clone shares backing array with original")
	}
	if phoneme.Sequence(nil).Clone() != nil {
		t.Error("Clone(nil) should be nil")
	}
}

func TestIsPause(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"sp", "sil", ",", ".", " ", "|"} {
		if !phoneme.IsPause(s) {
			t.Errorf("IsPause(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"a", "sh", "p"} {
		if phoneme.IsPause(s) {
			t.Errorf("IsPause(%q) = true, want false", s)
		}
	}
}

func TestParseLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		want   phoneme.Language
		wantOK bool
	}{
		{"en", phoneme.English, true},
		{"en-US", phoneme.English, true},
		{"EN_gb", phoneme.English, true},
		{"eng", phoneme.English, true},
		{"German", phoneme.German, true},
		{"ger", phoneme.German, true},
		{"es-MX", phoneme.Spanish, true},
		{"ru", phoneme.Russian, true},
		{"ell", phoneme.Greek, true},
		{"", "", false},
		{"xx", "xx", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, ok := phoneme.ParseLanguage(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLanguage(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
