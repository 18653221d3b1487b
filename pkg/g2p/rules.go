package g2p

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxPatternLen is the longest rule pattern, in runes, the scanner tries.
const MaxPatternLen = 4

// Rule rewrites one grapheme pattern into zero or more phoneme tokens. An
// empty Tokens slice marks a silent letter.
type Rule struct {
	Pattern string
	Tokens  []string
}

// r is a shorthand to build a Rule.
func r(pattern string, tokens ...string) Rule { return Rule{Pattern: pattern, Tokens: tokens} }

// same builds identity rules for letters that are their own token.
func same(letters string) []Rule {
	out := make([]Rule, 0, utf8.RuneCountInString(letters))
	for _, c := range letters {
		out = append(out, r(string(c), string(c)))
	}
	return out
}

// doubled builds rules collapsing a doubled consonant into a single token.
func doubled(letters string) []Rule {
	out := make([]Rule, 0, utf8.RuneCountInString(letters))
	for _, c := range letters {
		s := string(c)
		out = append(out, r(s+s, s))
	}
	return out
}

// ruleSet is a compiled, per-language rule table.
type ruleSet struct {
	byLen     [MaxPatternLen + 1]map[string][]string
	permitted func(rune) bool
}

// compile indexes rules by pattern length. For duplicate patterns the first
// rule wins, matching the ordered-table semantics. Patterns longer than
// MaxPatternLen are ignored.
func compile(permitted func(rune) bool, groups ...[]Rule) *ruleSet {
	rs := &ruleSet{permitted: permitted}
	for i := range rs.byLen {
		rs.byLen[i] = make(map[string][]string)
	}
	for _, rules := range groups {
		for _, rule := range rules {
			n := utf8.RuneCountInString(rule.Pattern)
			if n == 0 || n > MaxPatternLen {
				continue
			}
			if _, dup := rs.byLen[n][rule.Pattern]; dup {
				continue
			}
			rs.byLen[n][rule.Pattern] = rule.Tokens
		}
	}
	return rs
}

// clean lowercases word and strips every rune outside the permitted set.
func (rs *ruleSet) clean(word string) string {
	word = strings.ToLower(word)
	var b strings.Builder
	b.Grow(len(word))
	for _, c := range word {
		if rs.permitted(c) {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// match tries pattern lengths MaxPatternLen down to 1 at position i and
// returns the consumed pattern and its tokens.
func (rs *ruleSet) match(runes []rune, i int) (string, []string, bool) {
	for n := MaxPatternLen; n >= 1; n-- {
		if i+n > len(runes) {
			continue
		}
		pat := string(runes[i : i+n])
		if toks, ok := rs.byLen[n][pat]; ok {
			return pat, toks, true
		}
	}
	return "", nil, false
}

func latinWith(extra string) func(rune) bool {
	return func(c rune) bool {
		return (c >= 'a' && c <= 'z') || strings.ContainsRune(extra, c)
	}
}

func latinOrScript(script *unicode.RangeTable) func(rune) bool {
	return func(c rune) bool {
		return (c >= 'a' && c <= 'z') || (unicode.Is(script, c) && unicode.IsLetter(c))
	}
}
