// Package g2p converts written words into phoneme sequences.
//
// Conversion first consults a small curated lexicon of IPA transcriptions.
// Words outside the lexicon are transliterated (for non-Latin scripts with a
// dictionary entry), lowercased, stripped to the language's permitted
// characters and tokenized left to right, trying rule patterns of length 4,
// 3, 2 and then 1 at every position. The first rule at the longest length
// wins; a character no rule covers becomes its own token. Conversion never
// fails: unknown input degrades to verbatim tokens.
package g2p

import (
	"strings"
	"unicode"

	"github.com/MrWong99/mouthpiece/pkg/phoneme"
)

// Engine is a grapheme-to-phoneme converter. An Engine is immutable after
// construction and safe for concurrent use.
type Engine struct {
	rules    map[phoneme.Language]*ruleSet
	lexicon  map[phoneme.Language]map[string][]string
	translit map[phoneme.Language]map[string]string
	letters  map[phoneme.Language][]LetterTarget
	fallback phoneme.Language
}

// Option is a functional option for [New].
type Option func(*Engine)

// WithLexiconEntry adds or replaces a lexicon entry.
func WithLexiconEntry(lang phoneme.Language, word string, symbols ...string) Option {
	return func(e *Engine) {
		if e.lexicon[lang] == nil {
			e.lexicon[lang] = make(map[string][]string)
		}
		e.lexicon[lang][strings.ToLower(strings.TrimSpace(word))] = symbols
	}
}

// WithoutLexicon disables the lexicon so every word goes through the rules.
func WithoutLexicon() Option {
	return func(e *Engine) { e.lexicon = make(map[phoneme.Language]map[string][]string) }
}

// WithRules replaces the rule table of lang. Characters outside a-z are only
// kept if some rule pattern uses them.
func WithRules(lang phoneme.Language, rules []Rule) Option {
	return func(e *Engine) {
		var extra strings.Builder
		for _, rule := range rules {
			for _, c := range rule.Pattern {
				if c < 'a' || c > 'z' {
					extra.WriteRune(c)
				}
			}
		}
		e.rules[lang] = compile(latinWith(extra.String()), rules)
	}
}

// WithFallbackLanguage sets the rule table used for unsupported languages.
// The default is English.
func WithFallbackLanguage(lang phoneme.Language) Option {
	return func(e *Engine) { e.fallback = lang }
}

// New returns an Engine with the built-in tables for every supported
// language.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules: map[phoneme.Language]*ruleSet{
			phoneme.English: compile(latinWith(""), englishRules),
			phoneme.Spanish: compile(latinWith("áéíóúüñ"), spanishRules),
			phoneme.French:  compile(latinWith("àâæçéèêëîïôœùûüÿ"), frenchRules),
			phoneme.German:  compile(latinWith("äöüß"), germanRules),
			phoneme.Italian: compile(latinWith("àèéìíòóù"), italianRules),
			phoneme.Russian: compile(latinOrScript(unicode.Cyrillic), russianRules),
			phoneme.Greek:   compile(latinOrScript(unicode.Greek), greekRules),
		},
		lexicon:  cloneLexicon(defaultLexicon),
		translit: defaultTranslit,
		letters:  defaultLetters,
		fallback: phoneme.English,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Parse converts one word. Lexicon entries take precedence over the rule
// tables. Unsupported languages use the fallback language's rules.
func (e *Engine) Parse(word string, lang phoneme.Language) phoneme.Sequence {
	lang = e.language(lang)
	if syms, ok := e.lookup(word, lang); ok {
		return phoneme.NewSequence(syms...)
	}
	return e.Tokenize(word, lang)
}

// Tokenize converts one word with the rule table only, skipping the lexicon.
func (e *Engine) Tokenize(word string, lang phoneme.Language) phoneme.Sequence {
	lang = e.language(lang)
	rs := e.rules[lang]
	if rs == nil {
		rs = e.rules[e.fallback]
	}
	if rs == nil {
		return nil
	}

	word = e.transliterate(word, lang)
	runes := []rune(rs.clean(word))

	var units []phoneme.Unit
	for i := 0; i < len(runes); {
		pat, toks, ok := rs.match(runes, i)
		if !ok {
			pat = string(runes[i])
			toks = []string{pat}
		}
		for _, t := range toks {
			units = append(units, phoneme.Unit{Symbol: t, Grapheme: pat})
		}
		i += len([]rune(pat))
	}
	return phoneme.FromUnits(units)
}

// ParseText converts whitespace-separated text, inserting a [phoneme.Pause]
// unit between words.
func (e *Engine) ParseText(text string, lang phoneme.Language) phoneme.Sequence {
	var out phoneme.Sequence
	for _, w := range strings.Fields(text) {
		seq := e.Parse(w, lang)
		if len(seq) == 0 {
			continue
		}
		if len(out) > 0 {
			out = append(out, phoneme.Unit{Symbol: phoneme.Pause})
		}
		out = append(out, seq...)
	}
	return out
}

// Letter returns the practice target for a single letter. Letters missing
// from lang's table fall back to the English entry.
func (e *Engine) Letter(letter string, lang phoneme.Language) (LetterTarget, bool) {
	return letterTarget(e.letters, letter, e.language(lang))
}

// Letters returns the letter table of lang.
func (e *Engine) Letters(lang phoneme.Language) []LetterTarget {
	src := e.letters[e.language(lang)]
	out := make([]LetterTarget, len(src))
	copy(out, src)
	return out
}

// Languages returns every language with a rule table.
func (e *Engine) Languages() []phoneme.Language {
	var out []phoneme.Language
	for _, l := range phoneme.Supported {
		if _, ok := e.rules[l]; ok {
			out = append(out, l)
		}
	}
	return out
}

func (e *Engine) language(lang phoneme.Language) phoneme.Language {
	if l, ok := phoneme.ParseLanguage(string(lang)); ok {
		lang = l
	}
	if _, ok := e.rules[lang]; ok {
		return lang
	}
	return e.fallback
}

func (e *Engine) lookup(word string, lang phoneme.Language) ([]string, bool) {
	rs := e.rules[lang]
	if rs == nil {
		return nil, false
	}
	key := rs.clean(e.transliterate(word, lang))
	syms, ok := e.lexicon[lang][key]
	return syms, ok
}

func (e *Engine) transliterate(word string, lang phoneme.Language) string {
	dict := e.translit[lang]
	if dict == nil {
		return word
	}
	if latin, ok := dict[strings.ToLower(strings.TrimSpace(word))]; ok {
		return latin
	}
	return word
}

func cloneLexicon(src map[phoneme.Language]map[string][]string) map[phoneme.Language]map[string][]string {
	out := make(map[phoneme.Language]map[string][]string, len(src))
	for lang, words := range src {
		m := make(map[string][]string, len(words))
		for w, syms := range words {
			m[w] = syms
		}
		out[lang] = m
	}
	return out
}
