package phoneme

import "strings"

// Language is an ISO 639-1 language code such as "en" or "de".
type Language string

const (
	English Language = "en"
	Spanish Language = "es"
	French  Language = "fr"
	German  Language = "de"
	Italian Language = "it"
	Russian Language = "ru"
	Greek   Language = "el"
)

// Supported lists every language with a dedicated rule table.
var Supported = []Language{English, Spanish, French, German, Italian, Russian, Greek}

// languageAliases maps ISO 639-2 codes and English language names onto
// ISO 639-1 codes.
var languageAliases = map[string]Language{
	"eng": English, "english": English,
	"spa": Spanish, "spanish": Spanish, "español": Spanish,
	"fra": French, "fre": French, "french": French, "français": French,
	"deu": German, "ger": German, "german": German, "deutsch": German,
	"ita": Italian, "italian": Italian, "italiano": Italian,
	"rus": Russian, "russian": Russian,
	"ell": Greek, "gre": Greek, "greek": Greek,
}

// ParseLanguage normalises a language identifier to a [Language]. It accepts
// ISO 639-1 codes, locale tags ("en-US", "pt_BR"), ISO 639-2 codes and
// English language names. The second return value is false when the input is
// not one of the [Supported] languages.
func ParseLanguage(s string) (Language, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	if lang, ok := languageAliases[s]; ok {
		return lang, true
	}
	if i := strings.IndexAny(s, "-_"); i > 0 {
		s = s[:i]
	}
	for _, l := range Supported {
		if string(l) == s {
			return l, true
		}
	}
	if lang, ok := languageAliases[s]; ok {
		return lang, true
	}
	return Language(s), false
}

// IsSupported reports whether l has a dedicated rule table.
func (l Language) IsSupported() bool {
	for _, s := range Supported {
		if s == l {
			return true
		}
	}
	return false
}
