package g2p

// Rule tables for Latin-script languages. Order within a table only matters
// for duplicate patterns; length precedence is handled by the scanner.

var englishRules = concat(
	[]Rule{
		r("tion", "sh", "ə", "n"),
		r("sion", "zh", "ə", "n"),
		r("ough", "oh"),
		r("augh", "aw"),
		r("eigh", "ei"),

		r("igh", "ai"),
		r("tch", "ch"),
		r("dge", "j"),
		r("sch", "s", "k"),
		r("thr", "th", "r"),
		r("air", "eh", "r"),
		r("ear", "ee", "r"),
		r("are", "eh", "r"),

		r("ch", "ch"),
		r("sh", "sh"),
		r("th", "th"),
		r("ph", "f"),
		r("wh", "w"),
		r("ck", "k"),
		r("ng", "ng"),
		r("qu", "k", "w"),
		r("ee", "ee"),
		r("ea", "ee"),
		r("oo", "oo"),
		r("ou", "ow"),
		r("ow", "oh"),
		r("oi", "oi"),
		r("oy", "oi"),
		r("ai", "ei"),
		r("ay", "ei"),
		r("ei", "ei"),
		r("au", "aw"),
		r("aw", "aw"),
		r("er", "er"),
		r("ir", "er"),
		r("ur", "er"),
		r("ar", "ar"),
		r("or", "or"),
		r("kn", "n"),
		r("wr", "r"),
		r("gh", "g"),
		r("mb", "m"),
	},
	doubled("bdfglmnprstz"),
	[]Rule{
		r("c", "k"),
		r("q", "k"),
		r("x", "k", "s"),
	},
	same("abdefghijklmnoprstuvwyz"),
)

var spanishRules = concat(
	[]Rule{
		r("güe", "g", "w", "e"),
		r("güi", "g", "w", "i"),
		r("gue", "g", "e"),
		r("gui", "g", "i"),
		r("que", "k", "e"),
		r("qui", "k", "i"),

		r("ch", "ch"),
		r("ll", "y"),
		r("rr", "rr"),
		r("ce", "s", "e"),
		r("ci", "s", "i"),
		r("cé", "s", "e"),
		r("cí", "s", "i"),
		r("ge", "h", "e"),
		r("gi", "h", "i"),
		r("gé", "h", "e"),
		r("gí", "h", "i"),
		r("qu", "k"),
	},
	[]Rule{
		r("á", "a"), r("é", "e"), r("í", "i"), r("ó", "o"), r("ú", "u"), r("ü", "w"),
		r("ñ", "ny"),
		r("h"),
		r("j", "h"),
		r("v", "b"),
		r("c", "k"),
		r("z", "s"),
		r("x", "k", "s"),
	},
	same("abdefgiklmnoprstuwy"),
)

var frenchRules = concat(
	[]Rule{
		r("eaux", "o"),

		r("eau", "o"),
		r("ill", "y"),
		r("oeu", "oe"),
		r("œu", "oe"),

		r("ch", "sh"),
		r("ou", "u"),
		r("où", "u"),
		r("oi", "w", "a"),
		r("ai", "e"),
		r("ei", "e"),
		r("au", "o"),
		r("eu", "oe"),
		r("gn", "ny"),
		r("qu", "k"),
		r("ph", "f"),
		r("th", "t"),
		r("ce", "s", "e"),
		r("ci", "s", "i"),
		r("ge", "zh", "e"),
		r("gi", "zh", "i"),
	},
	doubled("lmnprst"),
	[]Rule{
		r("é", "e"), r("è", "e"), r("ê", "e"), r("ë", "e"),
		r("à", "a"), r("â", "a"),
		r("î", "i"), r("ï", "i"),
		r("ô", "o"),
		r("ù", "ü"), r("û", "ü"), r("u", "ü"), r("ü", "ü"),
		r("ÿ", "i"),
		r("œ", "oe"), r("æ", "e"),
		r("ç", "s"),
		r("c", "k"),
		r("h"),
		r("j", "zh"),
		r("q", "k"),
		r("x", "k", "s"),
		r("y", "i"),
	},
	same("abdefgiklmnoprstvwz"),
)

var germanRules = concat(
	[]Rule{
		r("tsch", "ch"),

		r("sch", "sh"),
		r("chs", "k", "s"),

		r("ch", "ç"),
		r("ck", "k"),
		r("ei", "ai"),
		r("ai", "ai"),
		r("ie", "ee"),
		r("eu", "oi"),
		r("äu", "oi"),
		r("au", "au"),
		r("pf", "p", "f"),
		r("ph", "f"),
		r("qu", "k", "v"),
		r("th", "t"),
		r("tz", "ts"),
		r("ah", "a"),
		r("eh", "e"),
		r("ih", "i"),
		r("oh", "o"),
		r("uh", "u"),
		r("ng", "ng"),
	},
	doubled("bdfglmnprst"),
	[]Rule{
		r("ä", "e"),
		r("ö", "ö"),
		r("ü", "ü"),
		r("ß", "s"),
		r("c", "k"),
		r("j", "y"),
		r("v", "f"),
		r("w", "v"),
		r("z", "ts"),
		r("x", "k", "s"),
		r("q", "k"),
		r("y", "ü"),
	},
	same("abdefghiklmnoprstu"),
)

var italianRules = concat(
	[]Rule{
		r("sci", "sh", "i"),
		r("sce", "sh", "e"),
		r("chi", "k", "i"),
		r("che", "k", "e"),
		r("ghi", "g", "i"),
		r("ghe", "g", "e"),
		r("gli", "ʎ"),

		r("ce", "ch", "e"),
		r("ci", "ch", "i"),
		r("ge", "j", "e"),
		r("gi", "j", "i"),
		r("gn", "ny"),
		r("qu", "k", "w"),
		r("zz", "ts"),
	},
	doubled("bcdfglmnprstv"),
	[]Rule{
		r("à", "a"), r("è", "e"), r("é", "e"), r("ì", "i"), r("í", "i"),
		r("ò", "o"), r("ó", "o"), r("ù", "u"),
		r("c", "k"),
		r("h"),
		r("j", "y"),
		r("z", "ts"),
		r("x", "k", "s"),
		r("q", "k"),
	},
	same("abdefgiklmnoprstuvwy"),
)

func concat(groups ...[]Rule) []Rule {
	var n int
	for _, g := range groups {
		n += len(g)
	}
	out := make([]Rule, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
