package viseme

// defaultPrimary maps common IPA symbols and the romanised tokens emitted by
// the G2P rule tables directly to a frame.
var defaultPrimary = map[string]Frame{
	"a": Ah, "æ": Ah, "ʌ": Ah, "ə": Ah, "ɐ": Ah, "ah": Ah, "uh": Ah,
	"ɑ": Aa, "aa": Aa, "ɒ": Aa, "ar": Aa,
	"o": Oh, "ɔ": Oh, "oh": Oh, "aw": Oh, "or": Oh,
	"e": Eh, "ɛ": Eh, "eh": Eh,
	"ɝ": Er, "ɚ": Er, "ɜ": Er, "er": Er, "ir": Er, "ur": Er,
	"i": Ee, "ɪ": Ee, "ee": Ee, "ih": Ee, "iy": Ee,
	"u": Oo, "ʊ": Oo, "oo": Oo, "uw": Oo,
	"b": BMP, "m": BMP, "p": BMP,
	"f": FV, "v": FV,
	"θ": Th, "ð": Th, "th": Th, "dh": Th,
	"t": TDN, "d": TDN, "n": TDN,
	"k": KG, "g": KG, "ɡ": KG, "ŋ": KG, "ng": KG,
	"s": SZ, "z": SZ, "ts": SZ, "dz": SZ,
	"ʃ": ShCh, "ʒ": ShCh, "tʃ": ShCh, "dʒ": ShCh,
	"sh": ShCh, "ch": ShCh, "j": ShCh, "zh": ShCh,
	"l": L, "ɫ": L,
	"r": R, "ɹ": R,
	"w": W, "ʍ": W, "wh": W,
	"h": H, "ɦ": H,
	"y": Y,
}

// defaultFallbacks rewrites uncommon tokens into ones the primary table knows.
// Chains may be several steps long ("x" → "ks" → "k").
var defaultFallbacks = map[string]string{
	// aspirated
	"kh": "k", "ph": "p", "bh": "b", "gh": "g", "jh": "j",
	"kʰ": "k", "pʰ": "p", "tʰ": "t", "tʃʰ": "tʃ",

	// retroflex
	"ʈ": "t", "ɖ": "d", "ɳ": "n", "ʂ": "sh", "ʐ": "zh", "ɽ": "r", "ɭ": "l", "ɻ": "r",

	// emphatic / pharyngeal / uvular
	"ṣ": "s", "ḍ": "d", "ṭ": "t", "ẓ": "z", "q": "k", "ʕ": "h", "ħ": "h",
	"χ": "h", "ʔ": "h", "ʁ": "r", "ʀ": "r",

	// doubled letters
	"bb": "b", "cc": "k", "dd": "d", "ff": "f", "gg": "g", "kk": "k",
	"ll": "l", "mm": "m", "nn": "n", "pp": "p", "rr": "r", "ss": "s",
	"tt": "t", "vv": "v", "zz": "z",

	// diphthongs
	"aɪ": "a", "ai": "a", "ay": "a",
	"aʊ": "a", "au": "a",
	"oʊ": "o", "ou": "o", "ow": "o", "əʊ": "o",
	"eɪ": "e", "ei": "e", "ey": "e",
	"ɔɪ": "o", "oi": "o", "oy": "o",
	"ɪə": "i", "eə": "e", "ʊə": "u",
	"ie": "i", "eu": "o", "ue": "u", "oe": "o", "ea": "ee",

	// other consonants
	"x": "ks", "ks": "k", "c": "k", "ck": "k", "kw": "k", "qu": "k",
	"ɾ": "r", "ɣ": "g", "ç": "sh", "ɕ": "sh", "ʑ": "zh", "tɕ": "ch", "dʑ": "j",
	"ñ": "n", "ɲ": "n", "ny": "n", "gn": "n", "ʎ": "l",
	"β": "b", "ɸ": "f", "ʋ": "v", "ɱ": "m",
	"ʝ": "y", "ɥ": "w", "ʃt": "sh", "shch": "sh", "sch": "sh",

	// accented and rounded-front vowels
	"á": "a", "à": "a", "â": "a", "ä": "e", "ã": "a",
	"é": "e", "è": "e", "ê": "e", "ë": "e",
	"í": "i", "ì": "i", "î": "i", "ï": "i", "ɨ": "i", "ɯ": "u", "ʉ": "u",
	"ó": "o", "ò": "o", "ô": "o", "õ": "o", "ö": "o", "ø": "o", "œ": "o",
	"ú": "u", "ù": "u", "û": "u", "ü": "u", "ʏ": "u",

	// Cyrillic letters, for raw text that escaped transliteration
	"а": "a", "б": "b", "в": "v", "г": "g", "д": "d", "е": "e", "ё": "o",
	"ж": "zh", "з": "z", "и": "i", "й": "y", "к": "k", "л": "l", "м": "m",
	"н": "n", "о": "o", "п": "p", "р": "r", "с": "s", "т": "t", "у": "u",
	"ф": "f", "х": "h", "ц": "ts", "ч": "ch", "ш": "sh", "щ": "sh",
	"ы": "i", "э": "e", "ю": "u", "я": "a",

	// Greek letters
	"α": "a", "γ": "g", "δ": "dh", "ε": "e", "ζ": "z", "η": "i",
	"ι": "i", "κ": "k", "λ": "l", "μ": "m", "ν": "n", "ξ": "ks",
	"ο": "o", "π": "p", "ρ": "r", "σ": "s", "ς": "s", "τ": "t", "υ": "i",
	"φ": "f", "ψ": "s", "ω": "o",
}
