package g2p

// Russian and Greek accept both native script and romanised input. Native
// letters have their own rules; romanised text falls through to the Latin
// tables below.

var russianRules = concat(
	[]Rule{
		r("shch", "shch"),

		r("kh", "kh"),
		r("zh", "zh"),
		r("sh", "sh"),
		r("ch", "ch"),
		r("ts", "ts"),
		r("ya", "y", "a"),
		r("yu", "y", "u"),
		r("yo", "y", "o"),
		r("ye", "y", "e"),
		r("iy", "i"),
	},
	[]Rule{
		r("а", "a"), r("б", "b"), r("в", "v"), r("г", "g"), r("д", "d"),
		r("е", "y", "e"), r("ё", "y", "o"), r("ж", "zh"), r("з", "z"),
		r("и", "i"), r("й", "y"), r("к", "k"), r("л", "l"), r("м", "m"),
		r("н", "n"), r("о", "o"), r("п", "p"), r("р", "r"), r("с", "s"),
		r("т", "t"), r("у", "u"), r("ф", "f"), r("х", "kh"), r("ц", "ts"),
		r("ч", "ch"), r("ш", "sh"), r("щ", "shch"), r("ъ"), r("ы", "i"),
		r("ь"), r("э", "e"), r("ю", "y", "u"), r("я", "y", "a"),
	},
	[]Rule{
		r("c", "k"),
		r("q", "k"),
		r("x", "k", "s"),
		r("w", "v"),
		r("h", "kh"),
		r("j", "y"),
	},
	same("abdefgiklmnoprstuvyz"),
)

var greekRules = concat(
	[]Rule{
		r("ου", "u"), r("ού", "u"),
		r("αι", "e"), r("αί", "e"),
		r("ει", "i"), r("εί", "i"),
		r("οι", "i"), r("οί", "i"),
		r("υι", "i"),
		r("αυ", "a", "v"), r("αύ", "a", "v"),
		r("ευ", "e", "v"), r("εύ", "e", "v"),
		r("μπ", "b"),
		r("ντ", "d"),
		r("γκ", "g"),
		r("γγ", "ng"),
		r("τσ", "ts"),
		r("τζ", "dz"),
	},
	[]Rule{
		r("α", "a"), r("ά", "a"), r("β", "v"), r("γ", "g"), r("δ", "dh"),
		r("ε", "e"), r("έ", "e"), r("ζ", "z"), r("η", "i"), r("ή", "i"),
		r("θ", "th"), r("ι", "i"), r("ί", "i"), r("ϊ", "i"), r("ΐ", "i"),
		r("κ", "k"), r("λ", "l"), r("μ", "m"), r("ν", "n"), r("ξ", "k", "s"),
		r("ο", "o"), r("ό", "o"), r("π", "p"), r("ρ", "r"), r("σ", "s"),
		r("ς", "s"), r("τ", "t"), r("υ", "i"), r("ύ", "i"), r("ϋ", "i"),
		r("ΰ", "i"), r("φ", "f"), r("χ", "h"), r("ψ", "p", "s"), r("ω", "o"),
		r("ώ", "o"),
	},
	// romanised Greek
	[]Rule{
		r("ch", "h"),
		r("th", "th"),
		r("dh", "dh"),
		r("ph", "f"),
		r("ps", "p", "s"),
		r("ks", "k", "s"),
		r("ou", "u"),
		r("ai", "e"),
		r("ei", "i"),
		r("oi", "i"),
		r("mp", "b"),
		r("nt", "d"),
		r("gk", "g"),
		r("x", "k", "s"),
		r("c", "k"),
		r("q", "k"),
		r("w", "v"),
		r("j", "y"),
	},
	same("abdefghiklmnoprstuvyz"),
)
