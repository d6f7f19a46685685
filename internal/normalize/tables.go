package normalize

// invisibles is the fixed set of zero-width and format-control code points
// stripped by the third transform. These contribute no visible content and
// are only ever used to fragment or hide a match.
var invisibles = map[rune]bool{
	'\u00AD': true, // soft hyphen
	'\u180E': true, // mongolian vowel separator
	'\u200B': true, // zero width space
	'\u200C': true, // zero width non-joiner
	'\u200D': true, // zero width joiner
	'\u200E': true, // left-to-right mark
	'\u200F': true, // right-to-left mark
	'\u202A': true, // left-to-right embedding
	'\u202B': true, // right-to-left embedding
	'\u202C': true, // pop directional formatting
	'\u202D': true, // left-to-right override
	'\u202E': true, // right-to-left override
	'\u2060': true, // word joiner
	'\u2061': true, // function application
	'\u2062': true, // invisible times
	'\u2063': true, // invisible separator
	'\u2064': true, // invisible plus
	'\u2066': true, // left-to-right isolate
	'\u2067': true, // right-to-left isolate
	'\u2068': true, // first strong isolate
	'\u2069': true, // pop directional isolate
	'\uFEFF': true, // zero width no-break space / BOM
}

// confusables maps visually-confusable code points to a canonical Latin
// representative. Case folding runs before this step, so only lowercase
// source forms are listed. Fullwidth and compatibility variants are already
// collapsed by NFKC and do not appear here.
var confusables = map[rune]rune{
	// Cyrillic lowercase
	'а': 'a', // U+0430
	'в': 'b', // U+0432
	'е': 'e', // U+0435
	'ѕ': 's', // U+0455
	'і': 'i', // U+0456
	'ј': 'j', // U+0458
	'к': 'k', // U+043A
	'м': 'm', // U+043C
	'н': 'h', // U+043D
	'о': 'o', // U+043E
	'р': 'p', // U+0440
	'с': 'c', // U+0441
	'т': 't', // U+0442
	'у': 'y', // U+0443
	'х': 'x', // U+0445
	'ь': 'b', // U+044C
	'ӏ': 'l', // U+04CF palochka
	'һ': 'h', // U+04BB
	'ԁ': 'd', // U+0501
	'ԛ': 'q', // U+051B
	'ԝ': 'w', // U+051D
	// Greek lowercase
	'α': 'a', // U+03B1
	'ο': 'o', // U+03BF
	'ν': 'v', // U+03BD
	'ι': 'i', // U+03B9
	'κ': 'k', // U+03BA
	'ρ': 'p', // U+03C1
	'τ': 't', // U+03C4
	'υ': 'u', // U+03C5
	'χ': 'x', // U+03C7
	// Latin phonetic extensions
	'ɑ': 'a', // U+0251 latin alpha
	'ɡ': 'g', // U+0261 latin script g
	'ɩ': 'i', // U+0269 latin iota
	// Symbols and digits used as letters
	'⁄': '/',  // U+2044 fraction slash
	'∕': '/',  // U+2215 division slash
	'˛': ',',  // U+02DB ogonek
	'ʹ': '\'', // U+02B9 modifier prime
	'ꓲ': 'i',  // U+A4F2 lisu letter i
}
