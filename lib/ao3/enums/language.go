package enums

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Language is the archive's short language code as used in the
// `language_id` search parameter.
type Language string

const LanguageUnknown Language = ""

// Native names exactly as the site renders them in work metadata.
var languageNames = map[Language]string{
	"afr": "Afrikaans",
	"ar":  "العربية",
	"bg":  "Български",
	"bn":  "বাংলা",
	"ca":  "Català",
	"cs":  "Čeština",
	"cy":  "Cymraeg",
	"da":  "Dansk",
	"de":  "Deutsch",
	"el":  "Ελληνικά",
	"en":  "English",
	"eo":  "Esperanto",
	"es":  "Español",
	"et":  "eesti keel",
	"eu":  "Euskara",
	"fa":  "فارسی",
	"fi":  "Suomi",
	"fr":  "Français",
	"ga":  "Gaeilge",
	"gd":  "Gàidhlig",
	"gl":  "Galego",
	"he":  "עברית",
	"hi":  "हिन्दी",
	"hr":  "Hrvatski",
	"hu":  "Magyar",
	"hy":  "հայերեն",
	"id":  "Bahasa Indonesia",
	"is":  "Íslenska",
	"it":  "Italiano",
	"ja":  "日本語",
	"ko":  "한국어",
	"la":  "Lingua latina",
	"lt":  "Lietuvių kalba",
	"lv":  "Latviešu valoda",
	"mk":  "македонски",
	"ms":  "Bahasa Malaysia",
	"nl":  "Nederlands",
	"no":  "Norsk",
	"pl":  "Polski",
	"pt":  "Português brasileiro",
	"ro":  "Română",
	"ru":  "Русский",
	"sk":  "Slovenčina",
	"sq":  "Shqip",
	"sr":  "Српски",
	"sv":  "Svenska",
	"sw":  "Kiswahili",
	"th":  "ไทย",
	"tr":  "Türkçe",
	"uk":  "Українська",
	"vi":  "Tiếng Việt",
	"zh":  "中文-普通话 國語",
}

var languagesByName = func() map[string]Language {
	out := make(map[string]Language, len(languageNames))
	for code, name := range languageNames {
		out[strings.ToLower(name)] = code
	}
	return out
}()

func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return "Unknown"
}

// IsKnown reports whether the code is in the table.
func (l Language) IsKnown() bool {
	_, ok := languageNames[l]
	return ok
}

// LanguageByName maps a native language name back to its code.
// Unrecognized names map to LanguageUnknown.
func LanguageByName(name string) Language {
	if l, ok := languagesByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return l
	}
	return LanguageUnknown
}

// maximum edit distance accepted by MatchLanguage, relative to name length
const maxLanguageDistance = 2

// MatchLanguage resolves a language name that may differ slightly from the
// table entry (stray whitespace, punctuation variants scraped from page
// metadata). It falls back to a nearest Levenshtein match within a small
// distance before giving up with LanguageUnknown.
func MatchLanguage(name string) Language {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return LanguageUnknown
	}
	if l, ok := languagesByName[name]; ok {
		return l
	}

	best := LanguageUnknown
	bestDist := maxLanguageDistance + 1
	for candidate, code := range languagesByName {
		dist := matchr.Levenshtein(name, candidate)
		if dist < bestDist {
			best = code
			bestDist = dist
		}
	}
	return best
}
