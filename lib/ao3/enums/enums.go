// Package enums holds the archive's static code tables: ratings, archive
// warnings, categories, languages and fandom media keys. The tables are
// bidirectional and built once at init; unknown codes resolve to the
// package's Unknown sentinels instead of failing.
package enums

import (
	"strings"
)

// Rating is the archive's numeric rating code.
type Rating int

const (
	RatingUnknown          Rating = 0
	RatingNotRated         Rating = 9
	RatingGeneralAudiences Rating = 10
	RatingTeenAndUp        Rating = 11
	RatingMature           Rating = 12
	RatingExplicit         Rating = 13
)

var ratingNames = map[Rating]string{
	RatingNotRated:         "Not Rated",
	RatingGeneralAudiences: "General Audiences",
	RatingTeenAndUp:        "Teen And Up Audiences",
	RatingMature:           "Mature",
	RatingExplicit:         "Explicit",
}

var ratingsByName = invert(ratingNames)

func (r Rating) String() string {
	if name, ok := ratingNames[r]; ok {
		return name
	}
	return "Unknown"
}

// RatingByName maps a rating label as rendered on work pages back to its
// numeric code. Unrecognized labels map to RatingUnknown.
func RatingByName(name string) Rating {
	if r, ok := ratingsByName[strings.TrimSpace(name)]; ok {
		return r
	}
	return RatingUnknown
}

// Warning is the archive's numeric warning code.
type Warning int

const (
	WarningUnknown    Warning = 0
	WarningNotWarned  Warning = 14
	WarningNoWarnings Warning = 16
	WarningViolence   Warning = 17
	WarningMajorDeath Warning = 18
	WarningNoncon     Warning = 19
	WarningUnderage   Warning = 20
)

var warningNames = map[Warning]string{
	WarningNotWarned:  "Creator Chose Not To Use Archive Warnings",
	WarningNoWarnings: "No Archive Warnings Apply",
	WarningViolence:   "Graphic Depictions Of Violence",
	WarningMajorDeath: "Major Character Death",
	WarningNoncon:     "Rape/Non-Con",
	WarningUnderage:   "Underage Sex",
}

var warningsByName = invert(warningNames)

func (w Warning) String() string {
	if name, ok := warningNames[w]; ok {
		return name
	}
	return "Unknown"
}

func WarningByName(name string) Warning {
	if w, ok := warningsByName[strings.TrimSpace(name)]; ok {
		return w
	}
	return WarningUnknown
}

// Category is the archive's numeric relationship-category code.
type Category int

const (
	CategoryUnknown Category = 0
	CategoryGen     Category = 21
	CategoryFM      Category = 22
	CategoryMM      Category = 23
	CategoryOther   Category = 24
	CategoryFF      Category = 116
	CategoryMulti   Category = 2246
)

var categoryNames = map[Category]string{
	CategoryGen:     "Gen",
	CategoryFM:      "F/M",
	CategoryMM:      "M/M",
	CategoryOther:   "Other",
	CategoryFF:      "F/F",
	CategoryMulti:   "Multi",
}

var categoriesByName = invert(categoryNames)

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "Unknown"
}

func CategoryByName(name string) Category {
	if c, ok := categoriesByName[strings.TrimSpace(name)]; ok {
		return c
	}
	return CategoryUnknown
}

// FandomKey identifies one of the archive's top level fandom media pages.
type FandomKey string

const (
	FandomAnime         FandomKey = "Anime *a* Manga"
	FandomBook          FandomKey = "Books *a* Literature"
	FandomCartoon       FandomKey = "Cartoons *a* Comics *a* Graphic Novels"
	FandomCelebrities   FandomKey = "Celebrities *a* Real People"
	FandomMusic         FandomKey = "Music *a* Bands"
	FandomOther         FandomKey = "Other Media"
	FandomTheater       FandomKey = "Theater"
	FandomTVShow        FandomKey = "TV Shows"
	FandomVideogame     FandomKey = "Video Games"
	FandomUncategorized FandomKey = "Uncategorized Fandoms"
)

func invert[K comparable, V comparable](m map[K]V) map[V]K {
	out := make(map[V]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
