package enums

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRatingByName(t *testing.T) {
	testCases := []struct {
		name     string
		expected Rating
	}{
		{name: "General Audiences", expected: RatingGeneralAudiences},
		{name: "Teen And Up Audiences", expected: RatingTeenAndUp},
		{name: "  Explicit  ", expected: RatingExplicit},
		{name: "Not Rated", expected: RatingNotRated},
		{name: "Something Else", expected: RatingUnknown},
		{name: "", expected: RatingUnknown},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, RatingByName(test.name), test.name)
	}
}

func TestRatingRoundTrip(t *testing.T) {
	for rating := range ratingNames {
		require.Equal(t, rating, RatingByName(rating.String()))
	}
	require.Equal(t, "Unknown", RatingUnknown.String())
}

func TestWarningByName(t *testing.T) {
	require.Equal(t, WarningNoWarnings, WarningByName("No Archive Warnings Apply"))
	require.Equal(t, WarningMajorDeath, WarningByName("Major Character Death"))
	require.Equal(t, WarningUnknown, WarningByName("nope"))
}

func TestCategoryByName(t *testing.T) {
	require.Equal(t, CategoryFM, CategoryByName("F/M"))
	require.Equal(t, CategoryGen, CategoryByName("Gen"))
	require.Equal(t, CategoryUnknown, CategoryByName("F/M/Other"))
}

func TestLanguageByName(t *testing.T) {
	require.Equal(t, Language("en"), LanguageByName("English"))
	require.Equal(t, Language("ja"), LanguageByName("日本語"))
	require.Equal(t, LanguageUnknown, LanguageByName("Klingon"))
}

func TestMatchLanguage(t *testing.T) {
	// exact name
	require.Equal(t, Language("de"), MatchLanguage("Deutsch"))
	// small typos still resolve
	require.Equal(t, Language("en"), MatchLanguage("english"))
	require.Equal(t, Language("fr"), MatchLanguage("Francais"))
	// too far from anything known
	require.Equal(t, LanguageUnknown, MatchLanguage("Quenya"))
	require.Equal(t, LanguageUnknown, MatchLanguage(""))
}

func TestLanguageIsKnown(t *testing.T) {
	require.True(t, Language("en").IsKnown())
	require.False(t, Language("zz").IsKnown())
	require.False(t, LanguageUnknown.IsKnown())
}
