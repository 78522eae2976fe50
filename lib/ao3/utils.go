package ao3

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var storyURLRegex = regexp.MustCompile(`(?:https?://|)(?:www\.|)archiveofourown\.org/(?:works|series)/(\d+)`)

// GetIDFromURL extracts the work or series id from an archive url.
// No network call is made. Malformed input returns ErrInvalidURL.
func GetIDFromURL(url string) (int64, error) {
	groups := storyURLRegex.FindStringSubmatch(url)
	if len(groups) < 2 {
		return 0, ErrInvalidURL
	}
	id, err := strconv.ParseInt(groups[1], 10, 64)
	if err != nil {
		return 0, ErrInvalidURL
	}
	return id, nil
}

// parseCount reads the comma-grouped integers the archive renders in its
// stats blocks. Unparseable text counts as zero.
func parseCount(text string) int {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return n
}

// parseChapterCounts splits the "current/expected" chapter figure.
// The expected side is -1 when the work is open ended ("12/?").
func parseChapterCounts(text string) (current, expected int) {
	currentStr, expectedStr, _ := strings.Cut(strings.TrimSpace(text), "/")
	current = parseCount(currentStr)
	if strings.TrimSpace(expectedStr) == "?" {
		return current, -1
	}
	return current, parseCount(expectedStr)
}

// idFromPath pulls the trailing numeric path segment out of an href,
// e.g. "/series/1234" -> 1234. Returns 0 when there is none.
func idFromPath(href string) int64 {
	href = strings.TrimSuffix(href, "/")
	idx := strings.LastIndexByte(href, '/')
	if idx < 0 {
		return 0
	}
	id, err := strconv.ParseInt(href[idx+1:], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// pageQuery builds the page query parameter for paginated listings.
// Page 1 stays implicit to match the archive's canonical urls.
func pageQuery(pageNum int) url.Values {
	if pageNum <= 1 {
		return nil
	}
	return url.Values{"page": {strconv.Itoa(pageNum)}}
}

// usernameFromPath pulls the username out of a "/users/<name>/..." href.
func usernameFromPath(href string) string {
	parts := strings.Split(strings.TrimPrefix(href, "/"), "/")
	if len(parts) < 2 || parts[0] != "users" {
		return ""
	}
	return parts[1]
}
