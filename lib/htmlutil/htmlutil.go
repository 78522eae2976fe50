// Package htmlutil contains the markup extraction helpers shared by the
// archive page parsers. Selectors that match nothing yield empty results,
// never errors.
package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText collapses the whitespace soup the archive's templates produce
// into a single printable line.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.Trim(s, " \t\n")
	return innerWhitespace.ReplaceAllString(s, " ")
}

// FirstText returns the cleaned text of the first node matching the
// selector, or "" when nothing matches.
func FirstText(sel *goquery.Selection, selector string) string {
	return CleanText(sel.Find(selector).First().Text())
}

// TextList returns the cleaned text of every node matching the selector.
func TextList(sel *goquery.Selection, selector string) []string {
	var out []string
	sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if text := CleanText(s.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

type Anchor struct {
	Name string
	Href string
}

// Anchors collects name/href pairs for every anchor matching the selector.
func Anchors(sel *goquery.Selection, selector string) []Anchor {
	var anchors []Anchor
	sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		anchors = append(anchors, Anchor{
			Name: CleanText(s.Text()),
			Href: s.AttrOr("href", ""),
		})
	})
	return anchors
}
