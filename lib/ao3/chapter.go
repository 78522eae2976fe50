package ao3

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"ao3kit/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

type chapterFields struct {
	title   string
	summary string
	body    string
}

// Chapter is one chapter of a work. The body is lazy: listing a work's
// chapters does not fetch chapter pages, only first access to a body
// does. Single-chapter works carry their body on the work page itself
// and arrive already loaded.
type Chapter struct {
	page[chapterFields]
	id     int64
	workID int64
	number int
	tr     transport
}

func newChapter(tr transport, id, workID int64, number int, title string) *Chapter {
	c := &Chapter{id: id, workID: workID, number: number, tr: tr}
	c.load = c.fetchPage
	if title != "" {
		c.setPartial(chapterFields{title: title}, "")
	}
	return c
}

// seedBody marks the chapter loaded with a body taken from the work page.
func (c *Chapter) seedBody(body string) {
	c.mu.Lock()
	c.fields.body = body
	c.state = StateLoaded
	c.mu.Unlock()
}

func (c *Chapter) ID() int64 {
	return c.id
}

// Number is the chapter's 1-based position within the work.
func (c *Chapter) Number() int {
	return c.number
}

func (c *Chapter) URL() string {
	if c.id == 0 {
		return fmt.Sprintf("%s/works/%d", DefaultBaseURL, c.workID)
	}
	return fmt.Sprintf("%s/works/%d/chapters/%d", DefaultBaseURL, c.workID, c.id)
}

func (c *Chapter) fetchPage(ctx context.Context) (chapterFields, string, error) {
	ctx, span := tracer.Start(ctx, "chapter:fetchPage")
	defer span.End()

	doc, err := c.tr.getDocument(ctx, fmt.Sprintf("/chapters/%d", c.id), url.Values{
		"view_adult": {"true"},
	})
	if err != nil {
		return chapterFields{}, "", err
	}

	return chapterFields{
		title:   htmlutil.FirstText(doc.Selection, "div.chapter.preface.group h3.title"),
		summary: htmlutil.FirstText(doc.Selection, "div.summary > blockquote.userstuff"),
		body:    chapterBodyText(doc.Selection),
	}, docToken(doc), nil
}

func chapterBodyText(sel *goquery.Selection) string {
	body := sel.Find("div#chapters div.userstuff").First()
	// the landmark heading is navigation chrome, not prose
	body.Find("h3#work.landmark.heading").Remove()

	paragraphs := htmlutil.TextList(body, "p")
	if len(paragraphs) == 0 {
		return htmlutil.CleanText(body.Text())
	}
	return strings.Join(paragraphs, "\n\n")
}

func (c *Chapter) Title(ctx context.Context) (string, error) {
	var out string
	err := c.access(ctx, StatePartial, "chapter", func(f *chapterFields) { out = f.title })
	return out, err
}

func (c *Chapter) Summary(ctx context.Context) (string, error) {
	var out string
	err := c.access(ctx, StateLoaded, "chapter", func(f *chapterFields) { out = f.summary })
	return out, err
}

// Body returns the chapter's prose, fetching the chapter page on first
// access.
func (c *Chapter) Body(ctx context.Context) (string, error) {
	var out string
	err := c.access(ctx, StateLoaded, "chapter", func(f *chapterFields) { out = f.body })
	return out, err
}
