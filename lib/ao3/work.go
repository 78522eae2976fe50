package ao3

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ao3kit/lib/ao3/enums"
	"ao3kit/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// DownloadFormat is one of the archive's downloadable work formats.
type DownloadFormat string

const (
	FormatAZW3 DownloadFormat = "azw3"
	FormatEPUB DownloadFormat = "epub"
	FormatMOBI DownloadFormat = "mobi"
	FormatPDF  DownloadFormat = "pdf"
	FormatHTML DownloadFormat = "html"
)

// WorkStats groups the counters from a work's stats block.
type WorkStats struct {
	Comments  int
	Kudos     int
	Bookmarks int
	Hits      int
}

type workFields struct {
	title         string
	authors       []Object
	restricted    bool
	summary       string
	series        []Object
	rating        enums.Rating
	ratingName    string
	warnings      []string
	categories    []string
	fandoms       []string
	relationships []string
	characters    []string
	freeforms     []string
	language      enums.Language
	datePublished time.Time
	dateUpdated   time.Time
	wordCount     int
	chaptersOut   int
	chaptersTotal int
	stats         WorkStats
	chapters      []*Chapter
	subID         int64
	bookmarkID    int64
}

// Work is a single work on the archive. Constructed unloaded from an id,
// or partial from a listing blurb; the full page is fetched lazily on
// first access to an attribute the current state does not cover.
type Work struct {
	page[workFields]
	id int64
	tr transport
}

func newWork(tr transport, id int64) *Work {
	w := &Work{id: id, tr: tr}
	w.load = w.fetchPage
	return w
}

func (w *Work) ID() int64 {
	return w.id
}

func (w *Work) URL() string {
	return fmt.Sprintf("%s/works/%d", DefaultBaseURL, w.id)
}

func (w *Work) fetchPage(ctx context.Context) (workFields, string, error) {
	ctx, span := tracer.Start(ctx, "work:fetchPage")
	defer span.End()

	doc, err := w.tr.getDocument(ctx, fmt.Sprintf("/works/%d", w.id), url.Values{
		"view_adult": {"true"},
	})
	if err != nil {
		return workFields{}, "", err
	}
	return parseWorkPage(w.tr, w.id, doc), docToken(doc), nil
}

func docToken(doc *goquery.Document) string {
	return doc.Find("meta[name=csrf-token]").AttrOr("content", "")
}

// Title of the work.
func (w *Work) Title(ctx context.Context) (string, error) {
	var out string
	err := w.access(ctx, StatePartial, "work", func(f *workFields) { out = f.title })
	return out, err
}

// Authors returns the creators as user stubs.
func (w *Work) Authors(ctx context.Context) ([]Object, error) {
	var out []Object
	err := w.access(ctx, StatePartial, "work", func(f *workFields) { out = f.authors })
	return out, err
}

// IsRestricted reports whether the work is visible to logged-in users only.
func (w *Work) IsRestricted(ctx context.Context) (bool, error) {
	var out bool
	err := w.access(ctx, StatePartial, "work", func(f *workFields) { out = f.restricted })
	return out, err
}

func (w *Work) Summary(ctx context.Context) (string, error) {
	var out string
	err := w.access(ctx, StatePartial, "work", func(f *workFields) { out = f.summary })
	return out, err
}

// Series returns the series this work belongs to, in listed order.
func (w *Work) Series(ctx context.Context) ([]Object, error) {
	var out []Object
	err := w.access(ctx, StatePartial, "work", func(f *workFields) { out = f.series })
	return out, err
}

// Rating returns the work's rating code; the label as rendered on the
// page is also available since some labels have no table entry.
func (w *Work) Rating(ctx context.Context) (enums.Rating, string, error) {
	var code enums.Rating
	var name string
	err := w.access(ctx, StatePartial, "work", func(f *workFields) {
		code, name = f.rating, f.ratingName
	})
	return code, name, err
}

func (w *Work) Warnings(ctx context.Context) ([]string, error) {
	var out []string
	err := w.access(ctx, StatePartial, "work", func(f *workFields) { out = f.warnings })
	return out, err
}

func (w *Work) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := w.access(ctx, StatePartial, "work", func(f *workFields) { out = f.categories })
	return out, err
}

func (w *Work) Fandoms(ctx context.Context) ([]string, error) {
	var out []string
	err := w.access(ctx, StatePartial, "work", func(f *workFields) { out = f.fandoms })
	return out, err
}

func (w *Work) Relationships(ctx context.Context) ([]string, error) {
	var out []string
	err := w.access(ctx, StatePartial, "work", func(f *workFields) { out = f.relationships })
	return out, err
}

func (w *Work) Characters(ctx context.Context) ([]string, error) {
	var out []string
	err := w.access(ctx, StatePartial, "work", func(f *workFields) { out = f.characters })
	return out, err
}

func (w *Work) Freeforms(ctx context.Context) ([]string, error) {
	var out []string
	err := w.access(ctx, StatePartial, "work", func(f *workFields) { out = f.freeforms })
	return out, err
}

// AllTags concatenates warnings, relationships, characters, freeforms
// and categories, in that order.
func (w *Work) AllTags(ctx context.Context) ([]string, error) {
	var out []string
	err := w.access(ctx, StatePartial, "work", func(f *workFields) {
		out = make([]string, 0, len(f.warnings)+len(f.relationships)+len(f.characters)+len(f.freeforms)+len(f.categories))
		out = append(out, f.warnings...)
		out = append(out, f.relationships...)
		out = append(out, f.characters...)
		out = append(out, f.freeforms...)
		out = append(out, f.categories...)
	})
	return out, err
}

func (w *Work) Language(ctx context.Context) (enums.Language, error) {
	var out enums.Language
	err := w.access(ctx, StatePartial, "work", func(f *workFields) { out = f.language })
	return out, err
}

// DatePublished requires the full page; blurbs only carry the update date.
func (w *Work) DatePublished(ctx context.Context) (time.Time, error) {
	var out time.Time
	err := w.access(ctx, StateLoaded, "work", func(f *workFields) { out = f.datePublished })
	return out, err
}

func (w *Work) DateUpdated(ctx context.Context) (time.Time, error) {
	var out time.Time
	err := w.access(ctx, StatePartial, "work", func(f *workFields) { out = f.dateUpdated })
	return out, err
}

func (w *Work) WordCount(ctx context.Context) (int, error) {
	var out int
	err := w.access(ctx, StatePartial, "work", func(f *workFields) { out = f.wordCount })
	return out, err
}

// ChapterCounts returns the published chapter count and the planned
// total; total is -1 when the work is open ended.
func (w *Work) ChapterCounts(ctx context.Context) (current, expected int, err error) {
	err = w.access(ctx, StatePartial, "work", func(f *workFields) {
		current, expected = f.chaptersOut, f.chaptersTotal
	})
	return current, expected, err
}

func (w *Work) IsComplete(ctx context.Context) (bool, error) {
	current, expected, err := w.ChapterCounts(ctx)
	if err != nil {
		return false, err
	}
	return expected >= 0 && current == expected, nil
}

func (w *Work) Stats(ctx context.Context) (WorkStats, error) {
	var out WorkStats
	err := w.access(ctx, StatePartial, "work", func(f *workFields) { out = f.stats })
	return out, err
}

// Chapters returns the work's chapter list. Each chapter's body is
// itself lazy and fetched on first access.
func (w *Work) Chapters(ctx context.Context) ([]*Chapter, error) {
	var out []*Chapter
	err := w.access(ctx, StateLoaded, "work", func(f *workFields) { out = f.chapters })
	return out, err
}

// Download fetches the work in one of the archive's download formats.
func (w *Work) Download(ctx context.Context, format DownloadFormat) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "work:Download")
	defer span.End()

	title, err := w.Title(ctx)
	if err != nil {
		return nil, &DownloadError{WorkID: w.id, Format: format, Cause: err}
	}

	filename := fmt.Sprintf("%s.%s", title, format)
	body, err := w.tr.getBytes(ctx, fmt.Sprintf("/downloads/%d/%s", w.id, url.PathEscape(filename)), nil)
	if err != nil {
		return nil, &DownloadError{WorkID: w.id, Format: format, Cause: err}
	}
	return body, nil
}

func parseWorkPage(tr transport, workID int64, doc *goquery.Document) workFields {
	meta := doc.Find("dl.work.meta.group")

	f := workFields{
		title:         htmlutil.FirstText(doc.Selection, "h2.title"),
		summary:       htmlutil.FirstText(doc.Selection, "div.summary > blockquote.userstuff"),
		restricted:    doc.Find(`img[title*="Restricted"]`).Length() > 0,
		ratingName:    htmlutil.FirstText(meta, "dd.rating.tags li"),
		warnings:      htmlutil.TextList(meta, "dd.warning.tags li"),
		categories:    htmlutil.TextList(meta, "dd.category.tags li"),
		fandoms:       htmlutil.TextList(meta, "dd.fandom.tags li"),
		relationships: htmlutil.TextList(meta, "dd.relationship.tags li"),
		characters:    htmlutil.TextList(meta, "dd.character.tags li"),
		freeforms:     htmlutil.TextList(meta, "dd.freeform.tags li"),
		wordCount:     parseCount(htmlutil.FirstText(meta, "dl.stats dd.words")),
	}
	f.rating = enums.RatingByName(f.ratingName)
	f.language = enums.MatchLanguage(htmlutil.FirstText(meta, "dd.language"))

	for _, a := range htmlutil.Anchors(doc.Selection, "div.preface.group a[rel=author]") {
		f.authors = append(f.authors, Object{Name: usernameFromPath(a.Href), Kind: KindUser})
	}
	for _, a := range htmlutil.Anchors(meta, "dd.series span.position a") {
		f.series = append(f.series, Object{ID: idFromPath(a.Href), Kind: KindSeries})
	}

	f.datePublished = parseISODate(htmlutil.FirstText(meta, "dl.stats dd.published"))
	f.dateUpdated = parseISODate(htmlutil.FirstText(meta, "dl.stats dd.status"))
	if f.dateUpdated.IsZero() {
		f.dateUpdated = f.datePublished
	}

	f.chaptersOut, f.chaptersTotal = parseChapterCounts(htmlutil.FirstText(meta, "dl.stats dd.chapters"))
	f.stats = WorkStats{
		Comments:  parseCount(htmlutil.FirstText(meta, "dl.stats dd.comments")),
		Kudos:     parseCount(htmlutil.FirstText(meta, "dl.stats dd.kudos")),
		Bookmarks: parseCount(htmlutil.FirstText(meta, "dl.stats dd.bookmarks")),
		Hits:      parseCount(htmlutil.FirstText(meta, "dl.stats dd.hits")),
	}

	f.chapters = parseChapterIndex(tr, workID, doc)
	f.subID = formActionID(doc, "ul.work.navigation.actions li.subscribe form")
	f.bookmarkID = formActionID(doc, `div#bookmark-form form[action^="/bookmarks/"]`)

	return f
}

// parseChapterIndex builds the chapter list from the chapter navigation
// dropdown. Single-chapter works have no dropdown; their one chapter's
// body is already on the page, so it is seeded loaded.
func parseChapterIndex(tr transport, workID int64, doc *goquery.Document) []*Chapter {
	var chapters []*Chapter
	doc.Find("ul#chapter_index select option, select#selected_id option").Each(func(i int, s *goquery.Selection) {
		idText := s.AttrOr("value", "")
		id := idFromPath("/" + idText)
		if id == 0 {
			return
		}
		number, title := splitChapterLabel(htmlutil.CleanText(s.Text()), i+1)
		chapters = append(chapters, newChapter(tr, id, workID, number, title))
	})
	if len(chapters) > 0 {
		return chapters
	}

	body := chapterBodyText(doc.Selection)
	if body == "" {
		return nil
	}
	only := newChapter(tr, 0, workID, 1, "")
	only.seedBody(body)
	return []*Chapter{only}
}

// splitChapterLabel splits a "3. Chapter Title" dropdown label.
func splitChapterLabel(label string, fallback int) (int, string) {
	numText, title, found := strings.Cut(label, ".")
	if !found {
		return fallback, label
	}
	number := parseCount(numText)
	if number == 0 {
		return fallback, label
	}
	return number, strings.TrimSpace(title)
}

// formActionID pulls the trailing id out of a form's action attribute,
// e.g. "/users/x/subscriptions/123" -> 123. Forms only render those ids
// for logged in sessions.
func formActionID(doc *goquery.Document, selector string) int64 {
	action := doc.Find(selector).First().AttrOr("action", "")
	if action == "" {
		return 0
	}
	return idFromPath(action)
}

func parseISODate(text string) time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(text))
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseBlurbDate(text string) time.Time {
	t, err := time.Parse("2 Jan 2006", strings.TrimSpace(text))
	if err != nil {
		return time.Time{}
	}
	return t
}

// workFromBlurb builds a partial Work from a listing blurb (search
// results, series pages, user works). The blurb covers the metadata
// subset; chapters and the publish date still need a full load.
func workFromBlurb(tr transport, blurb *goquery.Selection, token string) (*Work, error) {
	link := blurb.Find(`h4.heading a[href^="/works"]`).First()
	href := link.AttrOr("href", "")
	id := idFromPath(href)
	if id == 0 {
		return nil, ErrInvalidURL
	}

	f := workFields{
		title:         htmlutil.CleanText(link.Text()),
		restricted:    blurb.Find(`img[title*="Restricted"]`).Length() > 0,
		summary:       htmlutil.FirstText(blurb, "blockquote.userstuff.summary"),
		ratingName:    htmlutil.FirstText(blurb, ".required-tags .rating"),
		warnings:      htmlutil.TextList(blurb, ".tags li.warnings"),
		fandoms:       htmlutil.TextList(blurb, "h5.fandoms a"),
		relationships: htmlutil.TextList(blurb, ".tags li.relationships"),
		characters:    htmlutil.TextList(blurb, ".tags li.characters"),
		freeforms:     htmlutil.TextList(blurb, ".tags li.freeforms"),
		wordCount:     parseCount(htmlutil.FirstText(blurb, "dl.stats dd.words")),
	}
	f.rating = enums.RatingByName(f.ratingName)
	f.language = enums.MatchLanguage(htmlutil.FirstText(blurb, "dl.stats dd.language"))

	if cats := htmlutil.FirstText(blurb, ".required-tags .category"); cats != "" {
		for _, c := range strings.Split(cats, ",") {
			f.categories = append(f.categories, strings.TrimSpace(c))
		}
	}
	for _, a := range htmlutil.Anchors(blurb, `h4.heading a[rel=author]`) {
		f.authors = append(f.authors, Object{Name: usernameFromPath(a.Href), Kind: KindUser})
	}
	for _, a := range htmlutil.Anchors(blurb, "ul.series a") {
		f.series = append(f.series, Object{ID: idFromPath(a.Href), Kind: KindSeries})
	}

	f.dateUpdated = parseBlurbDate(htmlutil.FirstText(blurb, "p.datetime"))
	f.chaptersOut, f.chaptersTotal = parseChapterCounts(htmlutil.FirstText(blurb, "dl.stats dd.chapters"))
	f.stats = WorkStats{
		Comments:  parseCount(htmlutil.FirstText(blurb, "dl.stats dd.comments")),
		Kudos:     parseCount(htmlutil.FirstText(blurb, "dl.stats dd.kudos")),
		Bookmarks: parseCount(htmlutil.FirstText(blurb, "dl.stats dd.bookmarks")),
		Hits:      parseCount(htmlutil.FirstText(blurb, "dl.stats dd.hits")),
	}

	w := newWork(tr, id)
	w.setPartial(f, token)
	return w, nil
}
