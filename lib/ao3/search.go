package ao3

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"ao3kit/lib/ao3/enums"
	"ao3kit/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Range constrains an integer field to an interval. The zero value means
// unconstrained. Max <= 0 leaves the upper end open.
type Range struct {
	Min int
	Max int
}

// String renders the range in the archive's constraint grammar.
func (r Range) String() string {
	switch {
	case r.Min <= 0 && r.Max <= 0:
		return ""
	case r.Min <= 0:
		return "<" + strconv.Itoa(r.Max)
	case r.Max <= 0:
		return ">" + strconv.Itoa(r.Min)
	case r.Min == r.Max:
		return strconv.Itoa(r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// ParseRange is the inverse of Range.String.
func ParseRange(text string) Range {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return Range{}
	case strings.HasPrefix(text, "<"):
		return Range{Max: parseCount(text[1:])}
	case strings.HasPrefix(text, ">"):
		return Range{Min: parseCount(text[1:])}
	}
	minStr, maxStr, ranged := strings.Cut(text, "-")
	if !ranged {
		n := parseCount(text)
		return Range{Min: n, Max: n}
	}
	return Range{Min: parseCount(minStr), Max: parseCount(maxStr)}
}

// SortDirection orders search results ascending or descending.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// Tristate is an optional boolean filter. The zero value leaves the
// filter unset.
type Tristate string

const (
	TristateUnset Tristate = ""
	TristateTrue  Tristate = "T"
	TristateFalse Tristate = "F"
)

var workSortColumns = map[string]bool{
	"_score":             true,
	"authors_to_sort_on": true,
	"title_to_sort_on":   true,
	"created_at":         true,
	"revised_at":         true,
	"word_count":         true,
	"hits":               true,
	"kudos_count":        true,
	"comments_count":     true,
	"bookmarks_count":    true,
}

// WorkSearchOptions filters a work search. Zero-valued fields are
// omitted from the query string entirely.
type WorkSearchOptions struct {
	Query         string
	Title         string
	Author        string
	RevisedAt     string
	SingleChapter bool
	WordCount     Range
	Language      enums.Language
	Fandoms       string
	Characters    string
	Relationships string
	Freeforms     string
	ExcludedTags  string
	Rating        enums.Rating
	Hits          Range
	Kudos         Range
	Comments      Range
	Bookmarks     Range
	Crossover     Tristate
	Complete      Tristate
	SortColumn    string
	SortDirection SortDirection
}

func (o WorkSearchOptions) Validate() error {
	if o.SortColumn != "" && !workSortColumns[o.SortColumn] {
		return fmt.Errorf("work search: unsupported sort column %q", o.SortColumn)
	}
	if err := validateDirection(o.SortDirection); err != nil {
		return fmt.Errorf("work search: %w", err)
	}
	if o.Language != "" && !o.Language.IsKnown() {
		return fmt.Errorf("work search: unknown language %q", o.Language)
	}
	return nil
}

// Values serializes the options into the archive's query parameters.
func (o WorkSearchOptions) Values() (url.Values, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	setParam(q, "work_search[query]", o.Query)
	setParam(q, "work_search[title]", o.Title)
	setParam(q, "work_search[creators]", o.Author)
	setParam(q, "work_search[revised_at]", o.RevisedAt)
	if o.SingleChapter {
		q.Set("work_search[single_chapter]", "1")
	}
	setParam(q, "work_search[word_count]", o.WordCount.String())
	setParam(q, "work_search[language_id]", string(o.Language))
	setParam(q, "work_search[fandom_names]", o.Fandoms)
	setParam(q, "work_search[character_names]", o.Characters)
	setParam(q, "work_search[relationship_names]", o.Relationships)
	setParam(q, "work_search[freeform_names]", o.Freeforms)
	setParam(q, "work_search[excluded_tag_names]", o.ExcludedTags)
	if o.Rating != 0 && o.Rating != enums.RatingUnknown {
		q.Set("work_search[rating_ids]", strconv.Itoa(int(o.Rating)))
	}
	setParam(q, "work_search[hits]", o.Hits.String())
	setParam(q, "work_search[kudos_count]", o.Kudos.String())
	setParam(q, "work_search[comments_count]", o.Comments.String())
	setParam(q, "work_search[bookmarks_count]", o.Bookmarks.String())
	setParam(q, "work_search[crossover]", string(o.Crossover))
	setParam(q, "work_search[complete]", string(o.Complete))
	setParam(q, "work_search[sort_column]", o.SortColumn)
	setParam(q, "work_search[sort_direction]", string(o.SortDirection))
	return q, nil
}

// parseWorkSearchValues is the inverse of Values, used to recover the
// filter set from a query string.
func parseWorkSearchValues(q url.Values) WorkSearchOptions {
	var rating enums.Rating
	if s := q.Get("work_search[rating_ids]"); s != "" {
		n, _ := strconv.Atoi(s)
		rating = enums.Rating(n)
	}
	return WorkSearchOptions{
		Query:         q.Get("work_search[query]"),
		Title:         q.Get("work_search[title]"),
		Author:        q.Get("work_search[creators]"),
		RevisedAt:     q.Get("work_search[revised_at]"),
		SingleChapter: q.Get("work_search[single_chapter]") == "1",
		WordCount:     ParseRange(q.Get("work_search[word_count]")),
		Language:      enums.Language(q.Get("work_search[language_id]")),
		Fandoms:       q.Get("work_search[fandom_names]"),
		Characters:    q.Get("work_search[character_names]"),
		Relationships: q.Get("work_search[relationship_names]"),
		Freeforms:     q.Get("work_search[freeform_names]"),
		ExcludedTags:  q.Get("work_search[excluded_tag_names]"),
		Rating:        rating,
		Hits:          ParseRange(q.Get("work_search[hits]")),
		Kudos:         ParseRange(q.Get("work_search[kudos_count]")),
		Comments:      ParseRange(q.Get("work_search[comments_count]")),
		Bookmarks:     ParseRange(q.Get("work_search[bookmarks_count]")),
		Crossover:     Tristate(q.Get("work_search[crossover]")),
		Complete:      Tristate(q.Get("work_search[complete]")),
		SortColumn:    q.Get("work_search[sort_column]"),
		SortDirection: SortDirection(q.Get("work_search[sort_direction]")),
	}
}

// PeopleSearchOptions filters a people search.
type PeopleSearchOptions struct {
	Query   string
	Names   string
	Fandoms string
}

func (o PeopleSearchOptions) Validate() error {
	return nil
}

func (o PeopleSearchOptions) Values() (url.Values, error) {
	q := url.Values{}
	setParam(q, "people_search[query]", o.Query)
	setParam(q, "people_search[name]", o.Names)
	setParam(q, "people_search[fandom]", o.Fandoms)
	return q, nil
}

func parsePeopleSearchValues(q url.Values) PeopleSearchOptions {
	return PeopleSearchOptions{
		Query:   q.Get("people_search[query]"),
		Names:   q.Get("people_search[name]"),
		Fandoms: q.Get("people_search[fandom]"),
	}
}

// BookmarkableType restricts a bookmark search to one kind of target.
type BookmarkableType string

const (
	BookmarkableAny      BookmarkableType = ""
	BookmarkableWork     BookmarkableType = "Work"
	BookmarkableSeries   BookmarkableType = "Series"
	BookmarkableExternal BookmarkableType = "External Work"
)

var bookmarkSortColumns = map[string]bool{
	"created_at":        true,
	"bookmarkable_date": true,
}

// BookmarkSearchOptions filters a bookmark search.
type BookmarkSearchOptions struct {
	Query         string
	WorkTags      string
	Type          BookmarkableType
	Language      enums.Language
	WorkUpdated   string
	BookmarkQuery string
	BookmarkTags  string
	Bookmarker    string
	Recommended   bool
	WithNotes     bool
	BookmarkDate  string
	SortColumn    string
}

func (o BookmarkSearchOptions) Validate() error {
	if o.SortColumn != "" && !bookmarkSortColumns[o.SortColumn] {
		return fmt.Errorf("bookmark search: unsupported sort column %q", o.SortColumn)
	}
	if o.Language != "" && !o.Language.IsKnown() {
		return fmt.Errorf("bookmark search: unknown language %q", o.Language)
	}
	return nil
}

func (o BookmarkSearchOptions) Values() (url.Values, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	setParam(q, "bookmark_search[bookmarkable_query]", o.Query)
	setParam(q, "bookmark_search[other_tag_names]", o.WorkTags)
	setParam(q, "bookmark_search[bookmarkable_type]", string(o.Type))
	setParam(q, "bookmark_search[language_id]", string(o.Language))
	setParam(q, "bookmark_search[bookmarkable_date]", o.WorkUpdated)
	setParam(q, "bookmark_search[bookmark_query]", o.BookmarkQuery)
	setParam(q, "bookmark_search[other_bookmark_tag_names]", o.BookmarkTags)
	setParam(q, "bookmark_search[bookmarker]", o.Bookmarker)
	if o.Recommended {
		q.Set("bookmark_search[rec]", "1")
	}
	if o.WithNotes {
		q.Set("bookmark_search[with_notes]", "1")
	}
	setParam(q, "bookmark_search[date]", o.BookmarkDate)
	setParam(q, "bookmark_search[sort_column]", o.SortColumn)
	return q, nil
}

func parseBookmarkSearchValues(q url.Values) BookmarkSearchOptions {
	return BookmarkSearchOptions{
		Query:         q.Get("bookmark_search[bookmarkable_query]"),
		WorkTags:      q.Get("bookmark_search[other_tag_names]"),
		Type:          BookmarkableType(q.Get("bookmark_search[bookmarkable_type]")),
		Language:      enums.Language(q.Get("bookmark_search[language_id]")),
		WorkUpdated:   q.Get("bookmark_search[bookmarkable_date]"),
		BookmarkQuery: q.Get("bookmark_search[bookmark_query]"),
		BookmarkTags:  q.Get("bookmark_search[other_bookmark_tag_names]"),
		Bookmarker:    q.Get("bookmark_search[bookmarker]"),
		Recommended:   q.Get("bookmark_search[rec]") == "1",
		WithNotes:     q.Get("bookmark_search[with_notes]") == "1",
		BookmarkDate:  q.Get("bookmark_search[date]"),
		SortColumn:    q.Get("bookmark_search[sort_column]"),
	}
}

// TagType restricts a tag search to one tag category.
type TagType string

const (
	TagAny          TagType = ""
	TagFandom       TagType = "Fandom"
	TagCharacter    TagType = "Character"
	TagRelationship TagType = "Relationship"
	TagFreeform     TagType = "Freeform"
)

var tagSortColumns = map[string]bool{
	"name":       true,
	"created_at": true,
}

// TagSearchOptions filters a tag search.
type TagSearchOptions struct {
	Name          string
	Fandoms       string
	Type          TagType
	Canonical     Tristate
	SortColumn    string
	SortDirection SortDirection
}

func (o TagSearchOptions) Validate() error {
	if o.SortColumn != "" && !tagSortColumns[o.SortColumn] {
		return fmt.Errorf("tag search: unsupported sort column %q", o.SortColumn)
	}
	if err := validateDirection(o.SortDirection); err != nil {
		return fmt.Errorf("tag search: %w", err)
	}
	return nil
}

func (o TagSearchOptions) Values() (url.Values, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	setParam(q, "tag_search[name]", o.Name)
	setParam(q, "tag_search[fandoms]", o.Fandoms)
	setParam(q, "tag_search[type]", string(o.Type))
	setParam(q, "tag_search[canonical]", string(o.Canonical))
	setParam(q, "tag_search[sort_column]", o.SortColumn)
	setParam(q, "tag_search[sort_direction]", string(o.SortDirection))
	return q, nil
}

func parseTagSearchValues(q url.Values) TagSearchOptions {
	return TagSearchOptions{
		Name:          q.Get("tag_search[name]"),
		Fandoms:       q.Get("tag_search[fandoms]"),
		Type:          TagType(q.Get("tag_search[type]")),
		Canonical:     Tristate(q.Get("tag_search[canonical]")),
		SortColumn:    q.Get("tag_search[sort_column]"),
		SortDirection: SortDirection(q.Get("tag_search[sort_direction]")),
	}
}

func validateDirection(d SortDirection) error {
	switch d {
	case "", SortAscending, SortDescending:
		return nil
	}
	return fmt.Errorf("unsupported sort direction %q", d)
}

func setParam(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

// TagResult is one row of a tag search listing.
type TagResult struct {
	Type  string
	Name  string
	Count int
}

// BookmarkResult pairs a bookmarked work with the user who bookmarked it.
type BookmarkResult struct {
	Bookmarker Object
	Work       *Work
}

// resultPage is one parsed listing page.
type resultPage[T any] struct {
	items   []T
	total   int
	hasNext bool
}

// Results streams search results page by page. It is lazy and single
// pass: the next listing page is fetched only once the current page's
// items are exhausted, and re-iterating requires a new search. Iterate
// in the bufio.Scanner style:
//
//	for results.Next(ctx) {
//	    work := results.Current()
//	    ...
//	}
//	if err := results.Err(); err != nil { ... }
type Results[T any] struct {
	tr    transport
	path  string
	query url.Values
	parse func(tr transport, doc *goquery.Document) resultPage[T]

	pageNum int
	current resultPage[T]
	idx     int
	started bool
	done    bool
	err     error
}

func newResults[T any](
	tr transport,
	path string,
	query url.Values,
	parse func(tr transport, doc *goquery.Document) resultPage[T],
) *Results[T] {
	return &Results[T]{tr: tr, path: path, query: query, parse: parse, pageNum: 1}
}

// Next advances to the next result, fetching the next listing page when
// the current one is exhausted. It returns false at the end of the
// result set or on error; check Err afterwards.
func (r *Results[T]) Next(ctx context.Context) bool {
	if r.done || r.err != nil {
		return false
	}
	if !r.started {
		r.started = true
		if !r.fetch(ctx) {
			return false
		}
	}
	r.idx++
	if r.idx < len(r.current.items) {
		return true
	}
	if !r.current.hasNext {
		r.done = true
		return false
	}
	r.pageNum++
	if !r.fetch(ctx) {
		return false
	}
	r.idx = 0
	return len(r.current.items) > 0
}

func (r *Results[T]) fetch(ctx context.Context) bool {
	ctx, span := tracer.Start(ctx, "search:fetchPage")
	defer span.End()

	query := url.Values{}
	for k, v := range r.query {
		query[k] = v
	}
	if r.pageNum > 1 {
		query.Set("page", strconv.Itoa(r.pageNum))
	}

	doc, err := r.tr.getDocument(ctx, r.path, query)
	if err != nil {
		r.err = err
		r.done = true
		return false
	}
	r.current = r.parse(r.tr, doc)
	r.idx = -1
	if len(r.current.items) == 0 {
		r.done = true
		return false
	}
	return true
}

// Current returns the result Next last advanced to.
func (r *Results[T]) Current() T {
	return r.current.items[r.idx]
}

// Total reports the result count the listing advertises, or 0 before
// the first page has been fetched.
func (r *Results[T]) Total() int {
	return r.current.total
}

// Err reports the first page fetch failure, if any. Items yielded
// before the failure remain valid.
func (r *Results[T]) Err() error {
	return r.err
}

var resultTotalRegex = regexp.MustCompile(`(?:of\s+([\d,]+)|^\s*([\d,]+)\s+Found)`)

// resultTotal reads the advertised total out of the listing heading,
// which renders either "1 - 20 of 5,162 Works" or "8 Found".
func resultTotal(doc *goquery.Document) int {
	heading := htmlutil.CleanText(doc.Find("h2.heading, h3.heading").First().Text())
	m := resultTotalRegex.FindStringSubmatch(heading)
	if m == nil {
		return 0
	}
	if m[1] != "" {
		return parseCount(m[1])
	}
	return parseCount(m[2])
}

// hasNextPage checks the pagination strip for an enabled next link.
func hasNextPage(doc *goquery.Document) bool {
	next := doc.Find("ol.pagination li.next").First()
	return next.Find("a").Length() > 0
}

func parseWorkResults(tr transport, doc *goquery.Document) resultPage[*Work] {
	page := resultPage[*Work]{total: resultTotal(doc), hasNext: hasNextPage(doc)}
	token := docToken(doc)
	doc.Find("li.work.blurb.group").Each(func(_ int, blurb *goquery.Selection) {
		work, err := workFromBlurb(tr, blurb, token)
		if err != nil {
			return
		}
		page.items = append(page.items, work)
	})
	return page
}

func parsePeopleResults(tr transport, doc *goquery.Document) resultPage[*User] {
	page := resultPage[*User]{total: resultTotal(doc), hasNext: hasNextPage(doc)}
	doc.Find("li.user.blurb.group").Each(func(_ int, blurb *goquery.Selection) {
		anchors := htmlutil.Anchors(blurb, "h4.heading > a")
		if len(anchors) == 0 {
			return
		}
		page.items = append(page.items, newUser(tr, usernameFromPath(anchors[0].Href)))
	})
	return page
}

func parseBookmarkResults(tr transport, doc *goquery.Document) resultPage[BookmarkResult] {
	page := resultPage[BookmarkResult]{total: resultTotal(doc), hasNext: hasNextPage(doc)}
	token := docToken(doc)
	doc.Find("li.bookmark.blurb.group").Each(func(_ int, blurb *goquery.Selection) {
		work, err := workFromBlurb(tr, blurb, token)
		if err != nil {
			return
		}
		result := BookmarkResult{Work: work}
		if anchors := htmlutil.Anchors(blurb, `div.own.user.module a[href^="/users/"]`); len(anchors) > 0 {
			result.Bookmarker = Object{Name: usernameFromPath(anchors[0].Href), Kind: KindUser}
		}
		page.items = append(page.items, result)
	})
	return page
}

// tag rows render as "Type: Name‎(count)"
var tagRowRegex = regexp.MustCompile(`(.*): (.*)\x{200E}\((\d+)\)`)

func parseTagResults(_ transport, doc *goquery.Document) resultPage[TagResult] {
	page := resultPage[TagResult]{total: resultTotal(doc), hasNext: hasNextPage(doc)}
	doc.Find("ol.tag.index.group > li").Each(func(_ int, row *goquery.Selection) {
		m := tagRowRegex.FindStringSubmatch(row.Text())
		if m == nil {
			return
		}
		page.items = append(page.items, TagResult{
			Type:  strings.TrimSpace(m[1]),
			Name:  strings.TrimSpace(m[2]),
			Count: parseCount(m[3]),
		})
	})
	return page
}
