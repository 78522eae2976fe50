package ao3

import (
	"context"
	"fmt"
	"time"

	"ao3kit/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// SeriesStats groups the counters from a series's stats block.
type SeriesStats struct {
	Words     int
	Works     int
	Complete  bool
	Bookmarks int
}

type seriesFields struct {
	name        string
	creators    []Object
	dateBegun   time.Time
	dateUpdated time.Time
	description string
	notes       string
	stats       SeriesStats
	works       []*Work
	subID       int64
	bookmarkID  int64
}

// Series is an ordered collection of works. Its work list holds partial
// Work stubs parsed from the series page, never fully loaded works, so
// reading a series does not cascade into per-work fetches.
type Series struct {
	page[seriesFields]
	id int64
	tr transport
}

func newSeries(tr transport, id int64) *Series {
	s := &Series{id: id, tr: tr}
	s.load = s.fetchPage
	return s
}

func (s *Series) ID() int64 {
	return s.id
}

func (s *Series) URL() string {
	return fmt.Sprintf("%s/series/%d", DefaultBaseURL, s.id)
}

func (s *Series) fetchPage(ctx context.Context) (seriesFields, string, error) {
	ctx, span := tracer.Start(ctx, "series:fetchPage")
	defer span.End()

	doc, err := s.tr.getDocument(ctx, fmt.Sprintf("/series/%d", s.id), nil)
	if err != nil {
		return seriesFields{}, "", err
	}
	return parseSeriesPage(s.tr, doc), docToken(doc), nil
}

func parseSeriesPage(tr transport, doc *goquery.Document) seriesFields {
	meta := doc.Find("dl.series.meta.group")

	f := seriesFields{
		name: htmlutil.FirstText(doc.Selection, "div#main h2.heading"),
	}
	for _, a := range htmlutil.Anchors(meta, `a[rel=author]`) {
		f.creators = append(f.creators, Object{Name: usernameFromPath(a.Href), Kind: KindUser})
	}

	// the meta list renders creators, begun and updated in that order
	dds := meta.Find("dd")
	f.dateBegun = parseISODate(htmlutil.CleanText(dds.Eq(1).Text()))
	f.dateUpdated = parseISODate(htmlutil.CleanText(dds.Eq(2).Text()))

	blockquotes := meta.Find("dd > blockquote.userstuff")
	f.description = htmlutil.CleanText(blockquotes.Eq(0).Text())
	if blockquotes.Length() > 1 {
		f.notes = htmlutil.CleanText(blockquotes.Eq(1).Text())
	}

	stats := meta.Find("dd.stats dl.stats dd")
	f.stats = SeriesStats{
		Words:     parseCount(htmlutil.CleanText(stats.Eq(0).Text())),
		Works:     parseCount(htmlutil.CleanText(stats.Eq(1).Text())),
		Complete:  htmlutil.CleanText(stats.Eq(2).Text()) == "Yes",
		Bookmarks: parseCount(htmlutil.CleanText(stats.Eq(3).Text())),
	}

	token := docToken(doc)
	doc.Find("ul.series.work.index.group > li").Each(func(_ int, blurb *goquery.Selection) {
		work, err := workFromBlurb(tr, blurb, token)
		if err != nil {
			return
		}
		f.works = append(f.works, work)
	})

	f.subID = formActionID(doc, `form[data-create-value="Subscribe"]`)
	f.bookmarkID = formActionID(doc, `div#bookmark-form form[action^="/bookmarks/"]`)
	return f
}

func (s *Series) Name(ctx context.Context) (string, error) {
	var out string
	err := s.access(ctx, StatePartial, "series", func(f *seriesFields) { out = f.name })
	return out, err
}

func (s *Series) Creators(ctx context.Context) ([]Object, error) {
	var out []Object
	err := s.access(ctx, StatePartial, "series", func(f *seriesFields) { out = f.creators })
	return out, err
}

func (s *Series) DateBegun(ctx context.Context) (time.Time, error) {
	var out time.Time
	err := s.access(ctx, StateLoaded, "series", func(f *seriesFields) { out = f.dateBegun })
	return out, err
}

func (s *Series) DateUpdated(ctx context.Context) (time.Time, error) {
	var out time.Time
	err := s.access(ctx, StateLoaded, "series", func(f *seriesFields) { out = f.dateUpdated })
	return out, err
}

func (s *Series) Description(ctx context.Context) (string, error) {
	var out string
	err := s.access(ctx, StateLoaded, "series", func(f *seriesFields) { out = f.description })
	return out, err
}

func (s *Series) Notes(ctx context.Context) (string, error) {
	var out string
	err := s.access(ctx, StateLoaded, "series", func(f *seriesFields) { out = f.notes })
	return out, err
}

func (s *Series) Stats(ctx context.Context) (SeriesStats, error) {
	var out SeriesStats
	err := s.access(ctx, StateLoaded, "series", func(f *seriesFields) { out = f.stats })
	return out, err
}

// Works returns the series's works in order, as partial stubs.
func (s *Series) Works(ctx context.Context) ([]*Work, error) {
	var out []*Work
	err := s.access(ctx, StateLoaded, "series", func(f *seriesFields) { out = f.works })
	return out, err
}
