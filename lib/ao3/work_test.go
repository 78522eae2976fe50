package ao3

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ao3kit/lib/ao3/enums"
	"ao3kit/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const workPageHTML = `<html>
<head><meta name="csrf-token" content="token-work-1"></head>
<body>
<div class="preface group">
  <h2 class="title">The Example Work</h2>
  <a rel="author" href="/users/alice/pseuds/alice">alice</a>
  <div class="summary"><blockquote class="userstuff">A short summary.</blockquote></div>
</div>
<ul class="work navigation actions">
  <li class="subscribe"><form action="/users/alice/subscriptions/555"></form></li>
</ul>
<dl class="work meta group">
  <dd class="rating tags"><ul><li>Teen And Up Audiences</li></ul></dd>
  <dd class="warning tags"><ul><li>No Archive Warnings Apply</li></ul></dd>
  <dd class="category tags"><ul><li>F/M</li></ul></dd>
  <dd class="fandom tags"><ul><li>Example Fandom</li></ul></dd>
  <dd class="relationship tags"><ul><li>Alice/Bob</li></ul></dd>
  <dd class="character tags"><ul><li>Alice</li><li>Bob</li></ul></dd>
  <dd class="freeform tags"><ul><li>Fluff</li></ul></dd>
  <dd class="language">English</dd>
  <dd class="series"><span class="position"><a href="/series/777">Part 2 of the example series</a></span></dd>
  <dl class="stats">
    <dd class="words">12,345</dd>
    <dd class="published">2020-01-02</dd>
    <dd class="status">2021-03-04</dd>
    <dd class="chapters">2/3</dd>
    <dd class="comments">10</dd>
    <dd class="kudos">2,000</dd>
    <dd class="bookmarks">30</dd>
    <dd class="hits">40,000</dd>
  </dl>
</dl>
<ul id="chapter_index">
  <select>
    <option value="100">1. One</option>
    <option value="101">2. Two</option>
  </select>
</ul>
</body>
</html>`

func TestWorkLazyLoad(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:ao3")
	defer cleanup()

	tr := newStubTransport()
	tr.pages["/works/1"] = workPageHTML
	work := newWork(tr, 1)
	ctx := context.Background()

	require.Equal(t, StateUnloaded, work.State())
	require.Equal(t, 0, tr.totalFetches())

	title, err := work.Title(ctx)
	require.NoError(t, err)
	require.Equal(t, "The Example Work", title)
	require.Equal(t, StateLoaded, work.State())
	require.Equal(t, 1, tr.fetchCount("/works/1"))

	// every other attribute is served from the one load
	summary, err := work.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, "A short summary.", summary)

	authors, err := work.Authors(ctx)
	require.NoError(t, err)
	require.Equal(t, []Object{{Name: "alice", Kind: KindUser}}, authors)

	rating, ratingName, err := work.Rating(ctx)
	require.NoError(t, err)
	require.Equal(t, enums.RatingTeenAndUp, rating)
	require.Equal(t, "Teen And Up Audiences", ratingName)

	language, err := work.Language(ctx)
	require.NoError(t, err)
	require.Equal(t, enums.Language("en"), language)

	published, err := work.DatePublished(ctx)
	require.NoError(t, err)
	require.Equal(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), published)

	words, err := work.WordCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 12345, words)

	current, expected, err := work.ChapterCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, current)
	require.Equal(t, 3, expected)

	complete, err := work.IsComplete(ctx)
	require.NoError(t, err)
	require.False(t, complete)

	stats, err := work.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, WorkStats{Comments: 10, Kudos: 2000, Bookmarks: 30, Hits: 40000}, stats)

	series, err := work.Series(ctx)
	require.NoError(t, err)
	require.Equal(t, []Object{{ID: 777, Kind: KindSeries}}, series)

	chapters, err := work.Chapters(ctx)
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	require.Equal(t, int64(100), chapters[0].ID())
	require.Equal(t, 1, chapters[0].Number())

	chapterTitle, err := chapters[1].Title(ctx)
	require.NoError(t, err)
	require.Equal(t, "Two", chapterTitle)

	require.Equal(t, 1, tr.fetchCount("/works/1"))
	require.Equal(t, "token-work-1", work.pageToken())
}

func TestWorkFailedLoadIsRetryable(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:ao3")
	defer cleanup()

	tr := newStubTransport()
	tr.failing["/works/2"] = &HTTPError{StatusCode: 503, Path: "/works/2"}
	work := newWork(tr, 2)
	ctx := context.Background()

	_, err := work.Title(ctx)
	var unloaded *UnloadedError
	require.ErrorAs(t, err, &unloaded)
	require.Equal(t, "work", unloaded.Entity)
	require.Equal(t, StateUnloaded, work.State())

	// the failure clears, the next access succeeds
	delete(tr.failing, "/works/2")
	tr.pages["/works/2"] = workPageHTML

	title, err := work.Title(ctx)
	require.NoError(t, err)
	require.Equal(t, "The Example Work", title)
	require.Equal(t, StateLoaded, work.State())
}

func TestWorkConcurrentAccessLoadsOnce(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:ao3")
	defer cleanup()

	tr := newStubTransport()
	tr.pages["/works/3"] = workPageHTML
	work := newWork(tr, 3)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := work.Title(ctx)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, tr.fetchCount("/works/3"))
}

func TestWorkRefresh(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:ao3")
	defer cleanup()

	tr := newStubTransport()
	tr.pages["/works/4"] = workPageHTML
	work := newWork(tr, 4)
	ctx := context.Background()

	_, err := work.Title(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, tr.fetchCount("/works/4"))

	require.NoError(t, work.Refresh(ctx))
	require.Equal(t, 2, tr.fetchCount("/works/4"))

	// a failed refresh keeps the previously loaded fields
	tr.failing["/works/4"] = &HTTPError{StatusCode: 500, Path: "/works/4"}
	require.Error(t, work.Refresh(ctx))
	title, err := work.Title(ctx)
	require.NoError(t, err)
	require.Equal(t, "The Example Work", title)
}

func TestWorkDownload(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:ao3")
	defer cleanup()

	tr := newStubTransport()
	tr.pages["/works/5"] = workPageHTML
	tr.pages["/downloads/5/The%20Example%20Work.epub"] = "epub bytes"
	work := newWork(tr, 5)

	body, err := work.Download(context.Background(), FormatEPUB)
	require.NoError(t, err)
	require.Equal(t, []byte("epub bytes"), body)

	_, err = work.Download(context.Background(), FormatPDF)
	var dlErr *DownloadError
	require.ErrorAs(t, err, &dlErr)
	require.Equal(t, FormatPDF, dlErr.Format)
}

func TestGetIDFromURL(t *testing.T) {
	testCases := []struct {
		url      string
		expected int64
		err      error
	}{
		{url: "https://archiveofourown.org/works/48637876", expected: 48637876},
		{url: "http://www.archiveofourown.org/works/123/chapters/456", expected: 123},
		{url: "archiveofourown.org/series/98765", expected: 98765},
		{url: "https://example.com/works/123", err: ErrInvalidURL},
		{url: "not a url", err: ErrInvalidURL},
	}

	for _, test := range testCases {
		id, err := GetIDFromURL(test.url)
		if test.err != nil {
			require.ErrorIs(t, err, test.err, test.url)
			continue
		}
		require.NoError(t, err, test.url)
		require.Equal(t, test.expected, id, test.url)
	}
}

func TestDownloadErrorUnwrap(t *testing.T) {
	cause := &HTTPError{StatusCode: 404, Path: "/downloads/1/x.epub"}
	err := &DownloadError{WorkID: 1, Format: FormatEPUB, Cause: cause}
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, 404, httpErr.StatusCode)
}
