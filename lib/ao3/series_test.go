package ao3

import (
	"context"
	"testing"
	"time"

	"ao3kit/lib/telemetry"

	"github.com/stretchr/testify/require"
)

var seriesPageHTML = `<html>
<head><meta name="csrf-token" content="token-series"></head>
<body>
<div id="main">
<h2 class="heading">The Example Series</h2>
<dl class="series meta group">
  <dt>Creator:</dt>
  <dd><a rel="author" href="/users/alice/pseuds/alice">alice</a></dd>
  <dt>Series Begun:</dt>
  <dd>2019-05-01</dd>
  <dt>Series Updated:</dt>
  <dd>2021-08-15</dd>
  <dt>Description:</dt>
  <dd><blockquote class="userstuff">Stories about examples.</blockquote></dd>
  <dt>Notes:</dt>
  <dd><blockquote class="userstuff">Updated sporadically.</blockquote></dd>
  <dt>Stats:</dt>
  <dd class="stats"><dl class="stats">
    <dt>Words:</dt><dd>30,000</dd>
    <dt>Works:</dt><dd>2</dd>
    <dt>Complete:</dt><dd>No</dd>
    <dt>Bookmarks:</dt><dd>12</dd>
  </dl></dd>
</dl>
<form data-create-value="Subscribe" action="/users/alice/subscriptions/321"></form>
<ul class="series work index group">
` + workBlurbHTML(21, "Part One") + "\n" + workBlurbHTML(22, "Part Two") + `
</ul>
</div>
</body>
</html>`

func TestSeriesLazyLoad(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:ao3")
	defer cleanup()

	tr := newStubTransport()
	tr.pages["/series/777"] = seriesPageHTML
	series := newSeries(tr, 777)
	ctx := context.Background()

	require.Equal(t, StateUnloaded, series.State())

	name, err := series.Name(ctx)
	require.NoError(t, err)
	require.Equal(t, "The Example Series", name)
	require.Equal(t, 1, tr.fetchCount("/series/777"))

	creators, err := series.Creators(ctx)
	require.NoError(t, err)
	require.Equal(t, []Object{{Name: "alice", Kind: KindUser}}, creators)

	begun, err := series.DateBegun(ctx)
	require.NoError(t, err)
	require.Equal(t, time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC), begun)

	updated, err := series.DateUpdated(ctx)
	require.NoError(t, err)
	require.Equal(t, time.Date(2021, 8, 15, 0, 0, 0, 0, time.UTC), updated)

	description, err := series.Description(ctx)
	require.NoError(t, err)
	require.Equal(t, "Stories about examples.", description)

	notes, err := series.Notes(ctx)
	require.NoError(t, err)
	require.Equal(t, "Updated sporadically.", notes)

	stats, err := series.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, SeriesStats{Words: 30000, Works: 2, Complete: false, Bookmarks: 12}, stats)

	works, err := series.Works(ctx)
	require.NoError(t, err)
	require.Len(t, works, 2)
	require.Equal(t, int64(21), works[0].ID())
	require.Equal(t, int64(22), works[1].ID())
	require.Equal(t, StatePartial, works[0].State())

	// the work stubs inherit the series page's token
	require.Equal(t, "token-series", works[0].pageToken())

	// everything came from the one series fetch
	require.Equal(t, 1, tr.totalFetches())
}

func TestSeriesSubscriptionID(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:ao3")
	defer cleanup()

	tr := newStubTransport()
	tr.auth = true
	tr.token = "csrf"
	tr.username = "alice"
	tr.pages["/series/5"] = seriesPageHTML

	series := newSeries(tr, 5)
	require.NoError(t, series.Unsubscribe(context.Background()))
	post := tr.posts[len(tr.posts)-1]
	require.Equal(t, "/users/alice/subscriptions/321", post.path)
}
