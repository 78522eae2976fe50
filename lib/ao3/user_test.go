package ao3

import (
	"context"
	"testing"
	"time"

	"ao3kit/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const userPageHTML = `<html>
<head><meta name="csrf-token" content="token-user"></head>
<body>
<div class="primary header module">
  <img class="icon" src="https://example.test/avatar.png" alt="alice">
  <form action="/users/bob/subscriptions/888"></form>
</div>
<ul class="navigation actions">
  <li><a href="/users/alice/works">Works (12)</a></li>
  <li><a href="/users/alice/series">Series (3)</a></li>
  <li><a href="/users/alice/bookmarks">Bookmarks (45)</a></li>
  <li><a href="/users/alice/collections">Collections (1)</a></li>
  <li><a href="/users/alice/gifts">Gifts (2)</a></li>
</ul>
<dl class="meta">
  <dt class="pseuds">My pseuds:</dt>
  <dd class="pseuds"><a href="/users/alice/pseuds/alice">alice</a><a href="/users/alice/pseuds/ali">ali</a></dd>
  <dt>I joined on:</dt>
  <dd>2015-02-20</dd>
  <dt>My user ID is:</dt>
  <dd>424242</dd>
</dl>
<div class="bio module"><blockquote class="userstuff">I write example fiction.</blockquote></div>
</body>
</html>`

func TestUserLazyLoad(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:ao3")
	defer cleanup()

	tr := newStubTransport()
	tr.pages["/users/alice/profile"] = userPageHTML
	user := newUser(tr, "alice")
	ctx := context.Background()

	require.Equal(t, "alice", user.Username())
	require.Equal(t, StateUnloaded, user.State())
	require.Equal(t, 0, tr.totalFetches())

	id, err := user.ID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(424242), id)
	require.Equal(t, 1, tr.fetchCount("/users/alice/profile"))

	avatar, err := user.AvatarURL(ctx)
	require.NoError(t, err)
	require.Equal(t, "https://example.test/avatar.png", avatar)

	pseuds, err := user.Pseuds(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "ali"}, pseuds)

	joined, err := user.DateJoined(ctx)
	require.NoError(t, err)
	require.Equal(t, time.Date(2015, 2, 20, 0, 0, 0, 0, time.UTC), joined)

	bio, err := user.Bio(ctx)
	require.NoError(t, err)
	require.Equal(t, "I write example fiction.", bio)

	counts, err := user.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, UserCounts{Works: 12, Series: 3, Bookmarks: 45, Collections: 1, Gifts: 2}, counts)

	require.Equal(t, 1, tr.totalFetches())
}

func TestUserWorksListing(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:ao3")
	defer cleanup()

	tr := newStubTransport()
	tr.pages["/users/alice/works"] = searchPageHTML(3, true,
		workBlurbHTML(1, "One"), workBlurbHTML(2, "Two"))
	tr.pages["/users/alice/works?page=2"] = searchPageHTML(3, false,
		workBlurbHTML(3, "Three"))

	user := newUser(tr, "alice")
	ctx := context.Background()

	works, err := user.Works(ctx, 1)
	require.NoError(t, err)
	require.Len(t, works, 2)
	require.Equal(t, int64(1), works[0].ID())
	require.Equal(t, StatePartial, works[0].State())

	works, err = user.Works(ctx, 2)
	require.NoError(t, err)
	require.Len(t, works, 1)
	require.Equal(t, int64(3), works[0].ID())

	// listing pages never load the user profile itself
	require.Equal(t, 0, tr.fetchCount("/users/alice/profile"))
}

func TestUserBookmarksListing(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:ao3")
	defer cleanup()

	tr := newStubTransport()
	tr.pages["/users/alice/bookmarks"] = searchPageHTML(1, false, workBlurbHTML(8, "Kept"))

	user := newUser(tr, "alice")
	bookmarks, err := user.Bookmarks(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	require.Equal(t, int64(8), bookmarks[0].ID())
}
