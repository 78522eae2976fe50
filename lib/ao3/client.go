package ao3

import (
	"context"
)

// ClientOptions configures a Client. The zero value works: it talks to
// the public archive anonymously with conservative politeness limits.
type ClientOptions struct {
	Session SessionOptions
}

// Client is the composition root. It owns exactly one Session for its
// lifetime; every entity and search it hands out shares that session,
// so a single login covers all of them.
type Client struct {
	session *Session
}

func NewClient(opts ClientOptions) (*Client, error) {
	session, err := NewSession(opts.Session)
	if err != nil {
		return nil, err
	}
	return &Client{session: session}, nil
}

// Close releases the client's connection context. The client and every
// entity created from it are unusable afterwards.
func (c *Client) Close() {
	c.session.Close()
}

// Session exposes the underlying session for direct page fetches.
func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.session.Login(ctx, username, password)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.session.Logout(ctx)
}

// GetWork returns an unloaded Work bound to the shared session. No
// network call happens until a lazy attribute is first accessed.
func (c *Client) GetWork(id int64) *Work {
	return newWork(c.session, id)
}

// GetWorkFromURL is GetWork for a pasted archive url.
func (c *Client) GetWorkFromURL(rawURL string) (*Work, error) {
	id, err := GetIDFromURL(rawURL)
	if err != nil {
		return nil, err
	}
	return c.GetWork(id), nil
}

// GetSeries returns an unloaded Series bound to the shared session.
func (c *Client) GetSeries(id int64) *Series {
	return newSeries(c.session, id)
}

// GetUser returns an unloaded User bound to the shared session.
func (c *Client) GetUser(username string) *User {
	return newUser(c.session, username)
}

// FetchWork is the eager variant of GetWork: the work page is fetched
// before the entity is returned.
func (c *Client) FetchWork(ctx context.Context, id int64) (*Work, error) {
	work := c.GetWork(id)
	if err := work.Refresh(ctx); err != nil {
		return nil, err
	}
	return work, nil
}

// FetchSeries is the eager variant of GetSeries.
func (c *Client) FetchSeries(ctx context.Context, id int64) (*Series, error) {
	series := c.GetSeries(id)
	if err := series.Refresh(ctx); err != nil {
		return nil, err
	}
	return series, nil
}

// FetchUser is the eager variant of GetUser.
func (c *Client) FetchUser(ctx context.Context, username string) (*User, error) {
	user := c.GetUser(username)
	if err := user.Refresh(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

// SearchWorks runs a work search and streams partial Works page by page.
func (c *Client) SearchWorks(opts WorkSearchOptions) (*Results[*Work], error) {
	query, err := opts.Values()
	if err != nil {
		return nil, err
	}
	return newResults(c.session, "/works/search", query, parseWorkResults), nil
}

// SearchPeople runs a people search. Results are unloaded Users.
func (c *Client) SearchPeople(opts PeopleSearchOptions) (*Results[*User], error) {
	query, err := opts.Values()
	if err != nil {
		return nil, err
	}
	return newResults(c.session, "/people/search", query, parsePeopleResults), nil
}

// SearchBookmarks runs a bookmark search.
func (c *Client) SearchBookmarks(opts BookmarkSearchOptions) (*Results[BookmarkResult], error) {
	query, err := opts.Values()
	if err != nil {
		return nil, err
	}
	return newResults(c.session, "/bookmarks/search", query, parseBookmarkResults), nil
}

// SearchTags runs a tag search.
func (c *Client) SearchTags(opts TagSearchOptions) (*Results[TagResult], error) {
	query, err := opts.Values()
	if err != nil {
		return nil, err
	}
	return newResults(c.session, "/tags/search", query, parseTagResults), nil
}
