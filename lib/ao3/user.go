package ao3

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"ao3kit/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var actionCountRegex = regexp.MustCompile(`\((\d+)\)`)

// UserCounts groups the totals from a profile's navigation actions.
type UserCounts struct {
	Works       int
	Series      int
	Bookmarks   int
	Collections int
	Gifts       int
}

type userFields struct {
	id         int64
	avatarURL  string
	pseuds     []string
	dateJoined time.Time
	bio        string
	counts     UserCounts
	subID      int64
}

// User is an archive account, keyed by username rather than numeric id.
type User struct {
	page[userFields]
	username string
	tr       transport
}

func newUser(tr transport, username string) *User {
	u := &User{username: username, tr: tr}
	u.load = u.fetchPage
	return u
}

func (u *User) Username() string {
	return u.username
}

func (u *User) URL() string {
	return fmt.Sprintf("%s/users/%s", DefaultBaseURL, u.username)
}

func (u *User) fetchPage(ctx context.Context) (userFields, string, error) {
	ctx, span := tracer.Start(ctx, "user:fetchPage")
	defer span.End()

	doc, err := u.tr.getDocument(ctx, fmt.Sprintf("/users/%s/profile", u.username), nil)
	if err != nil {
		return userFields{}, "", err
	}
	return parseUserPage(doc), docToken(doc), nil
}

func parseUserPage(doc *goquery.Document) userFields {
	f := userFields{
		avatarURL: doc.Find("img.icon").First().AttrOr("src", ""),
		bio:       htmlutil.FirstText(doc.Selection, "div.bio.module > blockquote.userstuff"),
	}

	// the profile meta list renders pseuds, join date and numeric id in
	// that order
	meta := doc.Find("dl.meta dd")
	f.dateJoined = parseISODate(htmlutil.CleanText(meta.Eq(1).Text()))
	f.id, _ = strconv.ParseInt(htmlutil.CleanText(meta.Eq(2).Text()), 10, 64)
	f.pseuds = htmlutil.TextList(doc.Selection, "dl.meta > dd.pseuds > a")

	f.counts = UserCounts{
		Works:       actionCount(doc, "works"),
		Series:      actionCount(doc, "series"),
		Bookmarks:   actionCount(doc, "bookmarks"),
		Collections: actionCount(doc, "collections"),
		Gifts:       actionCount(doc, "gifts"),
	}

	f.subID = formActionID(doc, "div.primary.header.module form[action]")
	return f
}

// actionCount pulls the total out of a navigation entry like "Works (42)".
func actionCount(doc *goquery.Document, suffix string) int {
	text := doc.Find(fmt.Sprintf(`ul.navigation.actions > li > a[href$="%s"]`, suffix)).First().Text()
	m := actionCountRegex.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func (u *User) ID(ctx context.Context) (int64, error) {
	var out int64
	err := u.access(ctx, StateLoaded, "user", func(f *userFields) { out = f.id })
	return out, err
}

func (u *User) AvatarURL(ctx context.Context) (string, error) {
	var out string
	err := u.access(ctx, StateLoaded, "user", func(f *userFields) { out = f.avatarURL })
	return out, err
}

func (u *User) Pseuds(ctx context.Context) ([]string, error) {
	var out []string
	err := u.access(ctx, StateLoaded, "user", func(f *userFields) { out = f.pseuds })
	return out, err
}

func (u *User) DateJoined(ctx context.Context) (time.Time, error) {
	var out time.Time
	err := u.access(ctx, StateLoaded, "user", func(f *userFields) { out = f.dateJoined })
	return out, err
}

func (u *User) Bio(ctx context.Context) (string, error) {
	var out string
	err := u.access(ctx, StateLoaded, "user", func(f *userFields) { out = f.bio })
	return out, err
}

func (u *User) Counts(ctx context.Context) (UserCounts, error) {
	var out UserCounts
	err := u.access(ctx, StateLoaded, "user", func(f *userFields) { out = f.counts })
	return out, err
}

// Works lists one page of the user's posted works as partial stubs.
// Pages are 1-based.
func (u *User) Works(ctx context.Context, pageNum int) ([]*Work, error) {
	return u.listWorks(ctx, fmt.Sprintf("/users/%s/works", u.username), pageNum)
}

// Bookmarks lists one page of the user's bookmarked works as partial
// stubs. Pages are 1-based.
func (u *User) Bookmarks(ctx context.Context, pageNum int) ([]*Work, error) {
	return u.listWorks(ctx, fmt.Sprintf("/users/%s/bookmarks", u.username), pageNum)
}

func (u *User) listWorks(ctx context.Context, path string, pageNum int) ([]*Work, error) {
	ctx, span := tracer.Start(ctx, "user:listWorks")
	defer span.End()

	query := pageQuery(pageNum)
	doc, err := u.tr.getDocument(ctx, path, query)
	if err != nil {
		return nil, err
	}

	token := docToken(doc)
	var works []*Work
	doc.Find("li.work.blurb.group").Each(func(_ int, blurb *goquery.Selection) {
		work, err := workFromBlurb(u.tr, blurb, token)
		if err != nil {
			return
		}
		works = append(works, work)
	})
	return works, nil
}
