package ao3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Mutation actions. Every action fails fast with ReasonNotAuthenticated
// on an anonymous session, issuing no request at all. Server side
// rejections are classified so callers can tell a retryable network
// failure from an action that already happened or was refused.

// BookmarkOptions configures a bookmark creation. The zero value makes
// a plain public bookmark.
type BookmarkOptions struct {
	Notes       string
	Tags        []string
	Collections []string
	Private     bool
	Recommend   bool
	PseudID     string
}

func xhrHeaders(token string) map[string]string {
	return map[string]string{
		"X-CSRF-Token":     token,
		"X-Requested-With": "XMLHttpRequest",
	}
}

// actionReason maps a failed POST to the reason callers branch on. The
// archive answers a repeated action with 422, other client errors mean
// the request itself was refused.
func actionReason(err error) ActionReason {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusUnprocessableEntity:
			return ReasonAlreadyDone
		case httpErr.StatusCode >= 400 && httpErr.StatusCode < 500:
			return ReasonRejected
		}
	}
	return ReasonNetwork
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// GiveKudos leaves kudos on the work.
func (w *Work) GiveKudos(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "work:GiveKudos")
	defer span.End()

	if !w.tr.authenticated() {
		return newKudoError(ReasonNotAuthenticated, nil)
	}

	token := w.tr.authenticityToken()
	headers := xhrHeaders(token)
	headers["Referer"] = w.URL()

	_, err := w.tr.postForm(ctx, "/kudos.js", url.Values{
		"authenticity_token":     {token},
		"kudo[commentable_id]":   {strconv.FormatInt(w.id, 10)},
		"kudo[commentable_type]": {"Work"},
	}, headers)
	if err != nil {
		return newKudoError(actionReason(err), err)
	}
	return nil
}

// Comment posts a comment on the work as a whole.
func (w *Work) Comment(ctx context.Context, text string) error {
	ctx, span := tracer.Start(ctx, "work:Comment")
	defer span.End()

	if !w.tr.authenticated() {
		return newCommentError(ReasonNotAuthenticated, nil)
	}
	if strings.TrimSpace(text) == "" {
		return newCommentError(ReasonRejected, errors.New("comment text is empty"))
	}

	token := w.tr.authenticityToken()
	res, err := w.tr.postForm(ctx, "/comments.js", url.Values{
		"authenticity_token":       {token},
		"work_id":                  {strconv.FormatInt(w.id, 10)},
		"comment[comment_content]": {text},
	}, xhrHeaders(token))
	if err != nil {
		reason := actionReason(err)
		if reason == ReasonAlreadyDone {
			return newCommentError(reason, ErrDuplicateComment)
		}
		return newCommentError(reason, err)
	}
	if strings.Contains(string(res.Body), "has already been left") {
		return newCommentError(ReasonAlreadyDone, ErrDuplicateComment)
	}
	return nil
}

// Bookmark creates a bookmark for the work.
func (w *Work) Bookmark(ctx context.Context, opts BookmarkOptions) error {
	return bookmark(ctx, w.tr, fmt.Sprintf("/works/%d/bookmarks", w.id), opts)
}

// DeleteBookmark removes the session user's bookmark of the work. The
// work page must have been loaded while logged in so the bookmark id is
// known.
func (w *Work) DeleteBookmark(ctx context.Context) error {
	var bookmarkID int64
	if err := w.access(ctx, StateLoaded, "work", func(f *workFields) { bookmarkID = f.bookmarkID }); err != nil {
		return newBookmarkError(ReasonNetwork, err)
	}
	return deleteBookmark(ctx, w.tr, bookmarkID)
}

// Subscribe subscribes the session user to the work.
func (w *Work) Subscribe(ctx context.Context) error {
	return subscribe(ctx, w.tr, w.id, "Work")
}

// Unsubscribe removes the session user's subscription to the work.
func (w *Work) Unsubscribe(ctx context.Context) error {
	var subID int64
	if err := w.access(ctx, StateLoaded, "work", func(f *workFields) { subID = f.subID }); err != nil {
		return newSubscribeError(ReasonNetwork, err)
	}
	return unsubscribe(ctx, w.tr, subID, w.id, "Work")
}

// Collect invites the work to a collection the session user maintains.
func (w *Work) Collect(ctx context.Context, collection string) error {
	ctx, span := tracer.Start(ctx, "work:Collect")
	defer span.End()

	if !w.tr.authenticated() {
		return newCollectError(ReasonNotAuthenticated, nil)
	}
	if collection == "" {
		return newCollectError(ReasonRejected, errors.New("collection name is empty"))
	}

	token := w.tr.authenticityToken()
	_, err := w.tr.postForm(ctx, fmt.Sprintf("/works/%d/collection_items", w.id), url.Values{
		"authenticity_token": {token},
		"collection_names":   {collection},
	}, xhrHeaders(token))
	if err != nil {
		return newCollectError(actionReason(err), err)
	}
	return nil
}

// Bookmark creates a bookmark for the series.
func (s *Series) Bookmark(ctx context.Context, opts BookmarkOptions) error {
	return bookmark(ctx, s.tr, fmt.Sprintf("/series/%d/bookmarks", s.id), opts)
}

// DeleteBookmark removes the session user's bookmark of the series.
func (s *Series) DeleteBookmark(ctx context.Context) error {
	var bookmarkID int64
	if err := s.access(ctx, StateLoaded, "series", func(f *seriesFields) { bookmarkID = f.bookmarkID }); err != nil {
		return newBookmarkError(ReasonNetwork, err)
	}
	return deleteBookmark(ctx, s.tr, bookmarkID)
}

// Subscribe subscribes the session user to the series.
func (s *Series) Subscribe(ctx context.Context) error {
	return subscribe(ctx, s.tr, s.id, "Series")
}

// Unsubscribe removes the session user's subscription to the series.
func (s *Series) Unsubscribe(ctx context.Context) error {
	var subID int64
	if err := s.access(ctx, StateLoaded, "series", func(f *seriesFields) { subID = f.subID }); err != nil {
		return newSubscribeError(ReasonNetwork, err)
	}
	return unsubscribe(ctx, s.tr, subID, s.id, "Series")
}

// Subscribe subscribes the session user to the user's works.
func (u *User) Subscribe(ctx context.Context) error {
	id, err := u.ID(ctx)
	if err != nil {
		return newSubscribeError(ReasonNetwork, err)
	}
	return subscribe(ctx, u.tr, id, "User")
}

// Unsubscribe removes the session user's subscription to the user.
func (u *User) Unsubscribe(ctx context.Context) error {
	if !u.tr.authenticated() {
		return newSubscribeError(ReasonNotAuthenticated, nil)
	}
	var subID int64
	var id int64
	err := u.access(ctx, StateLoaded, "user", func(f *userFields) {
		subID = f.subID
		id = f.id
	})
	if err != nil {
		return newSubscribeError(ReasonNetwork, err)
	}
	return unsubscribe(ctx, u.tr, subID, id, "User")
}

func bookmark(ctx context.Context, tr transport, path string, opts BookmarkOptions) error {
	ctx, span := tracer.Start(ctx, "action:bookmark")
	defer span.End()

	if !tr.authenticated() {
		return newBookmarkError(ReasonNotAuthenticated, nil)
	}

	token := tr.authenticityToken()
	form := url.Values{
		"authenticity_token":         {token},
		"bookmark[pseud_id]":         {opts.PseudID},
		"bookmark[tag_string]":       {strings.Join(opts.Tags, ",")},
		"bookmark[collection_names]": {strings.Join(opts.Collections, ",")},
		"bookmark[private]":          {boolFlag(opts.Private)},
		"bookmark[rec]":              {boolFlag(opts.Recommend)},
	}
	if opts.Notes != "" {
		form.Set("bookmark[bookmarker_notes]", opts.Notes)
	}

	if _, err := tr.postForm(ctx, path, form, nil); err != nil {
		return newBookmarkError(actionReason(err), err)
	}
	return nil
}

func deleteBookmark(ctx context.Context, tr transport, bookmarkID int64) error {
	ctx, span := tracer.Start(ctx, "action:deleteBookmark")
	defer span.End()

	if !tr.authenticated() {
		return newBookmarkError(ReasonNotAuthenticated, nil)
	}
	if bookmarkID == 0 {
		// no bookmark id on the page means nothing to delete
		return newBookmarkError(ReasonAlreadyDone, nil)
	}

	_, err := tr.postForm(ctx, fmt.Sprintf("/bookmarks/%d", bookmarkID), url.Values{
		"authenticity_token": {tr.authenticityToken()},
		"_method":            {"delete"},
	}, nil)
	if err != nil {
		return newBookmarkError(actionReason(err), err)
	}
	return nil
}

func subscribe(ctx context.Context, tr transport, subableID int64, subableType string) error {
	ctx, span := tracer.Start(ctx, "action:subscribe")
	defer span.End()

	if !tr.authenticated() {
		return newSubscribeError(ReasonNotAuthenticated, nil)
	}

	path := fmt.Sprintf("/users/%s/subscriptions", tr.currentUsername())
	_, err := tr.postForm(ctx, path, url.Values{
		"authenticity_token":              {tr.authenticityToken()},
		"subscription[subscribable_id]":   {strconv.FormatInt(subableID, 10)},
		"subscription[subscribable_type]": {subableType},
	}, nil)
	if err != nil {
		return newSubscribeError(actionReason(err), err)
	}
	return nil
}

func unsubscribe(ctx context.Context, tr transport, subID, subableID int64, subableType string) error {
	ctx, span := tracer.Start(ctx, "action:unsubscribe")
	defer span.End()

	if !tr.authenticated() {
		return newSubscribeError(ReasonNotAuthenticated, nil)
	}
	if subID == 0 {
		// the page carries a subscription id only while subscribed
		return newSubscribeError(ReasonAlreadyDone, nil)
	}

	path := fmt.Sprintf("/users/%s/subscriptions/%d", tr.currentUsername(), subID)
	_, err := tr.postForm(ctx, path, url.Values{
		"authenticity_token":              {tr.authenticityToken()},
		"subscription[subscribable_id]":   {strconv.FormatInt(subableID, 10)},
		"subscription[subscribable_type]": {subableType},
		"_method":                         {"delete"},
	}, nil)
	if err != nil {
		return newSubscribeError(actionReason(err), err)
	}
	return nil
}
