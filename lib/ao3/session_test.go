package ao3

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ao3kit/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func testSession(t *testing.T, serverURL string) *Session {
	session, err := NewSession(SessionOptions{
		BaseURL:         serverURL,
		RequestInterval: time.Millisecond,
		MaxRetries:      3,
	})
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

func TestSessionRetriesRateLimit(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:ao3")
	defer cleanup()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, "<html><body><h2 class=\"title\">ok</h2></body></html>")
	}))
	defer server.Close()

	session := testSession(t, server.URL)
	doc, err := session.GetDocument(context.Background(), "/works/1", nil)
	require.NoError(t, err)
	require.Equal(t, "ok", doc.Find("h2.title").Text())
	require.Equal(t, int32(3), hits.Load())
}

func TestSessionDoesNotRetryClientErrors(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:ao3")
	defer cleanup()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	session := testSession(t, server.URL)
	_, err := session.GetDocument(context.Background(), "/works/999", nil)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	require.Equal(t, "/works/999", httpErr.Path)
	require.Equal(t, int32(1), hits.Load())
}

func TestSessionExhaustsRetryBudget(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:ao3")
	defer cleanup()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	session, err := NewSession(SessionOptions{
		BaseURL:         server.URL,
		RequestInterval: time.Millisecond,
		MaxRetries:      2,
	})
	require.NoError(t, err)
	defer session.Close()

	_, err = session.GetDocument(context.Background(), "/works/1", nil)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	// initial attempt plus two retries
	require.Equal(t, int32(3), hits.Load())
}

func TestLoginFlow(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:ao3")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><form><input name="authenticity_token" value="form-token"></form></body></html>`)
	})
	mux.HandleFunc("POST /users/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("user[login]") != "alice" || r.PostForm.Get("user[password]") != "hunter2" {
			fmt.Fprint(w, `<html><body>The password or user name you entered doesn't match our records.</body></html>`)
			return
		}
		require.Equal(t, "form-token", r.PostForm.Get("authenticity_token"))
		w.Header().Set("Location", "/users/alice")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("GET /users/alice", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta name="csrf-token" content="session-token"></head><body></body></html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	session := testSession(t, server.URL)
	ctx := context.Background()

	require.False(t, session.Authenticated())

	err := session.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrLoginFailed)
	require.False(t, session.Authenticated())

	require.NoError(t, session.Login(ctx, "alice", "hunter2"))
	require.True(t, session.Authenticated())
	require.Equal(t, "alice", session.Username())
	require.Equal(t, "session-token", session.authenticityToken())
}

func TestLogoutClearsAuthState(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:ao3")
	defer cleanup()

	var loggedOut atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/logout", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "delete", r.PostForm.Get("_method"))
		loggedOut.Store(true)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	session := testSession(t, server.URL)
	session.mu.Lock()
	session.authToken = "session-token"
	session.username = "alice"
	session.mu.Unlock()

	require.NoError(t, session.Logout(context.Background()))
	require.True(t, loggedOut.Load())
	require.False(t, session.Authenticated())
	require.Equal(t, "", session.Username())
}

func TestSessionOptionsDefaults(t *testing.T) {
	session, err := NewSession(SessionOptions{})
	require.NoError(t, err)
	defer session.Close()
	require.Equal(t, DefaultBaseURL, session.baseURL.String())
}
