package ao3

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync"
	"time"

	"ao3kit/lib/telemetry"

	"dario.cat/mergo"
	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	random "github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://archiveofourown.org"

type SessionOptions struct {
	// BaseURL points at the archive; overridable for tests.
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// MaxConcurrency caps in-flight requests per the archive's
	// acceptable use policy.
	MaxConcurrency int64
	// RequestInterval is the minimum spacing between request starts.
	RequestInterval time.Duration
	// MaxRetries bounds retry attempts for transient failures.
	MaxRetries uint64
}

func defaultSessionOptions() SessionOptions {
	return SessionOptions{
		BaseURL:         DefaultBaseURL,
		UserAgent:       "ao3kit (fan archive client; respects robots and rate limits)",
		Timeout:         time.Second * 30,
		MaxConcurrency:  5,
		RequestInterval: time.Second,
		MaxRetries:      4,
	}
}

// Session owns the connection context shared by every entity and search
// created from one Client: cookie jar, auth token, politeness limits and
// the retry policy.
type Session struct {
	baseURL    *url.URL
	http       *resty.Client
	limiter    *rate.Limiter
	inflight   *semaphore.Weighted
	maxRetries uint64

	mu        sync.RWMutex
	authToken string
	username  string
}

// formResult is the slice of a POST response the mutation actions care
// about.
type formResult struct {
	StatusCode int
	Body       []byte
	Location   string
}

// transport is what the entity model and search subsystem need from the
// session. Tests substitute a counting stub.
type transport interface {
	getDocument(ctx context.Context, path string, query url.Values) (*goquery.Document, error)
	getBytes(ctx context.Context, path string, query url.Values) ([]byte, error)
	postForm(ctx context.Context, path string, form url.Values, headers map[string]string) (*formResult, error)
	authenticated() bool
	authenticityToken() string
	currentUsername() string
}

func NewSession(opts SessionOptions) (*Session, error) {
	if err := mergo.Merge(&opts, defaultSessionOptions()); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	if baseURL.Scheme == "https" {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	client.SetHeader("user-agent", opts.UserAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseURL.Hostname()))
	client.SetTimeout(opts.Timeout)

	telemetry.InstrumentResty(client, "ao3/http")

	return &Session{
		baseURL:    baseURL,
		http:       client,
		limiter:    rate.NewLimiter(rate.Every(opts.RequestInterval), 1),
		inflight:   semaphore.NewWeighted(opts.MaxConcurrency),
		maxRetries: opts.MaxRetries,
	}, nil
}

// Close releases the connection context.
func (s *Session) Close() {
	s.http.GetClient().CloseIdleConnections()
}

// Authenticated reports whether a login has succeeded on this session.
func (s *Session) Authenticated() bool {
	return s.authenticated()
}

func (s *Session) authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authToken != ""
}

func (s *Session) authenticityToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authToken
}

// Username returns the name the session logged in as, or "".
func (s *Session) Username() string {
	return s.currentUsername()
}

func (s *Session) currentUsername() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// stopRedirectPolicy returns the redirect response itself instead of
// following it or erroring out.
func stopRedirectPolicy() resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	})
}

var retryableStatus = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// do runs one logical request under the concurrency cap, the politeness
// limiter and the retry budget. Transient failures (network errors, 5xx,
// rate limit responses) are retried with exponential backoff; anything
// else is terminal.
func (s *Session) do(ctx context.Context, path string, attempt func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	ctx, span := tracer.Start(ctx, "session:do")
	defer span.End()

	if err := s.inflight.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.inflight.Release(1)

	var res *resty.Response
	op := func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req := s.http.R().SetContext(ctx)
		if token := s.authenticityToken(); token != "" {
			req.SetHeader("authenticity_token", token)
		}

		r, err := attempt(req)
		if err != nil {
			// transport level failure, retryable
			return err
		}
		res = r

		status := r.StatusCode()
		switch {
		case status < 300 || status == http.StatusFound:
			return nil
		case status == http.StatusTooManyRequests:
			slog.Warn("hit the archive's rate limit", "path", path)
			if err := s.sleepRetryAfter(ctx, r); err != nil {
				return backoff.Permanent(err)
			}
			return &HTTPError{StatusCode: status, Path: path}
		case retryableStatus[status]:
			return &HTTPError{StatusCode: status, Path: path}
		default:
			return backoff.Permanent(&HTTPError{StatusCode: status, Path: path})
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}
	return res, nil
}

// sleepRetryAfter honors the Retry-After header on a 429, with a little
// jitter so concurrent callers do not stampede back in unison.
func (s *Session) sleepRetryAfter(ctx context.Context, res *resty.Response) error {
	seconds, err := strconv.Atoi(res.Header().Get("retry-after"))
	if err != nil || seconds < 0 {
		return nil
	}
	jitterMs, err := random.IntRange(100, 1000)
	if err != nil {
		jitterMs = 500
	}
	delay := time.Duration(seconds)*time.Second + time.Duration(jitterMs)*time.Millisecond

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) get(ctx context.Context, path string, query url.Values) (*resty.Response, error) {
	return s.do(ctx, path, func(req *resty.Request) (*resty.Response, error) {
		if query != nil {
			req.SetQueryParamsFromValues(query)
		}
		return req.Get(path)
	})
}

func (s *Session) getBytes(ctx context.Context, path string, query url.Values) ([]byte, error) {
	res, err := s.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return res.Body(), nil
}

func (s *Session) getDocument(ctx context.Context, path string, query url.Values) (*goquery.Document, error) {
	body, err := s.getBytes(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

func (s *Session) postForm(ctx context.Context, path string, form url.Values, headers map[string]string) (*formResult, error) {
	res, err := s.do(ctx, path, func(req *resty.Request) (*resty.Response, error) {
		req.SetHeader("Content-Type", "application/x-www-form-urlencoded")
		for k, v := range headers {
			req.SetHeader(k, v)
		}
		req.SetBody(form.Encode())
		return req.Post(path)
	})
	if err != nil {
		return nil, err
	}

	location := res.Header().Get("location")
	if location == "" {
		location = res.Request.URL
	}
	return &formResult{
		StatusCode: res.StatusCode(),
		Body:       res.Body(),
		Location:   location,
	}, nil
}

// GetDocument fetches a page from the archive and parses its markup.
func (s *Session) GetDocument(ctx context.Context, path string, query url.Values) (*goquery.Document, error) {
	return s.getDocument(ctx, path, query)
}

// GetBytes fetches a raw resource, e.g. a work download.
func (s *Session) GetBytes(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return s.getBytes(ctx, path, query)
}

// Login exchanges credentials for a session cookie and authenticity token.
// Until it succeeds the session operates anonymously and every mutation
// action fails fast.
func (s *Session) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "session:Login")
	defer span.End()

	doc, err := s.getDocument(ctx, "/users/login", nil)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch login page")
		return err
	}

	token := doc.Find("input[name=authenticity_token]").AttrOr("value", "")
	if token == "" {
		span.SetStatus(codes.Error, "failed to find login token")
		return fmt.Errorf("could not find login token")
	}

	// the archive answers a successful login with a redirect; following it
	// off-form would lose the fresh token, so stop at the POST itself
	s.http.SetRedirectPolicy(stopRedirectPolicy())
	res, err := s.postForm(ctx, "/users/login", url.Values{
		"user[login]":        {username},
		"user[password]":     {password},
		"authenticity_token": {token},
	}, nil)
	s.http.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(s.baseURL.Hostname()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post login form")
		return err
	}

	if res.StatusCode != http.StatusFound {
		// the login form came back instead of a redirect
		span.SetStatus(codes.Error, ErrLoginFailed.Error())
		return ErrLoginFailed
	}

	doc, err = s.getDocument(ctx, res.Location, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch post-login page")
		return err
	}
	newToken := doc.Find("meta[name=csrf-token]").AttrOr("content", "")
	if newToken == "" {
		newToken = doc.Find("input[name=authenticity_token]").AttrOr("value", "")
	}
	if newToken == "" {
		span.SetStatus(codes.Error, ErrLoginFailed.Error())
		return ErrLoginFailed
	}

	s.mu.Lock()
	s.authToken = newToken
	s.username = username
	s.mu.Unlock()

	slog.Info("logged in to the archive", "username", username)
	return nil
}

// Logout invalidates the session's credentials on the archive and
// clears the local auth state.
func (s *Session) Logout(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session:Logout")
	defer span.End()

	if !s.authenticated() {
		return nil
	}

	_, err := s.postForm(ctx, "/users/logout", url.Values{
		"_method":            {"delete"},
		"authenticity_token": {s.authenticityToken()},
	}, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to log out")
		return err
	}

	s.mu.Lock()
	s.authToken = ""
	s.username = ""
	s.mu.Unlock()
	return nil
}
