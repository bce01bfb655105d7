package entsoe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Answers of the login endpoint other than "ok".
var loginRejections = map[string]string{
	"non_exists_user_or_bad_password": "Wrong email or password",
	"not_human":                       "This account is not allowed to access web portal",
	"suspended_use":                   "User is suspended",
}

type Response struct {
	Status int
	Body   string
}

// Session is an authenticated web session with the transparency portal.
// Once logged in it stays authenticated for its lifetime, the portal
// answers an expired session the same way as a throttled one.
// A Session is not safe for concurrent use.
type Session struct {
	logger        *slog.Logger
	baseURL       *url.URL
	credentials   CredentialsSource
	timeout       time.Duration
	client        *http.Client
	authenticated bool
}

func NewSession(baseURL string, timeout time.Duration, credentials CredentialsSource) (*Session, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid portal url %q: %w", baseURL, err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &Session{
		logger:      slog.Default().With("module", "entsoe"),
		baseURL:     u,
		credentials: credentials,
		timeout:     timeout,
	}, nil
}

func (s *Session) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Session) Authenticated() bool {
	return s.authenticated
}

// Ensure logs in unless the session already is authenticated.
func (s *Session) Ensure(ctx context.Context) error {
	if s.authenticated {
		return nil
	}
	return s.Login(ctx)
}

// Login fakes the portal's ajax login to obtain a session cookie.
// It is not retried, a rejected login fails the call in progress.
func (s *Session) Login(ctx context.Context) error {
	creds, err := s.credentials()
	if err != nil {
		return err
	}

	if s.client == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return fmt.Errorf("failed to create cookie jar: %w", err)
		}
		s.client = &http.Client{Jar: jar, Timeout: s.timeout}
	}

	params := url.Values{}
	params.Set("username", creds.Username)
	params.Set("password", creds.Password)
	params.Set("url", "/dashboard/show")

	u := s.endpoint("login", params)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("X-Ajax-call", "true")

	s.logger.Debug("logging in to transparency portal", slog.String("user", creds.Username))
	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read login response: %w", err)
	}

	msg := strings.TrimSpace(string(body))
	if msg == "ok" {
		s.authenticated = true
		s.logger.Info("logged in to transparency portal")
		return nil
	}
	if reason, ok := loginRejections[msg]; ok {
		return &AuthenticationError{Reason: reason, Raw: msg}
	}
	return &AuthenticationError{Reason: "Unknown error: " + msg, Raw: msg}
}

// Get performs an authenticated GET of an endpoint relative to the portal.
// Non 2xx answers are not errors, the caller decides what they mean.
func (s *Session) Get(ctx context.Context, endpoint string, params url.Values) (Response, error) {
	if err := s.Ensure(ctx); err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(endpoint, params), nil)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response: %w", err)
	}

	return Response{Status: res.StatusCode, Body: string(body)}, nil
}

// Close drops the session, the next request logs in again.
func (s *Session) Close() {
	if s.client != nil {
		s.client.CloseIdleConnections()
	}
	s.client = nil
	s.authenticated = false
}

func (s *Session) endpoint(path string, params url.Values) string {
	u := s.baseURL.JoinPath(path)
	u.RawQuery = params.Encode()
	return u.String()
}
