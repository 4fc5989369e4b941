package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"birthdaybot/pkg/credential"
)

// TTL matches the lifetime of the token the record-store API issues
// at login. A session older than this must log in again before use.
const TTL = time.Hour

const csrfCookieName = "csrf_access_token"

// Session is one authenticated calling context bound to an identity.
// The privileged variant differs only in login endpoint and in what
// the API lets it do; Admin is a capability flag, not a subtype.
type Session struct {
	Identity  string
	Admin     bool
	CreatedAt time.Time

	client  *http.Client
	baseURL string
	enc     *credential.Encryptor
	csrf    string
}

// New constructs a session and logs it in immediately. A session
// whose construction failed must not be used.
func New(ctx context.Context, identity string, admin bool, baseURL string, enc *credential.Encryptor, timeout time.Duration) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Identity: identity,
		Admin:    admin,
		client:   &http.Client{Jar: jar, Timeout: timeout},
		baseURL:  baseURL,
		enc:      enc,
	}

	if err := s.login(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) IsExpired() bool {
	return time.Since(s.CreatedAt) > TTL
}

// EnsureFresh relogs the session in when it has expired. It is called
// before every outbound request; a fresh session is a no-op.
func (s *Session) EnsureFresh(ctx context.Context) error {
	if !s.IsExpired() {
		return nil
	}
	return s.login(ctx)
}

// login exchanges an encrypted credential for a CSRF token and resets
// the expiry clock. A rejected login is retried exactly once with a
// force-refreshed public key, in case the server rotated its keypair.
func (s *Session) login(ctx context.Context) error {
	status, err := s.loginAttempt(ctx, false)
	if err == nil {
		s.CreatedAt = time.Now()
		return nil
	}
	if status == 0 {
		// No HTTP status means the request itself failed;
		// a fresh key would not change the outcome.
		return err
	}

	if _, err := s.loginAttempt(ctx, true); err != nil {
		return err
	}
	s.CreatedAt = time.Now()
	return nil
}

func (s *Session) loginAttempt(ctx context.Context, forceRefresh bool) (int, error) {
	encrypted, err := s.enc.Credential(ctx, forceRefresh)
	if err != nil {
		return 0, err
	}

	endpoint := s.baseURL + "/login"
	params := url.Values{"encrypted_bot_id": {encrypted}}
	if s.Admin {
		endpoint = s.baseURL + "/admin/login"
	} else {
		params.Set("id", s.Identity)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to login to api: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("failed to login to api: status %d", resp.StatusCode)
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == csrfCookieName {
			s.csrf = cookie.Value
			return resp.StatusCode, nil
		}
	}
	return resp.StatusCode, fmt.Errorf("failed to login to api: no %s cookie", csrfCookieName)
}

// Do issues an authenticated request, relogging in first if the
// session has expired. The CSRF token from the last login rides along
// as a header on every call.
func (s *Session) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	if err := s.EnsureFresh(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-CSRF-TOKEN", s.csrf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return s.client.Do(req)
}
