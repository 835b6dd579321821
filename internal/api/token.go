package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
)

// Token lifetime defaults matching the reference deployment. The upstream
// token is good for 15 minutes; the safety margin keeps a refresh ahead of
// actual expiry so an in-flight request never races it.
const (
	DefaultTokenTTL    = 15 * time.Minute
	DefaultTokenMargin = 3 * time.Minute
)

type tokenResponse struct {
	Access string `json:"access"`
}

// TokenManager owns the bearer credential and its freshness. A credential is
// usable only while its age is below TTL minus margin; it is replaced
// wholesale on refresh and never mutated in place.
//
// TokenManager is not safe for concurrent use: the poll loop serializes all
// access to it.
type TokenManager struct {
	client   *http.Client
	endpoint string
	username string
	password string
	ttl      time.Duration
	margin   time.Duration
	now      func() time.Time

	token      string
	acquiredAt time.Time
}

// NewTokenManager creates a manager that exchanges the given account
// identifiers for bearer tokens at endpoint. Zero ttl/margin fall back to
// the deployment defaults.
func NewTokenManager(client *http.Client, endpoint, username, password string, ttl, margin time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if margin <= 0 {
		margin = DefaultTokenMargin
	}
	return &TokenManager{
		client:   client,
		endpoint: endpoint,
		username: username,
		password: password,
		ttl:      ttl,
		margin:   margin,
		now:      time.Now,
	}
}

// Valid reports whether a credential is held and still inside its safe
// lifetime. No side effects.
func (m *TokenManager) Valid() bool {
	if m.token == "" {
		return false
	}
	return m.now().Sub(m.acquiredAt) < m.ttl-m.margin
}

// Token returns the held bearer token, possibly stale or empty. Callers
// wanting freshness must check Valid first.
func (m *TokenManager) Token() string {
	return m.token
}

// AuthHeader returns the Authorization header value for the held token.
func (m *TokenManager) AuthHeader() string {
	return "Bearer " + m.token
}

// Acquire exchanges the account identifiers for a fresh credential. On any
// failure the previously held credential is left untouched: a still-valid
// old token survives a failed refresh attempt.
func (m *TokenManager) Acquire(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"username": m.username,
		"password": m.password,
	})
	if err != nil {
		return errors.Mark(errors.Wrap(err, "encode token request"), ErrParse)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Mark(errors.Wrap(err, "build token request"), ErrTransport)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "token request"), ErrTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Op: "token", Code: resp.StatusCode}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return errors.Mark(errors.Wrap(err, "decode token response"), ErrParse)
	}
	if tr.Access == "" {
		return errors.Mark(errors.New("token response missing access field"), ErrParse)
	}

	m.token = tr.Access
	m.acquiredAt = m.now()
	return nil
}
