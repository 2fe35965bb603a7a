// Package auth manages the OAuth user token the EventSub client acts with:
// validation, single-flight refresh, periodic re-validation, persistence
// and the device code login used to obtain a first token.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Sentinel errors. ErrNoRefreshToken and ErrRefreshRevoked are permanent:
// retrying cannot succeed without new credentials.
var (
	ErrNotAuthorized  = errors.New("auth: token not authorized")
	ErrParse          = errors.New("auth: unexpected response body")
	ErrNoRefreshToken = errors.New("auth: no refresh token")
	ErrRefreshRevoked = errors.New("auth: refresh token rejected")
	ErrNoStoredToken  = errors.New("auth: no stored token")
)

// TransportError is a failed exchange with the OAuth endpoints: the request
// never completed, or the server answered with an unexpected status.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("auth: %s: HTTP %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("auth: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Permanent reports whether err means the manager can no longer obtain a
// usable token on its own.
func Permanent(err error) bool {
	return errors.Is(err, ErrNoRefreshToken) || errors.Is(err, ErrRefreshRevoked)
}

// Scopes is a sorted, duplicate-free set of OAuth scopes.
type Scopes []string

// NewScopes builds a set from list.
func NewScopes(list ...string) Scopes {
	s := slices.Clone(list)
	slices.Sort(s)
	return slices.Compact(s)
}

// Has reports whether scope is in the set.
func (s Scopes) Has(scope string) bool {
	_, ok := slices.BinarySearch(s, scope)
	return ok
}

// Token is an immutable snapshot of the managed credentials.
type Token struct {
	AccessToken  string
	RefreshToken string
	ClientID     string
	// ExpiresAt is zero for tokens that do not expire.
	ExpiresAt time.Time
	Scopes    Scopes
	Login     string
	UserID    string
}

// ExpiresWithin reports whether t expires before now+d.
func (t Token) ExpiresWithin(now time.Time, d time.Duration) bool {
	return !t.ExpiresAt.IsZero() && !now.Add(d).Before(t.ExpiresAt)
}

func (t Token) clone() Token {
	t.Scopes = slices.Clone(t.Scopes)
	return t
}

// ValidatedToken is what the validate endpoint reports about a token.
type ValidatedToken struct {
	ClientID  string
	Login     string
	UserID    string
	Scopes    Scopes
	ExpiresIn time.Duration
}

// Credentials seed a Manager.
type Credentials struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
}

// tokenResponse is the body of a successful token endpoint call.
type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	ExpiresIn    int      `json:"expires_in"`
	RefreshToken string   `json:"refresh_token"`
	Scope        []string `json:"scope"`
	TokenType    string   `json:"token_type"`
}

// tokenErrorResponse is the body of a rejected token endpoint call.
type tokenErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}
