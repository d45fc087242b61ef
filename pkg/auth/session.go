// Package auth owns the bearer session every backend call runs under.
//
// Session.Do attaches the access token and applies the session policy:
//
//	401 → one POST {main}/auth/refresh-token, then a single retry with the
//	      new token; if the refresh fails the tokens are cleared and the
//	      navigator is sent to /login.
//	403 → tokens cleared, navigator sent to /login.
//
// Concurrent 401s share one refresh call.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/shashiranjanraj/shopdesk/pkg/envelope"
	shttp "github.com/shashiranjanraj/shopdesk/pkg/http"
	"github.com/shashiranjanraj/shopdesk/pkg/logger"
	"github.com/shashiranjanraj/shopdesk/pkg/metrics"
)

var (
	// ErrSessionExpired means a 401 could not be recovered by a refresh.
	ErrSessionExpired = errors.New("auth: session expired")
	// ErrForbidden means the backend answered 403.
	ErrForbidden = errors.New("auth: forbidden")
)

// LoginPath is where the navigator is sent when the session ends.
const LoginPath = "/login"

// Navigator is told where the user must go next.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// RecordingNavigator remembers the last path it was sent to.
type RecordingNavigator struct {
	mu   sync.Mutex
	last string
}

func (r *RecordingNavigator) Navigate(path string) {
	r.mu.Lock()
	r.last = path
	r.mu.Unlock()
}

// Last returns the most recent path, or "".
func (r *RecordingNavigator) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Session sends requests with the stored bearer token.
type Session struct {
	// Main is the auth backend (login, logout, refresh-token).
	Main   *shttp.Client
	Tokens TokenStore
	Nav    Navigator

	refreshes singleflight.Group
}

// NewSession creates a session against the main backend.
func NewSession(main *shttp.Client, tokens TokenStore, nav Navigator) *Session {
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}
	return &Session{Main: main, Tokens: tokens, Nav: nav}
}

// Do sends the request built by build and decodes its envelope. build is
// called once per attempt.
func (s *Session) Do(ctx context.Context, build func() *shttp.Request) (*envelope.Result, error) {
	tokens, err := s.Tokens.Load(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.send(ctx, build, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		access, rerr := s.refresh(ctx, tokens.AccessToken)
		if ctx.Err() != nil {
			return nil, envelope.Transport(ctx.Err())
		}
		if rerr != nil {
			logger.WithCtx(ctx).Warn("auth: refresh failed, ending session", "error", rerr)
			s.end(ctx)
			return nil, fmt.Errorf("%w: %w", ErrSessionExpired, rerr)
		}
		if resp, err = s.send(ctx, build, access); err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			s.end(ctx)
			return nil, ErrSessionExpired
		}
	}

	res, err := envelope.Decode(resp.StatusCode, resp.Raw)
	if resp.StatusCode == http.StatusForbidden {
		s.end(ctx)
		return nil, fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	return res, err
}

func (s *Session) send(ctx context.Context, build func() *shttp.Request, token string) (*shttp.Response, error) {
	resp, err := build().Bearer(token).WithContext(ctx).Send()
	if err != nil {
		return nil, envelope.Transport(err)
	}
	return resp, nil
}

// refresh returns a fresh access token. stale is the token that was rejected;
// when another caller already replaced it the stored token is returned without
// calling the backend.
//
// The shared refresh ignores the caller's cancellation and is bounded by the
// client timeout; a cancelled caller only stops waiting.
func (s *Session) refresh(ctx context.Context, stale string) (string, error) {
	ch := s.refreshes.DoChan("refresh", func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		current, err := s.Tokens.Load(ctx)
		if err != nil {
			return "", err
		}
		if current.AccessToken != "" && current.AccessToken != stale {
			return current.AccessToken, nil
		}
		if current.RefreshToken == "" {
			metrics.TokenRefreshes.WithLabelValues("failed").Inc()
			return "", errors.New("auth: no refresh token")
		}

		resp, err := s.Main.Post("/auth/refresh-token").
			Body(map[string]string{"refreshToken": current.RefreshToken}).
			Bearer(current.RefreshToken).
			WithContext(ctx).
			Send()
		if err != nil {
			metrics.TokenRefreshes.WithLabelValues("failed").Inc()
			return "", envelope.Transport(err)
		}
		next, err := decodeTokens(resp)
		if err != nil {
			metrics.TokenRefreshes.WithLabelValues("failed").Inc()
			return "", err
		}
		if next.RefreshToken == "" {
			next.RefreshToken = current.RefreshToken
		}
		if err := s.Tokens.Save(ctx, next); err != nil {
			return "", err
		}
		metrics.TokenRefreshes.WithLabelValues("ok").Inc()
		logger.WithCtx(ctx).Debug("auth: access token refreshed")
		return next.AccessToken, nil
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	}
}

// end clears the tokens and sends the user to the login page.
func (s *Session) end(ctx context.Context) {
	if err := s.Tokens.Clear(ctx); err != nil {
		logger.WithCtx(ctx).Error("auth: clear tokens", "error", err)
	}
	s.Nav.Navigate(LoginPath)
}

// Credentials are the login form fields.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Login exchanges credentials for tokens and stores them.
func (s *Session) Login(ctx context.Context, c Credentials) (Tokens, error) {
	resp, err := s.Main.Post("/auth/login").Body(c).WithContext(ctx).Send()
	if err != nil {
		return Tokens{}, envelope.Transport(err)
	}
	t, err := decodeTokens(resp)
	if err != nil {
		return Tokens{}, err
	}
	if err := s.Tokens.Save(ctx, t); err != nil {
		return Tokens{}, err
	}
	return t, nil
}

// Logout tells the backend (best effort) and forgets the tokens.
func (s *Session) Logout(ctx context.Context) error {
	t, err := s.Tokens.Load(ctx)
	if err == nil && !t.Empty() {
		if _, err := s.Main.Post("/auth/logout").Bearer(t.AccessToken).WithContext(ctx).Send(); err != nil {
			logger.WithCtx(ctx).Warn("auth: logout call failed", "error", err)
		}
	}
	return s.Tokens.Clear(ctx)
}

// Current returns the claims of the stored access token.
func (s *Session) Current(ctx context.Context) (*Claims, error) {
	t, err := s.Tokens.Load(ctx)
	if err != nil {
		return nil, err
	}
	if t.Empty() {
		return nil, ErrSessionExpired
	}
	return ClaimsOf(t.AccessToken)
}

// tokenBody accepts the field spellings the auth backend has used.
type tokenBody struct {
	AccessToken  string `json:"accessToken"`
	Token        string `json:"token"`
	AccessSnake  string `json:"access_token"`
	RefreshToken string `json:"refreshToken"`
	RefreshSnake string `json:"refresh_token"`
}

func decodeTokens(resp *shttp.Response) (Tokens, error) {
	res, err := envelope.Decode(resp.StatusCode, resp.Raw)
	if err != nil {
		return Tokens{}, err
	}
	var b tokenBody
	if err := res.Into(&b); err != nil {
		return Tokens{}, err
	}
	t := Tokens{
		AccessToken:  first(b.AccessToken, b.Token, b.AccessSnake),
		RefreshToken: first(b.RefreshToken, b.RefreshSnake),
	}
	if t.AccessToken == "" {
		return Tokens{}, &envelope.Error{Kind: envelope.KindApplication, StatusCode: resp.StatusCode, Message: "response carried no access token"}
	}
	return t, nil
}

func first(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
