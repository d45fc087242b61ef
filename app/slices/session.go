package slices

import (
	"context"
	"strings"

	"github.com/shashiranjanraj/shopdesk/pkg/auth"
	"github.com/shashiranjanraj/shopdesk/pkg/logger"
	"github.com/shashiranjanraj/shopdesk/pkg/saga"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
	"github.com/shashiranjanraj/shopdesk/pkg/validate"
)

// Authenticator logs the admin in and out. *auth.Session implements it.
type Authenticator interface {
	Login(ctx context.Context, c auth.Credentials) (auth.Tokens, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*auth.Claims, error)
}

// LoginPayload is the LOGIN_REQUEST payload. The password never reaches the
// action log.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"-"`
}

// SessionState is who is logged in.
type SessionState struct {
	User     *auth.Claims `json:"user,omitempty"`
	LoggedIn bool         `json:"loggedIn"`
	Ops      Ops          `json:"ops,omitempty"`
}

// Session is the session slice.
type Session struct {
	auth Authenticator
}

// NewSession creates the slice.
func NewSession(a Authenticator) *Session { return &Session{auth: a} }

// Login requests a login.
func (s *Session) Login(email, password string) store.Action {
	return store.Action{Type: Type(SessionFeature, OpLogin, Request), Payload: LoginPayload{Email: strings.TrimSpace(email), Password: password}}
}

// Logout requests a logout.
func (s *Session) Logout() store.Action {
	return store.Action{Type: Type(SessionFeature, OpLogout, Request)}
}

// WhoAmI requests the claims of the stored token.
func (s *Session) WhoAmI() store.Action {
	return store.Action{Type: Type(SessionFeature, OpDetail, Request)}
}

// Reduce applies a to st. Any FAILURE that ended the session logs the user
// out, whichever feature it came from.
func (s *Session) Reduce(st SessionState, a store.Action) SessionState {
	feature, op, phase, ok := ParseType(a.Type)
	if !ok {
		return st
	}
	if f, isFail := a.Payload.(Failed); isFail && phase == Failure && f.Expired {
		st.User, st.LoggedIn = nil, false
	}
	if feature != SessionFeature {
		return st
	}

	if phase == Request {
		st.Ops = st.Ops.begin(op, a.Seq)
		return st
	}
	if !st.Ops.accepts(op, a.Meta.RequestSeq) {
		return st
	}
	if phase == Failure {
		f, _ := a.Payload.(Failed)
		st.Ops = st.Ops.end(op, "", f.Message)
		if op == OpDetail {
			st.User, st.LoggedIn = nil, false
		}
		return st
	}

	switch op {
	case OpLogin, OpDetail:
		if c, ok := a.Payload.(*auth.Claims); ok {
			st.User, st.LoggedIn = c, true
		}
	case OpLogout:
		st.User, st.LoggedIn = nil, false
	}
	st.Ops = st.Ops.end(op, "", "")
	return st
}

// Register starts the slice's watchers on rt.
func (s *Session) Register(rt *saga.Runtime) {
	rt.TakeLatest(Type(SessionFeature, OpLogin, Request), s.login)
	rt.TakeLatest(Type(SessionFeature, OpLogout, Request), s.logout)
	rt.TakeLatest(Type(SessionFeature, OpDetail, Request), s.whoami)
}

func (s *Session) fail(ctx context.Context, op Op, err error, put saga.Put) {
	if ctx.Err() != nil {
		return
	}
	logger.WithCtx(ctx).Warn("slices: session request failed", "op", op, "error", err)
	put(store.Action{Type: Type(SessionFeature, op, Failure), Payload: failedOf(err)})
}

func (s *Session) login(ctx context.Context, a store.Action, put saga.Put) {
	p, _ := a.Payload.(LoginPayload)
	c := auth.Credentials{Email: p.Email, Password: p.Password}
	if errs := validate.Struct(c); errs != nil {
		s.fail(ctx, OpLogin, errs, put)
		return
	}
	if _, err := s.auth.Login(ctx, c); err != nil {
		s.fail(ctx, OpLogin, err, put)
		return
	}
	claims, err := s.auth.Current(ctx)
	if err != nil {
		// Opaque tokens carry no claims; the email is all we know.
		claims = &auth.Claims{Email: c.Email}
	}
	put(store.Action{Type: Type(SessionFeature, OpLogin, Success), Payload: claims})
}

func (s *Session) logout(ctx context.Context, _ store.Action, put saga.Put) {
	if err := s.auth.Logout(ctx); err != nil {
		s.fail(ctx, OpLogout, err, put)
		return
	}
	put(store.Action{Type: Type(SessionFeature, OpLogout, Success)})
}

func (s *Session) whoami(ctx context.Context, _ store.Action, put saga.Put) {
	claims, err := s.auth.Current(ctx)
	if err != nil {
		s.fail(ctx, OpDetail, err, put)
		return
	}
	put(store.Action{Type: Type(SessionFeature, OpDetail, Success), Payload: claims})
}
