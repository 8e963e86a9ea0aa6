package state

import (
	"context"
	"errors"
	"fmt"

	"forkful/internal/activity"
	"forkful/internal/api"
	"forkful/internal/domain"
	"forkful/internal/tokenstore"
	dErrors "forkful/pkg/domain-errors"
	"forkful/pkg/platform/sentinel"
)

// SessionExpiredMessage is shown after the server refused to refresh the session.
const SessionExpiredMessage = "Your session has expired. Please log in again."

// AuthState is the session as the presentation layer sees it. The token store
// mirrors Session; this slice owns it.
type AuthState struct {
	User    *domain.User
	Session domain.Session
	Loading bool
	Error   string
}

func (s AuthState) clone() AuthState {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func authPending(s AuthState) AuthState {
	s.Loading = true
	return s
}

func authRejected(s AuthState, msg string) AuthState {
	s.Loading = false
	s.Error = msg
	return s
}

func authSucceeded(s AuthState) AuthState {
	s.Loading = false
	s.Error = ""
	return s
}

func authenticated(_ AuthState, res *api.AuthResult) AuthState {
	user := res.User
	return AuthState{
		User: &user,
		Session: domain.Session{
			AccessToken:   res.Tokens.Access,
			RefreshToken:  res.Tokens.Refresh,
			Authenticated: true,
		},
	}
}

func sessionRestored(s AuthState, session domain.Session) AuthState {
	s.Session = session
	return s
}

func profileLoaded(s AuthState, user *domain.User) AuthState {
	s = authSucceeded(s)
	s.User = user
	return s
}

func sessionExpired(AuthState) AuthState {
	return AuthState{Error: SessionExpiredMessage}
}

// AuthSlice owns the session.
type AuthSlice struct {
	root *Store
	snap *snapshot[AuthState]
}

func newAuthSlice(root *Store) *AuthSlice {
	return &AuthSlice{root: root, snap: newSnapshot(AuthState{}, AuthState.clone)}
}

func (a *AuthSlice) Snapshot() AuthState {
	return a.snap.get()
}

func (a *AuthSlice) Subscribe(fn func(AuthState)) (unsubscribe func()) {
	return a.snap.subscribe(fn)
}

// Restore loads a persisted session at start-up. It reports whether an access
// token was found; the token is not validated until the server sees it.
func (a *AuthSlice) Restore(ctx context.Context) (bool, error) {
	access, err := a.readToken(ctx, tokenstore.AccessTokenKey)
	if err != nil {
		a.snap.apply(func(s AuthState) AuthState { return authRejected(s, "Failed to restore session") })
		return false, err
	}
	if access == "" {
		return false, nil
	}
	refresh, err := a.readToken(ctx, tokenstore.RefreshTokenKey)
	if err != nil {
		a.snap.apply(func(s AuthState) AuthState { return authRejected(s, "Failed to restore session") })
		return false, err
	}
	a.snap.apply(func(s AuthState) AuthState {
		return sessionRestored(s, domain.Session{AccessToken: access, RefreshToken: refresh, Authenticated: true})
	})
	return true, nil
}

func (a *AuthSlice) Login(ctx context.Context, req api.LoginRequest) (*domain.User, error) {
	res, err := run(ctx, a.snap, authPending,
		func(ctx context.Context) (*api.AuthResult, error) {
			return a.authenticate(ctx, func(ctx context.Context) (*api.AuthResult, error) {
				return a.root.client.Login(ctx, req)
			})
		},
		authenticated, authRejected, "Login failed")
	if err != nil {
		return nil, err
	}
	a.root.emit(ctx, activity.Event{Action: activity.ActionLogin, UserID: userIDString(res.User.ID)})
	return &res.User, nil
}

func (a *AuthSlice) Register(ctx context.Context, req api.RegisterRequest) (*domain.User, error) {
	res, err := run(ctx, a.snap, authPending,
		func(ctx context.Context) (*api.AuthResult, error) {
			return a.authenticate(ctx, func(ctx context.Context) (*api.AuthResult, error) {
				return a.root.client.Register(ctx, req)
			})
		},
		authenticated, authRejected, "Registration failed")
	if err != nil {
		return nil, err
	}
	a.root.emit(ctx, activity.Event{Action: activity.ActionRegister, UserID: userIDString(res.User.ID)})
	return &res.User, nil
}

// authenticate runs a credential exchange and persists the issued tokens
// before the slice reports success.
func (a *AuthSlice) authenticate(ctx context.Context, exchange func(context.Context) (*api.AuthResult, error)) (*api.AuthResult, error) {
	res, err := exchange(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.root.tokens.Set(ctx, tokenstore.AccessTokenKey, res.Tokens.Access); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to save session")
	}
	if res.Tokens.Refresh != "" {
		if err := a.root.tokens.Set(ctx, tokenstore.RefreshTokenKey, res.Tokens.Refresh); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to save session")
		}
	}
	return res, nil
}

// Logout resets the whole container and deletes the stored tokens. It makes
// no network call; the local reset happens even if deletion fails.
func (a *AuthSlice) Logout(ctx context.Context) error {
	uid := a.userID()
	a.root.Reset()
	a.root.emit(ctx, activity.Event{Action: activity.ActionLogout, UserID: uid})
	if err := a.root.tokens.Delete(ctx, tokenstore.SessionKeys...); err != nil {
		a.root.logger.ErrorContext(ctx, "failed to delete tokens on logout", "error", err)
		return fmt.Errorf("delete session tokens: %w", err)
	}
	return nil
}

func (a *AuthSlice) FetchProfile(ctx context.Context) (*domain.User, error) {
	return run(ctx, a.snap, authPending, a.root.client.Profile, profileLoaded, authRejected, "Failed to fetch profile")
}

func (a *AuthSlice) UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) (*domain.User, error) {
	user, err := run(ctx, a.snap, authPending,
		func(ctx context.Context) (*domain.User, error) { return a.root.client.UpdateProfile(ctx, req) },
		profileLoaded, authRejected, "Failed to update profile")
	if err != nil {
		return nil, err
	}
	a.root.emit(ctx, activity.Event{Action: activity.ActionProfileUpdated})
	return user, nil
}

// ChangePassword returns the server's confirmation message.
func (a *AuthSlice) ChangePassword(ctx context.Context, req api.ChangePasswordRequest) (string, error) {
	msg, err := run(ctx, a.snap, authPending,
		func(ctx context.Context) (string, error) { return a.root.client.ChangePassword(ctx, req) },
		func(s AuthState, _ string) AuthState { return authSucceeded(s) },
		authRejected, "Failed to change password")
	if err != nil {
		return "", err
	}
	a.root.emit(ctx, activity.Event{Action: activity.ActionPasswordChanged})
	return msg, nil
}

func (a *AuthSlice) ClearError() {
	a.snap.apply(func(s AuthState) AuthState {
		s.Error = ""
		return s
	})
}

// expire handles an irrecoverable refresh failure reported by the client,
// which has already deleted the tokens. User-owned data is dropped; the
// public catalog stays. Without an authenticated session there is nothing to
// expire.
func (a *AuthSlice) expire(ctx context.Context) {
	if !a.snap.get().Session.Authenticated {
		return
	}
	uid := a.userID()
	a.snap.apply(sessionExpired)
	a.root.Cart.Reset()
	a.root.Orders.Reset()
	a.root.logger.InfoContext(ctx, "session expired")
	a.root.emit(ctx, activity.Event{Action: activity.ActionSessionExpired, UserID: uid})
}

// userID identifies the signed-in user for activity events: the loaded
// profile first, then the access token's subject claim.
func (a *AuthSlice) userID() string {
	s := a.snap.get()
	if s.User != nil && s.User.ID != 0 {
		return userIDString(s.User.ID)
	}
	return s.Session.Subject()
}

func (a *AuthSlice) readToken(ctx context.Context, name string) (string, error) {
	v, err := a.root.tokens.Get(ctx, name)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", nil
	}
	return v, err
}
