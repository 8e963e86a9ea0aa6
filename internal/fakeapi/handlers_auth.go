package fakeapi

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"forkful/internal/api"
	"forkful/internal/domain"
	"forkful/internal/platform/middleware"
	dErrors "forkful/pkg/domain-errors"
	"forkful/pkg/requestcontext"
)

type authResponse struct {
	User   domain.User      `json:"user"`
	Tokens domain.TokenPair `json:"tokens"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Normalize()

	s.mu.Lock()
	acc, ok := s.accounts[s.byEmail[req.Email]]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword([]byte(acc.passwordHash), []byte(req.Password)) != nil {
		s.logger.WarnContext(r.Context(), "login rejected",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		writeFieldErrors(w, map[string][]string{"non_field_errors": {"Invalid email or password"}})
		return
	}
	s.respondWithTokens(w, r, http.StatusOK, acc.user)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Normalize()
	if req.Password != req.PasswordConfirm {
		writeFieldErrors(w, map[string][]string{"password": {"Password fields didn't match."}})
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.passwordCost)
	if err != nil {
		writeFieldErrors(w, map[string][]string{"password": {"Password is too long."}})
		return
	}

	s.mu.Lock()
	if _, taken := s.byEmail[req.Email]; taken {
		s.mu.Unlock()
		writeFieldErrors(w, map[string][]string{"email": {"A user with this email already exists."}})
		return
	}
	user := s.addAccountLocked(domain.User{
		Email:       req.Email,
		Username:    req.Username,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		UserType:    "customer",
	}, string(hash))
	s.mu.Unlock()

	s.respondWithTokens(w, r, http.StatusCreated, user)
}

func (s *Server) respondWithTokens(w http.ResponseWriter, r *http.Request, status int, user domain.User) {
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	access, err := s.tokens.issue(user.ID, tokenTypeAccess, gen)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to issue access token", "error", err)
		writeError(w, err)
		return
	}
	refresh, err := s.tokens.issue(user.ID, tokenTypeRefresh, gen)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to issue refresh token", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, status, authResponse{User: user, Tokens: domain.TokenPair{Access: access, Refresh: refresh}})
}

// handleRefresh exchanges a refresh token for a new access token. Every call
// is counted, including rejected ones.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	var req api.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	fail, gen := s.failRefresh, s.generation
	s.mu.Unlock()

	reject := func() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired", "code": "token_not_valid"})
	}
	if fail {
		reject()
		return
	}
	c, err := s.tokens.parse(req.Refresh, tokenTypeRefresh)
	if err != nil {
		reject()
		return
	}
	access, err := s.tokens.issue(c.UserID, tokenTypeAccess, gen)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	acc := s.accounts[middleware.UserID(r.Context())]
	user := acc.user
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	acc := s.accounts[middleware.UserID(r.Context())]
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&acc.user.FirstName, req.FirstName)
	set(&acc.user.LastName, req.LastName)
	set(&acc.user.PhoneNumber, req.PhoneNumber)
	set(&acc.user.Address, req.Address)
	user := acc.user
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req api.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	acc := s.accounts[middleware.UserID(r.Context())]
	current := acc.passwordHash
	s.mu.Unlock()

	if err := bcrypt.CompareHashAndPassword([]byte(current), []byte(req.OldPassword)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			writeFieldErrors(w, map[string][]string{"old_password": {"Old password is not correct"}})
			return
		}
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "could not verify password"))
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.passwordCost)
	if err != nil {
		writeFieldErrors(w, map[string][]string{"new_password": {"Password is too long."}})
		return
	}

	s.mu.Lock()
	acc.passwordHash = string(hash)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}
