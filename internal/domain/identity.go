package domain

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// User is the profile returned by /auth/profile/ and the login/register calls.
type User struct {
	ID          int    `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Address     string `json:"address,omitempty"`
	UserType    string `json:"user_type,omitempty"`
}

// TokenPair is the credential pair issued on login or registration.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Session is owned by the Auth slice; the token store only mirrors it.
type Session struct {
	AccessToken   string
	RefreshToken  string
	Authenticated bool
}

// Subject returns the user id carried in the access token's claims, if any.
// The token is only decoded, never verified; the server remains the authority
// and expiry is discovered by the server rejecting a request.
func (s Session) Subject() string {
	if s.AccessToken == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err != nil {
		return ""
	}
	switch v := claims["user_id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	if sub, err := claims.GetSubject(); err == nil {
		return sub
	}
	return ""
}
