package domain

import "time"

// SessionTokenKey is the secret-store key holding the login session.
const SessionTokenKey = "px/session/token"

type Credentials struct {
	Email    string
	Password string
}

// LoginSession is what a successful login leaves in the secret store.
type LoginSession struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type,omitempty"`
	Email       string    `json:"email,omitempty"`
	ObtainedAt  time.Time `json:"obtained_at"`
}

type LoginStatus struct {
	LoggedIn  bool
	Email     string
	Subject   string
	ExpiresAt time.Time
	Expired   bool
}

type RegisteredUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}
