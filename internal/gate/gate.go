// Package gate implements the sliding-idle-timeout session check. All
// operations are pure computations over an explicit Session value; reading
// and writing the client-side token is the transport layer's job.
package gate

import (
	"crypto/subtle"
	"errors"
	"time"

	"pagegate/internal/hashing"
)

// ErrInvalidCredentials is returned by Login when the supplied username or
// password does not match the configured pair. The handler maps it to the
// "incorrect username or password" flash.
var ErrInvalidCredentials = errors.New("incorrect username or password")

// Session is the full authentication state carried by the client token.
// The zero value is the anonymous session. Username is set if and only if
// the user has logged in and not yet logged out or timed out; LastActivity
// is set if and only if Username is, and records the last request accepted
// while logged in (millisecond precision survives the token round trip).
type Session struct {
	Username     string
	LastActivity time.Time
}

// Status is the outcome of an Authenticate call.
type Status int

const (
	// StatusNotLoggedIn covers both a missing session and a malformed one
	// (a principal without a timestamp fails closed).
	StatusNotLoggedIn Status = iota
	// StatusAuthenticated means the request arrived within the idle window.
	StatusAuthenticated
	// StatusExpired means the session was valid but the idle window has
	// elapsed since the last accepted request.
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusExpired:
		return "expired"
	default:
		return "not_logged_in"
	}
}

// Result pairs the verdict with the session the caller should store. On
// StatusAuthenticated the session carries the refreshed timestamp; on any
// other status it is unchanged (clearing the token is the caller's call).
type Result struct {
	Status  Status
	Session Session
}

// Gate holds the read-only configuration the checks run against: the single
// configured principal, its Argon2id password hash, and the idle window.
type Gate struct {
	username     string
	passwordHash string
	hasher       *hashing.Hasher
	idleTimeout  time.Duration
}

func New(username, passwordHash string, hasher *hashing.Hasher, idleTimeout time.Duration) *Gate {
	return &Gate{
		username:     username,
		passwordHash: passwordHash,
		hasher:       hasher,
		idleTimeout:  idleTimeout,
	}
}

func (g *Gate) IdleTimeout() time.Duration {
	return g.idleTimeout
}

// Authenticate decides whether the session is still valid at now, sliding
// the idle window forward on success. It never fails: every input maps to
// one of the three statuses.
func (g *Gate) Authenticate(sess Session, now time.Time) Result {
	if sess.Username == "" {
		return Result{Status: StatusNotLoggedIn}
	}
	if sess.LastActivity.IsZero() {
		return Result{Status: StatusNotLoggedIn, Session: sess}
	}
	if now.Sub(sess.LastActivity) < g.idleTimeout {
		sess.LastActivity = now
		return Result{Status: StatusAuthenticated, Session: sess}
	}
	return Result{Status: StatusExpired, Session: sess}
}

// Login verifies the candidate credentials against the configured pair and,
// on success, returns a fresh Active session stamped at now. Comparison is
// exact and case-sensitive. Both checks always run so the response time
// does not reveal which field was wrong.
func (g *Gate) Login(username, password string, now time.Time) (Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passOK, err := g.hasher.Verify(password, g.passwordHash)
	if err != nil || !userOK || !passOK {
		return Session{}, ErrInvalidCredentials
	}
	return Session{Username: username, LastActivity: now}, nil
}

// Logout discards the session unconditionally. Both fields clear together;
// there is no partial logged-out state.
func (g *Gate) Logout(Session) Session {
	return Session{}
}
