// Package token moves the session across requests as a tamper-evident
// client-side cookie: an HS256-signed JWT whose only payload is the two
// session fields. Nothing is kept server side.
package token

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pagegate/internal/gate"
)

// CookieName is the session cookie written to the client.
const CookieName = "pagegate_session"

var ErrInvalidToken = errors.New("invalid session token")

// sessionClaims carries the session payload. The subject is the username;
// lat is the last-activity time in epoch milliseconds, a pointer so an
// absent claim stays distinguishable from a literal zero. There is no exp
// claim on purpose: expiry is the gate's sliding check, not the token's.
type sessionClaims struct {
	LastActivity *int64 `json:"lat,omitempty"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Encode signs the session into a compact token string.
func (c *Codec) Encode(sess gate.Session) (string, error) {
	claims := &sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: sess.Username,
			ID:      uuid.NewString(),
		},
	}
	if !sess.LastActivity.IsZero() {
		lat := sess.LastActivity.UnixMilli()
		claims.LastActivity = &lat
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies the signature and unpacks the session. Any malformed or
// tampered token yields ErrInvalidToken; callers treat that as anonymous.
func (c *Codec) Decode(raw string) (gate.Session, error) {
	tok, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil || !tok.Valid {
		return gate.Session{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(*sessionClaims)
	if !ok {
		return gate.Session{}, ErrInvalidToken
	}

	sess := gate.Session{Username: claims.Subject}
	if claims.LastActivity != nil {
		sess.LastActivity = time.UnixMilli(*claims.LastActivity)
	}
	return sess, nil
}

// ReadCookie extracts the session from the request. A missing cookie is the
// anonymous session, not an error.
func (c *Codec) ReadCookie(r *http.Request) (gate.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return gate.Session{}, nil
	}
	return c.Decode(cookie.Value)
}

// WriteCookie encodes the session and sets it on the response.
func (c *Codec) WriteCookie(w http.ResponseWriter, r *http.Request, sess gate.Session) error {
	value, err := c.Encode(sess)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil || r.URL.Scheme == "https",
	})
	return nil
}

// ClearCookie expires the session cookie on the client.
func (c *Codec) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
