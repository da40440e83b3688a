package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagegate/internal/hashing"
)

// testParams keeps argon2 cheap enough for tight test loops.
var testParams = hashing.Params{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func newTestGate(t *testing.T, username, password string, idleTimeout time.Duration) *Gate {
	t.Helper()
	hasher := hashing.NewHasher(testParams)
	hash, err := hasher.Hash(password)
	require.NoError(t, err)
	return New(username, hash, hasher, idleTimeout)
}

func TestAuthenticateSlidingWindow(t *testing.T) {
	g := newTestGate(t, "alice", "secret", 5*time.Second)
	t0 := time.UnixMilli(0)

	sess, err := g.Login("alice", "secret", t0)
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.Username)
	assert.Equal(t, int64(0), sess.LastActivity.UnixMilli())

	// Request inside the window slides the timestamp forward.
	res := g.Authenticate(sess, t0.Add(3*time.Second))
	require.Equal(t, StatusAuthenticated, res.Status)
	assert.Equal(t, int64(3000), res.Session.LastActivity.UnixMilli())
	assert.Equal(t, "alice", res.Session.Username)

	// Elapsed from the refreshed timestamp is 6000ms >= 5000ms.
	res = g.Authenticate(res.Session, t0.Add(9*time.Second))
	assert.Equal(t, StatusExpired, res.Status)
}

func TestAuthenticateExpirationBoundary(t *testing.T) {
	g := newTestGate(t, "alice", "secret", 5*time.Second)
	t0 := time.UnixMilli(0)
	sess := Session{Username: "alice", LastActivity: t0}

	tests := []struct {
		name    string
		elapsed time.Duration
		want    Status
	}{
		{"just inside", 5*time.Second - time.Millisecond, StatusAuthenticated},
		{"exactly at timeout", 5 * time.Second, StatusExpired},
		{"past timeout", time.Hour, StatusExpired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := g.Authenticate(sess, t0.Add(tc.elapsed))
			assert.Equal(t, tc.want, res.Status)
		})
	}
}

func TestAuthenticateRefreshChain(t *testing.T) {
	g := newTestGate(t, "alice", "secret", 5*time.Second)
	now := time.UnixMilli(0)
	sess := Session{Username: "alice", LastActivity: now}

	// Continuous activity keeps the session alive well past any single
	// window's worth of elapsed time.
	for i := 0; i < 100; i++ {
		now = now.Add(4 * time.Second)
		res := g.Authenticate(sess, now)
		require.Equal(t, StatusAuthenticated, res.Status, "request %d", i)
		require.Equal(t, now, res.Session.LastActivity)
		sess = res.Session
	}
}

func TestAuthenticateFailsClosed(t *testing.T) {
	g := newTestGate(t, "alice", "secret", 5*time.Second)
	now := time.Now()

	tests := []struct {
		name string
		sess Session
	}{
		{"anonymous", Session{}},
		{"username without timestamp", Session{Username: "alice"}},
		{"timestamp without username", Session{LastActivity: now}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := g.Authenticate(tc.sess, now)
			assert.Equal(t, StatusNotLoggedIn, res.Status)
		})
	}
}

func TestLoginCredentialEquality(t *testing.T) {
	g := newTestGate(t, "alice", "secret", 5*time.Second)
	now := time.Now()

	tests := []struct {
		name     string
		username string
		password string
		wantOK   bool
	}{
		{"exact match", "alice", "secret", true},
		{"wrong password", "alice", "wrong", false},
		{"wrong username", "bob", "secret", false},
		{"username case differs", "Alice", "secret", false},
		{"password case differs", "alice", "Secret", false},
		{"both empty", "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sess, err := g.Login(tc.username, tc.password, now)
			if tc.wantOK {
				require.NoError(t, err)
				assert.Equal(t, tc.username, sess.Username)
				assert.Equal(t, now, sess.LastActivity)
			} else {
				assert.ErrorIs(t, err, ErrInvalidCredentials)
				assert.Equal(t, Session{}, sess)
			}
		})
	}
}

func TestLoginAfterExpiry(t *testing.T) {
	g := newTestGate(t, "alice", "secret", 5*time.Second)
	t0 := time.UnixMilli(0)
	sess := Session{Username: "alice", LastActivity: t0}

	res := g.Authenticate(sess, t0.Add(time.Hour))
	require.Equal(t, StatusExpired, res.Status)

	// An expired token can always re-login.
	sess, err := g.Login("alice", "secret", t0.Add(time.Hour))
	require.NoError(t, err)
	res = g.Authenticate(sess, t0.Add(time.Hour).Add(time.Second))
	assert.Equal(t, StatusAuthenticated, res.Status)
}

func TestLogoutClearsState(t *testing.T) {
	g := newTestGate(t, "alice", "secret", 5*time.Second)
	now := time.Now()

	sess, err := g.Login("alice", "secret", now)
	require.NoError(t, err)

	cleared := g.Logout(sess)
	assert.Equal(t, Session{}, cleared)

	// Immediately after logout, with no time elapsed at all, the session
	// is anonymous again.
	res := g.Authenticate(cleared, now)
	assert.Equal(t, StatusNotLoggedIn, res.Status)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "not_logged_in", StatusNotLoggedIn.String())
	assert.Equal(t, "authenticated", StatusAuthenticated.String())
	assert.Equal(t, "expired", StatusExpired.String())
}

func TestLoginWithMalformedHash(t *testing.T) {
	hasher := hashing.NewHasher(testParams)
	g := New("alice", "not-a-phc-string", hasher, 5*time.Second)

	// A broken configured hash must not let anyone in.
	_, err := g.Login("alice", "secret", time.Now())
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
