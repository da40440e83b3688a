package proxy

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadersStripsScriptName(t *testing.T) {
	var gotPath, gotPrefix string
	h := Headers(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPrefix = Prefix(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/myprefix/login", nil)
	req.Header.Set("X-Script-Name", "/myprefix")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "/login", gotPath)
	assert.Equal(t, "/myprefix", gotPrefix)
}

func TestHeadersPrefixOnlyPathBecomesRoot(t *testing.T) {
	var gotPath string
	h := Headers(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))

	req := httptest.NewRequest(http.MethodGet, "/myprefix", nil)
	req.Header.Set("X-Script-Name", "/myprefix")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "/", gotPath)
}

func TestHeadersWithoutProxyHeaders(t *testing.T) {
	var gotPath, gotPrefix, gotScheme string
	h := Headers(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPrefix = Prefix(r)
		gotScheme = r.URL.Scheme
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, "/login", gotPath)
	assert.Empty(t, gotPrefix)
	assert.Empty(t, gotScheme)
}

func TestHeadersSchemeOverride(t *testing.T) {
	var gotScheme string
	h := Headers(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotScheme = r.URL.Scheme
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Scheme", "https")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "https", gotScheme)
}

func TestRedirectIncludesPrefix(t *testing.T) {
	h := Headers(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Redirect(w, r, "/login", http.StatusFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/myprefix/", nil)
	req.Header.Set("X-Script-Name", "/myprefix")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/myprefix/login", rec.Header().Get("Location"))
}

func TestRedirectWithoutPrefix(t *testing.T) {
	rec := httptest.NewRecorder()
	Redirect(rec, httptest.NewRequest(http.MethodGet, "/", nil), "/login", http.StatusFound)

	assert.Equal(t, "/login", rec.Header().Get("Location"))
}
