// Package proxy lets the app be mounted under a sub-path behind a reverse
// proxy. The fronting server is expected to set X-Script-Name to the mount
// prefix and X-Scheme to the external scheme, e.g. in nginx:
//
//	location /myprefix {
//	    proxy_pass http://127.0.0.1:5001;
//	    proxy_set_header X-Script-Name /myprefix;
//	    proxy_set_header X-Scheme $scheme;
//	}
package proxy

import (
	"context"
	"net/http"
	"strings"
)

type prefixKey struct{}

// Headers strips the X-Script-Name prefix from the request path, records it
// for redirect generation, and applies any X-Scheme override.
func Headers(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if prefix := r.Header.Get("X-Script-Name"); prefix != "" {
			if strings.HasPrefix(r.URL.Path, prefix) {
				r.URL.Path = strings.TrimPrefix(r.URL.Path, prefix)
				if r.URL.Path == "" {
					r.URL.Path = "/"
				}
			}
			r = r.WithContext(context.WithValue(r.Context(), prefixKey{}, prefix))
		}
		if scheme := r.Header.Get("X-Scheme"); scheme != "" {
			r.URL.Scheme = scheme
		}
		next.ServeHTTP(w, r)
	})
}

// Prefix returns the mount prefix recorded by Headers, or "" when the app
// is served from the root.
func Prefix(r *http.Request) string {
	if p, ok := r.Context().Value(prefixKey{}).(string); ok {
		return p
	}
	return ""
}

// Redirect issues a redirect to path, prefixed with the recorded mount
// prefix so the Location header is valid from the client's point of view.
func Redirect(w http.ResponseWriter, r *http.Request, path string, code int) {
	http.Redirect(w, r, Prefix(r)+path, code)
}
