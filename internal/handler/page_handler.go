package handler

import (
	"embed"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pagegate/internal/gate"
	"pagegate/internal/proxy"
	"pagegate/internal/ratelimit"
	"pagegate/internal/token"
	"pagegate/internal/util"
)

//go:embed templates/*.html
var templateFS embed.FS

// Flash messages shown to the user. The wording is part of the observable
// behavior, keep it stable.
const (
	msgSessionExpired     = "Session expired"
	msgBadCredentials     = "Incorrect username or password"
	msgDeletionInProgress = "Data deletion in progress..."
	msgTooManyAttempts    = "Too many login attempts, try again later"
)

// PageHandler serves the protected page and the login flow around it.
type PageHandler struct {
	gate      *gate.Gate
	codec     *token.Codec
	loginRate *ratelimit.Limiter
	logger    *zap.Logger
	templates *template.Template
}

func NewPageHandler(g *gate.Gate, codec *token.Codec, loginRate *ratelimit.Limiter, logger *zap.Logger) (*PageHandler, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &PageHandler{
		gate:      g,
		codec:     codec,
		loginRate: loginRate,
		logger:    logger,
		templates: templates,
	}, nil
}

// RegisterRoutes registers all page routes
func (h *PageHandler) RegisterRoutes(router chi.Router) {
	router.Get("/", h.Index)
	router.Get("/login", h.LoginForm)
	router.Post("/login", h.Login)
	router.Get("/logout", h.Logout)
	router.Get("/delete", h.Delete)
}

// pageData is the model every template renders against.
type pageData struct {
	Username string
	Flashes  []string
	Prefix   string
}

// Index serves the protected page to an authenticated session.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	h.render(w, "index.html", pageData{
		Username: sess.Username,
		Flashes:  popFlashes(w, r),
		Prefix:   proxy.Prefix(r),
	})
}

// LoginForm renders the login form along with any pending flash.
func (h *PageHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html", pageData{
		Flashes: popFlashes(w, r),
		Prefix:  proxy.Prefix(r),
	})
}

// Login checks the submitted credentials and opens a session on success.
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.loginRate.Allow(clientIP(r)) {
		h.logger.Warn("Login attempt rate limited",
			util.String("remote_addr", r.RemoteAddr),
		)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusTooManyRequests)
		h.render(w, "login.html", pageData{
			Flashes: []string{msgTooManyAttempts},
			Prefix:  proxy.Prefix(r),
		})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	sess, err := h.gate.Login(username, password, time.Now())
	if err != nil {
		if util.ContainsSuspicious(username) {
			h.logger.Warn("Suspicious username on failed login",
				util.String("username", util.SanitizeInput(username)),
				util.String("remote_addr", r.RemoteAddr),
			)
		} else {
			h.logger.Info("Failed login attempt",
				util.String("remote_addr", r.RemoteAddr),
			)
		}
		h.render(w, "login.html", pageData{
			Flashes: []string{msgBadCredentials},
			Prefix:  proxy.Prefix(r),
		})
		return
	}

	if err := h.codec.WriteCookie(w, r, sess); err != nil {
		h.logger.Error("Failed to write session cookie", util.ErrorField(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.logger.Info("Login succeeded", util.String("username", sess.Username))
	proxy.Redirect(w, r, "/", http.StatusFound)
}

// Logout discards the session and returns to the index, which in turn
// bounces the now-anonymous user to the login form.
func (h *PageHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, err := h.codec.ReadCookie(r); err == nil && sess.Username != "" {
		h.logger.Info("Logout", util.String("username", sess.Username))
	}
	h.codec.ClearCookie(w)
	proxy.Redirect(w, r, "/", http.StatusFound)
}

// Delete is a placeholder action. It performs no deletion but still sits
// behind the same session check as the protected page.
func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticate(w, r); !ok {
		return
	}
	pushFlash(w, msgDeletionInProgress)
	proxy.Redirect(w, r, "/", http.StatusFound)
}

// authenticate runs the gate against the request's session cookie. On
// success the idle window slides forward and the refreshed cookie is
// written back. On any other outcome the user is sent to the login form
// and the return value is false.
func (h *PageHandler) authenticate(w http.ResponseWriter, r *http.Request) (gate.Session, bool) {
	sess, err := h.codec.ReadCookie(r)
	if err != nil {
		h.logger.Warn("Rejecting undecodable session cookie", util.ErrorField(err))
	}

	result := h.gate.Authenticate(sess, time.Now())
	switch result.Status {
	case gate.StatusAuthenticated:
		if err := h.codec.WriteCookie(w, r, result.Session); err != nil {
			h.logger.Error("Failed to refresh session cookie", util.ErrorField(err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return gate.Session{}, false
		}
		return result.Session, true
	case gate.StatusExpired:
		h.logger.Info("Session expired", util.String("username", sess.Username))
		h.codec.ClearCookie(w)
		pushFlash(w, msgSessionExpired)
	}
	proxy.Redirect(w, r, "/login", http.StatusFound)
	return gate.Session{}, false
}

func (h *PageHandler) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("Failed to render template",
			util.String("template", name),
			util.ErrorField(err),
		)
	}
}

// clientIP keys the rate limiter. middleware.RealIP has already folded
// X-Forwarded-For / X-Real-IP into RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
