package handler

import (
	"encoding/base64"
	"net/http"
)

// Flash messages ride a short-lived cookie so they survive exactly one
// redirect: pushed before the redirect, popped and cleared on the next
// render. Base64 keeps the value within the cookie charset.
const flashCookieName = "pagegate_flash"

func pushFlash(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func popFlashes(w http.ResponseWriter, r *http.Request) []string {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	message, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil || len(message) == 0 {
		return nil
	}
	return []string{string(message)}
}
