// internal/httpserver/auth.go
//
// Player identity. The chat gateway (or any client) presents an HS256 JWT
// either as "Authorization: Bearer <token>" or in the auth cookie; the "id"
// claim names the player.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ctxPlayerKey is the context key type for the authenticated player id.
type ctxPlayerKey struct{}

type authenticator struct {
	secret []byte
	cookie string
}

// require enforces a valid token and injects the player id into the context.
func (a authenticator) require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := a.bearerOrCookie(r)
		if tok == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
			return
		}
		id, err := a.parse(tok)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid_token"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxPlayerKey{}, id)))
	})
}

// optional decorates requests with the player id when a valid token is
// present. It never 401s.
func (a authenticator) optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := a.bearerOrCookie(r); tok != "" {
			if id, err := a.parse(tok); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxPlayerKey{}, id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// parse validates tok and returns its "id" claim.
func (a authenticator) parse(tok string) (string, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !t.Valid {
		return "", errors.New("invalid token")
	}
	id, _ := claims["id"].(string)
	if strings.TrimSpace(id) == "" {
		return "", errors.New("token has no player id")
	}
	return id, nil
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func (a authenticator) bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if h := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if c, err := r.Cookie(a.cookie); err == nil {
		return c.Value
	}
	return ""
}

// playerID returns the authenticated player, or "" for guests.
func playerID(r *http.Request) string {
	id, _ := r.Context().Value(ctxPlayerKey{}).(string)
	return id
}

// SignToken issues an HS256 token for playerID valid for ttl.
func SignToken(secret, playerID string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  playerID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := t.SignedString([]byte(secret))
	return ss, exp, err
}
