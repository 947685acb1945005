// Package auth provides the authentication gate middlewares. Identity
// travels as a bearer token in the Authorization header; routes compose
// AttachIdentity (never requires a token) with RequireAuth (rejects
// anonymous callers) as needed.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/patric-chuzhbe/shortling/internal/models"
	"github.com/patric-chuzhbe/shortling/internal/token"
)

// ContextKey is a custom type for storing values in context to avoid
// collisions.
type ContextKey string

// UserIDKey is the context key under which the authenticated user's ID is
// stored.
const UserIDKey ContextKey = "userID"

const bearerPrefix = "Bearer "

type tokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// Auth holds the token verifier the middlewares delegate to.
type Auth struct {
	tokens tokenVerifier
}

// New creates the authentication gate over the given token verifier.
func New(tokens tokenVerifier) *Auth {
	return &Auth{tokens: tokens}
}

// AttachIdentity inspects the Authorization header. No header lets the
// request proceed unauthenticated, which is how public endpoints share
// the gate. A header that is not shaped `Bearer <token>` is a client
// error; a well-formed but unverifiable token is an authentication
// error. On success the resolved user ID is attached to the request
// context.
func (a *Auth) AttachIdentity(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		authHeader := request.Header.Get("Authorization")
		if authHeader == "" {
			h.ServeHTTP(response, request)

			return
		}

		tokenString, wellFormed := strings.CutPrefix(authHeader, bearerPrefix)
		if !wellFormed || tokenString == "" {
			writeJSONError(response, http.StatusBadRequest, "authorization header must be shaped `Bearer <token>`")

			return
		}

		claims, err := a.tokens.Verify(tokenString)
		if err != nil {
			writeJSONError(response, http.StatusUnauthorized, "invalid or expired token")

			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, claims.UserID)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// RequireAuth rejects requests that reached it without an attached
// identity. It is declared per route; the gate itself never makes
// authentication mandatory.
func (a *Auth) RequireAuth(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if _, ok := UserIDFromContext(request.Context()); !ok {
			writeJSONError(response, http.StatusUnauthorized, "you must be logged in to access this resource")

			return
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

// UserIDFromContext extracts the authenticated user ID attached by
// AttachIdentity.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)

	return userID, ok && userID != ""
}

func writeJSONError(response http.ResponseWriter, status int, message string) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	_ = json.NewEncoder(response).Encode(models.ErrorResponse{Error: message})
}
