// Package models contains the request and response shapes of the HTTP API
// together with a few shared application-level constants.
package models

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Firstname string `json:"firstname" validate:"required"`
	Lastname  string `json:"lastname" validate:"omitempty"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=3"`
}

// SignupResponseData carries the identifier of the newly created user.
type SignupResponseData struct {
	UserID string `json:"userId"`
}

// SignupResponse is the body of a successful signup.
type SignupResponse struct {
	Data SignupResponseData `json:"data"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}

// ShortenRequest is the body of POST /shorten. Code, when present, is a
// caller-supplied vanity code used verbatim.
type ShortenRequest struct {
	URL  string `json:"url" validate:"required,url"`
	Code string `json:"code" validate:"omitempty,min=1,max=64"`
}

// ShortenResponse describes the created link.
type ShortenResponse struct {
	ID        string `json:"id"`
	ShortCode string `json:"shortCode"`
	TargetURL string `json:"targetURL"`
}

// UserCode is one element of the GET /codes listing.
type UserCode struct {
	ID        string `json:"id"`
	ShortCode string `json:"shortCode"`
	TargetURL string `json:"targetURL"`
}

// UserCodesResponse is the body of GET /codes, scoped to the caller.
type UserCodesResponse struct {
	Codes []UserCode `json:"codes"`
}

// UpdateLinkRequest is the body of PATCH /{id}. An empty field is left
// unchanged; at least one must be present.
type UpdateLinkRequest struct {
	ShortCode string `json:"shortCode" validate:"omitempty,min=1,max=64"`
	TargetURL string `json:"targetURL" validate:"omitempty,url"`
}

// UpdateLinkResponse is the body of a successful PATCH /{id}.
type UpdateLinkResponse struct {
	Updated bool `json:"updated"`
}

// DeleteLinkResponse is the body of a successful DELETE /{id}.
type DeleteLinkResponse struct {
	Deleted bool `json:"deleted"`
}

// ErrorResponse is the structured shape of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Storage backend kinds, selected from configuration.
const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)
