// Package router builds the HTTP surface of the service: account
// endpoints, ownership-scoped short link management and the public
// redirect. Request bodies are validated here; domain failures arrive as
// sentinel errors from the service layer and are mapped to structured
// JSON responses.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/shortling/internal/auth"
	"github.com/patric-chuzhbe/shortling/internal/gzippedhttp"
	"github.com/patric-chuzhbe/shortling/internal/link"
	"github.com/patric-chuzhbe/shortling/internal/logger"
	"github.com/patric-chuzhbe/shortling/internal/models"
	"github.com/patric-chuzhbe/shortling/internal/service"
)

type linkService interface {
	Signup(ctx context.Context, firstname, lastname, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Shorten(ctx context.Context, targetURL, requestedCode, ownerID string) (*link.ShortLink, error)
	UserLinks(ctx context.Context, ownerID string) ([]link.ShortLink, error)
	UpdateLink(ctx context.Context, linkID, ownerID, newCode, newTargetURL string) error
	DeleteLink(ctx context.Context, linkID, ownerID string) error
	Resolve(ctx context.Context, code string) (string, error)
	Ping(ctx context.Context) error
}

type authenticator interface {
	AttachIdentity(h http.Handler) http.Handler
	RequireAuth(h http.Handler) http.Handler
}

// Router bundles the handlers with their dependencies.
type Router struct {
	service  linkService
	validate *validator.Validate
}

// New assembles the chi router with logging, gzip and the authentication
// gate. AttachIdentity runs globally; RequireAuth only on the routes
// that declare it.
func New(svc linkService, authGate authenticator) *chi.Mux {
	handlers := &Router{
		service:  svc,
		validate: validator.New(),
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)
	router.Use(gzippedhttp.WithGzip)
	router.Use(authGate.AttachIdentity)

	router.Post(`/signup`, handlers.PostSignup)
	router.Post(`/login`, handlers.PostLogin)
	router.Get(`/ping`, handlers.GetPing)

	// chi requires the same wildcard name at a given position across
	// methods, so the public redirect shares the `{id}` placeholder with
	// PATCH and DELETE; for GET it carries the short code.
	router.Get(`/{id}`, handlers.GetRedirectToTargetURL)

	router.Group(func(protected chi.Router) {
		protected.Use(authGate.RequireAuth)
		protected.Post(`/shorten`, handlers.PostShorten)
		protected.Get(`/codes`, handlers.GetCodes)
		protected.Patch(`/{id}`, handlers.PatchLink)
		protected.Delete(`/{id}`, handlers.DeleteLink)
	})

	return router
}

// PostSignup handles POST /signup.
func (rt *Router) PostSignup(response http.ResponseWriter, request *http.Request) {
	var signupRequest models.SignupRequest
	if !rt.decodeAndValidate(response, request, &signupRequest) {
		return
	}

	userID, err := rt.service.Signup(
		request.Context(),
		signupRequest.Firstname,
		signupRequest.Lastname,
		signupRequest.Email,
		signupRequest.Password,
	)
	if errors.Is(err, service.ErrEmailTaken) {
		writeJSONError(
			response,
			http.StatusBadRequest,
			fmt.Sprintf("user with this email %s already exists", signupRequest.Email),
		)
		return
	}
	if err != nil {
		rt.internalError(response, "Signup", err)
		return
	}

	writeJSON(response, http.StatusCreated, models.SignupResponse{
		Data: models.SignupResponseData{UserID: userID},
	})
}

// PostLogin handles POST /login.
func (rt *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	var loginRequest models.LoginRequest
	if !rt.decodeAndValidate(response, request, &loginRequest) {
		return
	}

	token, err := rt.service.Login(request.Context(), loginRequest.Email, loginRequest.Password)
	if errors.Is(err, service.ErrUserNotFound) {
		writeJSONError(
			response,
			http.StatusNotFound,
			fmt.Sprintf("user with email %s does not exist", loginRequest.Email),
		)
		return
	}
	if errors.Is(err, service.ErrWrongPassword) {
		writeJSONError(response, http.StatusBadRequest, "invalid password")
		return
	}
	if err != nil {
		rt.internalError(response, "Login", err)
		return
	}

	writeJSON(response, http.StatusOK, models.LoginResponse{Token: token})
}

// PostShorten handles POST /shorten. RequireAuth guarantees an identity
// is attached before this handler runs.
func (rt *Router) PostShorten(response http.ResponseWriter, request *http.Request) {
	userID, _ := auth.UserIDFromContext(request.Context())

	var shortenRequest models.ShortenRequest
	if !rt.decodeAndValidate(response, request, &shortenRequest) {
		return
	}

	lnk, err := rt.service.Shorten(request.Context(), shortenRequest.URL, shortenRequest.Code, userID)
	if errors.Is(err, service.ErrCodeTaken) {
		writeJSONError(response, http.StatusConflict, "short code already in use")
		return
	}
	if err != nil {
		rt.internalError(response, "Shorten", err)
		return
	}

	writeJSON(response, http.StatusCreated, models.ShortenResponse{
		ID:        lnk.ID,
		ShortCode: lnk.Code,
		TargetURL: lnk.TargetURL,
	})
}

// GetCodes handles GET /codes, scoped to the caller.
func (rt *Router) GetCodes(response http.ResponseWriter, request *http.Request) {
	userID, _ := auth.UserIDFromContext(request.Context())

	links, err := rt.service.UserLinks(request.Context(), userID)
	if err != nil {
		rt.internalError(response, "UserLinks", err)
		return
	}

	codes := funk.Map(links, func(lnk link.ShortLink) models.UserCode {
		return models.UserCode{
			ID:        lnk.ID,
			ShortCode: lnk.Code,
			TargetURL: lnk.TargetURL,
		}
	}).([]models.UserCode)

	writeJSON(response, http.StatusOK, models.UserCodesResponse{Codes: codes})
}

// PatchLink handles PATCH /{id}.
func (rt *Router) PatchLink(response http.ResponseWriter, request *http.Request) {
	userID, _ := auth.UserIDFromContext(request.Context())
	linkID := chi.URLParam(request, "id")

	var updateRequest models.UpdateLinkRequest
	if !rt.decodeAndValidate(response, request, &updateRequest) {
		return
	}
	if updateRequest.ShortCode == "" && updateRequest.TargetURL == "" {
		writeJSONError(response, http.StatusBadRequest, "at least one of shortCode or targetURL must be provided")
		return
	}

	err := rt.service.UpdateLink(request.Context(), linkID, userID, updateRequest.ShortCode, updateRequest.TargetURL)
	if rt.writeLinkMutationError(response, "UpdateLink", err) {
		return
	}

	writeJSON(response, http.StatusOK, models.UpdateLinkResponse{Updated: true})
}

// DeleteLink handles DELETE /{id}.
func (rt *Router) DeleteLink(response http.ResponseWriter, request *http.Request) {
	userID, _ := auth.UserIDFromContext(request.Context())
	linkID := chi.URLParam(request, "id")

	err := rt.service.DeleteLink(request.Context(), linkID, userID)
	if rt.writeLinkMutationError(response, "DeleteLink", err) {
		return
	}

	writeJSON(response, http.StatusOK, models.DeleteLinkResponse{Deleted: true})
}

// GetRedirectToTargetURL handles the public GET /{shortCode}.
func (rt *Router) GetRedirectToTargetURL(response http.ResponseWriter, request *http.Request) {
	shortCode := chi.URLParam(request, "id")

	targetURL, err := rt.service.Resolve(request.Context(), shortCode)
	if errors.Is(err, service.ErrLinkNotFound) {
		writeJSONError(response, http.StatusNotFound, "invalid link")
		return
	}
	if err != nil {
		rt.internalError(response, "Resolve", err)
		return
	}

	http.Redirect(response, request, targetURL, http.StatusFound)
}

// GetPing handles GET /ping.
func (rt *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := rt.service.Ping(request.Context()); err != nil {
		logger.Log.Debugln("Error calling the `rt.service.Ping()`: ", err)
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

func (rt *Router) decodeAndValidate(response http.ResponseWriter, request *http.Request, target interface{}) bool {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		writeJSONError(response, http.StatusBadRequest, "request body is not valid JSON")
		return false
	}

	if err := rt.validate.Struct(target); err != nil {
		writeJSONError(response, http.StatusBadRequest, err.Error())
		return false
	}

	return true
}

// writeLinkMutationError maps the shared update/delete error ladder.
// It reports whether a response was already written.
func (rt *Router) writeLinkMutationError(response http.ResponseWriter, operation string, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, service.ErrLinkNotFound):
		writeJSONError(response, http.StatusNotFound, "short link not found")
	case errors.Is(err, service.ErrNotOwner):
		writeJSONError(response, http.StatusForbidden, "short link belongs to another user")
	case errors.Is(err, service.ErrCodeTaken):
		writeJSONError(response, http.StatusConflict, "short code already in use")
	default:
		rt.internalError(response, operation, err)
	}

	return true
}

func (rt *Router) internalError(response http.ResponseWriter, operation string, err error) {
	logger.Log.Debugln("Error calling the `rt.service."+operation+"()`: ", err)
	writeJSONError(response, http.StatusInternalServerError, "internal server error")
}

func writeJSON(response http.ResponseWriter, status int, payload interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error encoding the response payload: ", err)
	}
}

func writeJSONError(response http.ResponseWriter, status int, message string) {
	writeJSON(response, status, models.ErrorResponse{Error: message})
}
