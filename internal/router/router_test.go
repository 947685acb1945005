package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/shortling/internal/auth"
	"github.com/patric-chuzhbe/shortling/internal/db/memorystorage"
	"github.com/patric-chuzhbe/shortling/internal/models"
	"github.com/patric-chuzhbe/shortling/internal/service"
	"github.com/patric-chuzhbe/shortling/internal/shortcode"
	"github.com/patric-chuzhbe/shortling/internal/token"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := memorystorage.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	tokens := token.New([]byte("test-signing-secret"), time.Hour)
	handler := New(service.New(db, tokens), auth.New(tokens))

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return server
}

func newJSONClient(server *httptest.Server) *resty.Client {
	return resty.New().
		SetBaseURL(server.URL).
		SetHeader("Content-Type", "application/json")
}

func signupAndLogin(t *testing.T, client *resty.Client, email string) string {
	t.Helper()

	signupResponse, err := client.R().
		SetBody(models.SignupRequest{
			Firstname: "Ada",
			Email:     email,
			Password:  "pw123",
		}).
		Post("/signup")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, signupResponse.StatusCode())

	var loginResult models.LoginResponse
	loginResponse, err := client.R().
		SetBody(models.LoginRequest{Email: email, Password: "pw123"}).
		SetResult(&loginResult).
		Post("/login")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, loginResponse.StatusCode())
	require.NotEmpty(t, loginResult.Token)

	return loginResult.Token
}

func shorten(t *testing.T, client *resty.Client, bearerToken, url, code string) models.ShortenResponse {
	t.Helper()

	var result models.ShortenResponse
	response, err := client.R().
		SetAuthToken(bearerToken).
		SetBody(models.ShortenRequest{URL: url, Code: code}).
		SetResult(&result).
		Post("/shorten")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, response.StatusCode())

	return result
}

func TestSignupLoginShortenRedirectScenario(t *testing.T) {
	server := setupTestServer(t)
	client := newJSONClient(server)

	bearerToken := signupAndLogin(t, client, "a@x.com")

	created := shorten(t, client, bearerToken, "https://example.com", "")
	assert.Len(t, created.ShortCode, shortcode.Length)
	assert.Equal(t, "https://example.com", created.TargetURL)
	assert.NotEmpty(t, created.ID)

	// follow no redirects so the 302 itself is observable
	httpClient := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	redirectResponse, err := httpClient.Get(server.URL + "/" + created.ShortCode)
	require.NoError(t, err)
	defer redirectResponse.Body.Close()

	assert.Equal(t, http.StatusFound, redirectResponse.StatusCode)
	assert.Equal(t, "https://example.com", redirectResponse.Header.Get("Location"))
}

func TestPostShortenRequiresAuthentication(t *testing.T) {
	server := setupTestServer(t)
	client := newJSONClient(server)

	response, err := client.R().
		SetBody(models.ShortenRequest{URL: "https://example.com"}).
		Post("/shorten")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, response.StatusCode())
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	server := setupTestServer(t)
	client := newJSONClient(server)

	response, err := client.R().
		SetHeader("Authorization", "Basic dXNlcjpwdw==").
		SetBody(models.ShortenRequest{URL: "https://example.com"}).
		Post("/shorten")
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, response.StatusCode())
}

func TestPostSignup(t *testing.T) {
	server := setupTestServer(t)
	client := newJSONClient(server)

	type tTestCase struct {
		name         string
		body         interface{}
		expectedCode int
	}

	tests := []tTestCase{
		{
			name: "valid payload",
			body: models.SignupRequest{
				Firstname: "Ada",
				Lastname:  "Lovelace",
				Email:     "a@x.com",
				Password:  "pw123",
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "duplicate email",
			body: models.SignupRequest{
				Firstname: "Eve",
				Email:     "a@x.com",
				Password:  "pw456",
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "invalid email",
			body: models.SignupRequest{
				Firstname: "Ada",
				Email:     "not-an-email",
				Password:  "pw123",
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "password too short",
			body: models.SignupRequest{
				Firstname: "Ada",
				Email:     "b@x.com",
				Password:  "pw",
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "missing firstname",
			body:         map[string]string{"email": "c@x.com", "password": "pw123"},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response, err := client.R().SetBody(tt.body).Post("/signup")
			require.NoError(t, err)

			assert.Equal(t, tt.expectedCode, response.StatusCode())

			if tt.expectedCode == http.StatusCreated {
				var result models.SignupResponse
				require.NoError(t, json.Unmarshal(response.Body(), &result))
				assert.NotEmpty(t, result.Data.UserID)
			}
		})
	}
}

func TestPostLogin(t *testing.T) {
	server := setupTestServer(t)
	client := newJSONClient(server)

	signupAndLogin(t, client, "a@x.com")

	type tTestCase struct {
		name         string
		body         models.LoginRequest
		expectedCode int
	}

	tests := []tTestCase{
		{
			name:         "unknown email",
			body:         models.LoginRequest{Email: "nobody@x.com", Password: "pw123"},
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "wrong password",
			body:         models.LoginRequest{Email: "a@x.com", Password: "pw124"},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "correct credentials",
			body:         models.LoginRequest{Email: "a@x.com", Password: "pw123"},
			expectedCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response, err := client.R().SetBody(tt.body).Post("/login")
			require.NoError(t, err)

			assert.Equal(t, tt.expectedCode, response.StatusCode())
		})
	}
}

func TestPostShortenVanityCodeConflict(t *testing.T) {
	server := setupTestServer(t)
	client := newJSONClient(server)

	bearerToken := signupAndLogin(t, client, "a@x.com")

	created := shorten(t, client, bearerToken, "https://example.com", "my-code")
	assert.Equal(t, "my-code", created.ShortCode)

	response, err := client.R().
		SetAuthToken(bearerToken).
		SetBody(models.ShortenRequest{URL: "https://example.org", Code: "my-code"}).
		Post("/shorten")
	require.NoError(t, err)

	assert.Equal(t, http.StatusConflict, response.StatusCode())
}

func TestGetCodesIsScopedToCaller(t *testing.T) {
	server := setupTestServer(t)
	client := newJSONClient(server)

	tokenA := signupAndLogin(t, client, "a@x.com")
	tokenB := signupAndLogin(t, client, "b@x.com")

	for i := 0; i < 3; i++ {
		shorten(t, client, tokenA, fmt.Sprintf("https://example.com/%d", i), "")
	}
	shorten(t, client, tokenB, "https://example.org", "")

	var result models.UserCodesResponse
	response, err := client.R().
		SetAuthToken(tokenA).
		SetResult(&result).
		Get("/codes")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode())

	require.Len(t, result.Codes, 3)
	for i, code := range result.Codes {
		assert.Equal(t, fmt.Sprintf("https://example.com/%d", i), code.TargetURL)
	}
}

func TestPatchLink(t *testing.T) {
	server := setupTestServer(t)
	client := newJSONClient(server)

	tokenA := signupAndLogin(t, client, "a@x.com")
	tokenB := signupAndLogin(t, client, "b@x.com")

	created := shorten(t, client, tokenA, "https://example.com", "mine42")

	t.Run("unknown id yields 404", func(t *testing.T) {
		response, err := client.R().
			SetAuthToken(tokenA).
			SetBody(models.UpdateLinkRequest{TargetURL: "https://example.net"}).
			Patch("/no-such-id")
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, response.StatusCode())
	})

	t.Run("foreign link yields 403 and stays untouched", func(t *testing.T) {
		response, err := client.R().
			SetAuthToken(tokenB).
			SetBody(models.UpdateLinkRequest{TargetURL: "https://evil.example"}).
			Patch("/" + created.ID)
		require.NoError(t, err)

		assert.Equal(t, http.StatusForbidden, response.StatusCode())

		httpClient := &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
		redirectResponse, err := httpClient.Get(server.URL + "/mine42")
		require.NoError(t, err)
		defer redirectResponse.Body.Close()
		assert.Equal(t, "https://example.com", redirectResponse.Header.Get("Location"))
	})

	t.Run("empty patch yields 400", func(t *testing.T) {
		response, err := client.R().
			SetAuthToken(tokenA).
			SetBody(models.UpdateLinkRequest{}).
			Patch("/" + created.ID)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, response.StatusCode())
	})

	t.Run("owner updates the target", func(t *testing.T) {
		var result models.UpdateLinkResponse
		response, err := client.R().
			SetAuthToken(tokenA).
			SetBody(models.UpdateLinkRequest{TargetURL: "https://example.net"}).
			SetResult(&result).
			Patch("/" + created.ID)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, response.StatusCode())
		assert.True(t, result.Updated)
	})
}

func TestDeleteLink(t *testing.T) {
	server := setupTestServer(t)
	client := newJSONClient(server)

	tokenA := signupAndLogin(t, client, "a@x.com")
	tokenB := signupAndLogin(t, client, "b@x.com")

	created := shorten(t, client, tokenA, "https://example.com", "gone42")

	response, err := client.R().
		SetAuthToken(tokenB).
		Delete("/" + created.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, response.StatusCode())

	var result models.DeleteLinkResponse
	response, err = client.R().
		SetAuthToken(tokenA).
		SetResult(&result).
		Delete("/" + created.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode())
	assert.True(t, result.Deleted)

	response, err = client.R().
		SetAuthToken(tokenA).
		Delete("/" + created.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, response.StatusCode())
}

func TestGetUnknownCodeYields404(t *testing.T) {
	server := setupTestServer(t)
	client := newJSONClient(server)

	var result models.ErrorResponse
	response, err := client.R().
		SetResult(&result).
		SetError(&result).
		Get("/nosuch")
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, response.StatusCode())
	assert.NotEmpty(t, result.Error)
}
