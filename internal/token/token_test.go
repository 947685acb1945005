package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	svc := New([]byte(testSecret), time.Hour)

	tokenString, err := svc.Issue("user-42")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := svc.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
}

func TestIssueRejectsEmptyUserID(t *testing.T) {
	svc := New([]byte(testSecret), time.Hour)

	_, err := svc.Issue("")
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestVerifyFailsUniformly(t *testing.T) {
	svc := New([]byte(testSecret), time.Hour)

	valid, err := svc.Issue("user-42")
	require.NoError(t, err)

	tests := []struct {
		name        string
		tokenString string
		verifier    *Service
	}{
		{
			name:        "garbage",
			tokenString: "not.a.token",
			verifier:    svc,
		},
		{
			name:        "empty",
			tokenString: "",
			verifier:    svc,
		},
		{
			name:        "tampered payload",
			tokenString: valid[:len(valid)-3] + "xxx",
			verifier:    svc,
		},
		{
			name:        "wrong secret",
			tokenString: valid,
			verifier:    New([]byte("a different secret"), time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := tt.verifier.Verify(tt.tokenString)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := New([]byte(testSecret), -time.Minute)

	expired, err := svc.Issue("user-42")
	require.NoError(t, err)

	_, err = svc.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
