package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyplan-api/internal/models"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
)

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{Secret: "secret", Issuer: "studyplan"})

	token, err := svc.IssueToken("user-1", "ada@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestAuthServiceRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthService(nil, AuthConfig{Secret: "other"})
	token, err := issuer.IssueToken("user-1", "", time.Hour)
	require.NoError(t, err)

	_, err = NewAuthService(nil, AuthConfig{Secret: "secret"}).ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{Secret: "secret"})
	token, err := svc.IssueToken("user-1", "", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthServiceRejectsWrongIssuer(t *testing.T) {
	token, err := NewAuthService(nil, AuthConfig{Secret: "secret", Issuer: "elsewhere"}).IssueToken("user-1", "", time.Hour)
	require.NoError(t, err)

	_, err = NewAuthService(nil, AuthConfig{Secret: "secret", Issuer: "studyplan"}).ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthServiceFallsBackToSubject(t *testing.T) {
	claims := &models.JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-9",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	got, err := NewAuthService(nil, AuthConfig{Secret: "secret"}).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-9", got.UserID)
}

func TestAuthServiceRejectsNoneAlgorithm(t *testing.T) {
	claims := &models.JWTClaims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewAuthService(nil, AuthConfig{Secret: "secret"}).ValidateToken(token)
	assert.Error(t, err)
}
