package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	service, err := NewJWTService(JWTConfig{Secret: "s3cret", Issuer: "tenderdesk"})
	require.NoError(t, err)

	token, err := service.GenerateAccessToken("user-1", "alice@example.com")
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, "tenderdesk", claims.Issuer)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	issued := time.Now()
	clock := issued

	service, err := NewJWTService(JWTConfig{
		Secret:         "s3cret",
		AccessTokenTTL: time.Minute,
		Clock:          func() time.Time { return clock },
	})
	require.NoError(t, err)

	token, err := service.GenerateAccessToken("user-1", "")
	require.NoError(t, err)

	clock = issued.Add(2 * time.Minute)
	_, err = service.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestJWTRejectsWrongIssuer(t *testing.T) {
	issuerA, err := NewJWTService(JWTConfig{Secret: "s3cret", Issuer: "a"})
	require.NoError(t, err)
	issuerB, err := NewJWTService(JWTConfig{Secret: "s3cret", Issuer: "b"})
	require.NoError(t, err)

	token, err := issuerA.GenerateAccessToken("user-1", "")
	require.NoError(t, err)

	_, err = issuerB.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	signer, err := NewJWTService(JWTConfig{Secret: "s3cret"})
	require.NoError(t, err)
	verifier, err := NewJWTService(JWTConfig{Secret: "other"})
	require.NoError(t, err)

	token, err := signer.GenerateAccessToken("user-1", "")
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestJWTRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
}
