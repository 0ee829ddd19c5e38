package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSessionService_IssueAndParse(t *testing.T) {
	svc := NewSessionService(SessionConfig{SecretKey: testSecret, TTL: time.Hour, Issuer: "jobportal"})

	token, err := svc.Issue(42, "kari", "student")
	require.NoError(t, err)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "kari", claims.Username)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestSessionService_Expired(t *testing.T) {
	svc := NewSessionService(SessionConfig{SecretKey: testSecret, TTL: time.Minute, Issuer: "jobportal"})
	issued := time.Now()
	svc.now = func() time.Time { return issued }

	token, err := svc.Issue(1, "kari", "student")
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = svc.Parse(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestSessionService_Tampered(t *testing.T) {
	svc := NewSessionService(SessionConfig{SecretKey: testSecret, TTL: time.Hour, Issuer: "jobportal"})
	other := NewSessionService(SessionConfig{SecretKey: "another-secret-another-secret-00", TTL: time.Hour, Issuer: "jobportal"})

	token, err := other.Issue(1, "kari", "admin")
	require.NoError(t, err)

	_, err = svc.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Parse("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionService_WrongIssuer(t *testing.T) {
	svc := NewSessionService(SessionConfig{SecretKey: testSecret, TTL: time.Hour, Issuer: "jobportal"})
	other := NewSessionService(SessionConfig{SecretKey: testSecret, TTL: time.Hour, Issuer: "elsewhere"})

	token, err := other.Issue(1, "kari", "student")
	require.NoError(t, err)

	_, err = svc.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	BcryptCost = 4

	hash, err := HashPassword("Passord12")
	require.NoError(t, err)
	assert.NotEqual(t, "Passord12", hash)
	assert.True(t, CheckPassword(hash, "Passord12"))
	assert.False(t, CheckPassword(hash, "Passord13"))
}

func TestGenerateResetToken(t *testing.T) {
	token, digest, err := GenerateResetToken()
	require.NoError(t, err)

	assert.Len(t, token, ResetTokenBytes*2)
	assert.Equal(t, HashResetToken(token), digest)
	assert.NotEqual(t, token, digest, "only the digest is persisted")

	again, _, err := GenerateResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, again)
}
