package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasktrail/domain"
)

func TestSignAndVerify(t *testing.T) {
	v := NewVerifier("s3cret", "tasktrail")
	token, err := v.Sign(domain.Identity{UID: "u1", Email: "ada@example.com", Name: "Ada"}, time.Hour)
	require.NoError(t, err)

	id, exp, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UID: "u1", Email: "ada@example.com", Name: "Ada"}, id)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier("s3cret", "tasktrail")

	expired, err := v.Sign(domain.Identity{UID: "u1"}, -time.Minute)
	require.NoError(t, err)
	otherKey, err := NewVerifier("other", "tasktrail").Sign(domain.Identity{UID: "u1"}, time.Hour)
	require.NoError(t, err)
	otherIssuer, err := NewVerifier("s3cret", "elsewhere").Sign(domain.Identity{UID: "u1"}, time.Hour)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "x@example.com"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"uid": "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"expired":      expired,
		"wrong key":    otherKey,
		"wrong issuer": otherIssuer,
		"no subject":   noSubject,
		"alg none":     unsigned,
	} {
		_, _, err := v.Verify(token)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized), name)
	}
}

func TestSubjectFallbacks(t *testing.T) {
	v := NewVerifier("s3cret", "")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "legacy"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	id, exp, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "legacy", id.UID)
	assert.True(t, exp.IsZero())
	assert.Equal(t, "legacy", id.Actor().UID)
}
