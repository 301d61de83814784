package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJWTTokens_IssueAndVerify(t *testing.T) {
	tokens := NewJWTTokens("test-secret")

	signed, err := tokens.Issue("ops-client", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	subject, err := tokens.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, "ops-client", subject)
}

func TestJWTTokens_VerifyRejectsWrongSecret(t *testing.T) {
	signed, err := NewJWTTokens("secret-a").Issue("ops-client", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTTokens("secret-b").Verify(signed)
	require.Error(t, err)
}

func TestJWTTokens_VerifyRejectsExpired(t *testing.T) {
	tokens := NewJWTTokens("test-secret")
	signed, err := tokens.Issue("ops-client", -time.Minute)
	require.NoError(t, err)

	_, err = tokens.Verify(signed)
	require.Error(t, err)
}
