package security_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/PritStyling132/Rentpal-sub001/internal/security"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := security.NewTokenService("secret", time.Hour)

	token, err := svc.CreateForUser(security.Identity{UserID: 42, Email: "owner@example.com", Role: "owner"})
	assert.NoError(t, err)

	id, err := svc.Parse(token)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id.UserID)
	assert.Equal(t, "owner@example.com", id.Email)
	assert.Equal(t, "owner", id.Role)
}

func TestExpiredToken(t *testing.T) {
	svc := security.NewTokenService("secret", time.Hour)

	token, err := svc.CreateWithTTL(security.Identity{UserID: 42}, -time.Minute)
	assert.NoError(t, err)

	_, err = svc.Parse(token)
	assert.ErrorIs(t, err, security.ErrTokenExpired)
}

func TestMalformedToken(t *testing.T) {
	svc := security.NewTokenService("secret", time.Hour)

	_, err := svc.Parse("not-a-token")
	assert.ErrorIs(t, err, security.ErrTokenInvalid)
}

func TestWrongSecret(t *testing.T) {
	issuer := security.NewTokenService("secret-a", time.Hour)
	verifier := security.NewTokenService("secret-b", time.Hour)

	token, err := issuer.CreateForUser(security.Identity{UserID: 42, Role: "leaser"})
	assert.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.ErrorIs(t, err, security.ErrTokenInvalid)
}
