package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/cable-billing/internal/utils"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := utils.HashPassword("admin", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "admin", hash)
	assert.True(t, utils.VerifyPassword(hash, "admin"))
	assert.False(t, utils.VerifyPassword(hash, "Admin"))
}

func TestHashPasswordFallsBackOnBadCost(t *testing.T) {
	t.Parallel()

	hash, err := utils.HashPassword("secret", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	in := utils.Claims{UserID: 7, Username: "meera", IsAdmin: true}
	tok, err := utils.NewAccessToken("k3y", in, 5)
	require.NoError(t, err)

	out, err := utils.ParseAccessToken("k3y", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = utils.ParseAccessToken("other", tok.Token)
	require.ErrorIs(t, err, utils.ErrInvalidToken)
}

func TestExpiredAccessToken(t *testing.T) {
	t.Parallel()

	tok, err := utils.NewAccessToken("k3y", utils.Claims{UserID: 1, Username: "a"}, -1)
	require.NoError(t, err)
	_, err = utils.ParseAccessToken("k3y", tok.Token)
	require.ErrorIs(t, err, utils.ErrInvalidToken)
}
