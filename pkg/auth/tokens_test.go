package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/shopdesk/pkg/crypt"
)

func TestFileTokensPersist(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	f := &FileTokens{Path: path}

	empty, err := f.Load(ctx)
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	require.NoError(t, f.Save(ctx, Tokens{AccessToken: "a", RefreshToken: "r"}))
	got, err := (&FileTokens{Path: path}).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Tokens{AccessToken: "a", RefreshToken: "r"}, got)

	require.NoError(t, f.Clear(ctx))
	require.NoError(t, f.Clear(ctx))
	got, _ = f.Load(ctx)
	assert.True(t, got.Empty())
}

func TestFileTokensSealed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	sealer, err := crypt.New("k1")
	require.NoError(t, err)

	// A plain file from before the key was set still loads.
	require.NoError(t, (&FileTokens{Path: path}).Save(ctx, Tokens{AccessToken: "old"}))
	f := &FileTokens{Path: path, Sealer: sealer}
	got, err := f.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old", got.AccessToken)

	require.NoError(t, f.Save(ctx, Tokens{AccessToken: "new"}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "accessToken")

	got, err = f.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", got.AccessToken)

	other, err := crypt.New("k2")
	require.NoError(t, err)
	_, err = (&FileTokens{Path: path, Sealer: other}).Load(ctx)
	assert.ErrorIs(t, err, crypt.ErrOpen)
}

func TestOpenTokenStore(t *testing.T) {
	s, err := OpenTokenStore("memory", "", nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryTokens{}, s)

	_, err = OpenTokenStore("redis", "", nil)
	assert.Error(t, err)

	_, err = OpenTokenStore("cookie", "", nil)
	assert.Error(t, err)
}

func TestClaimsOfAndExpired(t *testing.T) {
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "u1",
		Email:  "admin@shop.test",
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte("backend-only-secret"))
	require.NoError(t, err)

	c, err := ClaimsOf(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, "admin", c.Role)

	assert.False(t, Expired(token, now))
	assert.True(t, Expired(token, now.Add(2*time.Hour)))
	assert.False(t, Expired("not-a-jwt", now))

	_, err = ClaimsOf("not-a-jwt")
	assert.Error(t, err)
}
