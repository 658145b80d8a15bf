package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordIsSalted(t *testing.T) {
	h1, err := HashPassword("pw1")
	require.NoError(t, err)
	h2, err := HashPassword("pw1")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "two hashes of the same password must differ")
	assert.True(t, CheckPassword("pw1", h1))
	assert.True(t, CheckPassword("pw1", h2))
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	cases := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{"match", "correct horse", hash, true},
		{"wrong password", "battery staple", hash, false},
		{"empty password", "", hash, false},
		{"malformed hash", "correct horse", "not-a-bcrypt-hash", false},
		{"empty hash", "correct horse", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CheckPassword(tc.password, tc.hash))
		})
	}
}

func TestGenerateSessionToken(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		tok, err := GenerateSessionToken()
		require.NoError(t, err)
		assert.Len(t, tok, 43)
		assert.False(t, seen[tok], "duplicate token")
		seen[tok] = true
	}
}
