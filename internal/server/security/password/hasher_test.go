package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/swengineer/internal/common"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("Secret#123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret#123", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	assert.True(t, h.Compare("Secret#123", hash))
	assert.False(t, h.Compare("secret#123", hash))
	assert.False(t, h.Compare("", hash))
	assert.False(t, h.Compare("Secret#123", ""))
	assert.False(t, h.Compare("Secret#123", "not-a-bcrypt-hash"))
}

func TestNewHasher_OutOfRangeCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(1).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(99).Cost)
	assert.Equal(t, 12, NewHasher(12).Cost)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", common.ErrInvalidPassword},
		{"seven chars", "short12", common.ErrInvalidPasswordLength},
		{"eight chars", "exactly8", nil},
		{"multibyte counted as characters", "пароль12", nil},
		{"bcrypt limit", strings.Repeat("a", 72), nil},
		{"over bcrypt limit", strings.Repeat("a", 73), common.ErrInvalidPasswordLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
