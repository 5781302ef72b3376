package utils

import (
	"strings"
	"testing"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter", "boom", 10, "boom"},
		{"exact", "boom", 4, "boom"},
		{"cut", "boom!", 4, "boom"},
		{"multibyte", "héllo", 2, "hé"},
		{"zero", "boom", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.max))
		})
	}

	long := strings.Repeat("x", 1500)
	assert.Len(t, Truncate(long, MaxErrorMessageLen), 1000)
}

func TestTruncateUTF16(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"ascii", "boom", 10, "boom"},
		{"bmp counts one unit", "héllo", 2, "hé"},
		{"emoji counts two units", "😀😀😀", 4, "😀😀"},
		{"no half surrogate", "a😀", 2, "a"},
		{"zero", "boom", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateUTF16(tt.in, tt.max))
		})
	}
}

func TestTruncateUTF16_EmojiErrorFitsColumn(t *testing.T) {
	msg := Truncate(strings.Repeat("😀", 1200), MaxErrorMessageLen)
	require.Len(t, utf16.Encode([]rune(msg)), 2000)

	got := TruncateUTF16(msg, MaxErrorMessageLen)
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, utf16.Encode([]rune(got)), MaxErrorMessageLen)
	assert.Equal(t, strings.Repeat("😀", 500), got)
}

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken(map[string]interface{}{"sub": "u1"}, "secret")
	require.NoError(t, err)

	parsed, err := jwt.Parse(tok, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "u1", claims["sub"])
}
