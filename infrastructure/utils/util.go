package utils

import (
	"time"
	"unicode/utf16"

	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"

	"github.com/golang-jwt/jwt"
)

// MaxErrorMessageLen bounds error text persisted on queue items.
const MaxErrorMessageLen = 1000

func GetCurrentTime() time.Time {
	return time.Now().UTC()
}

// Truncate returns at most max characters of s without splitting a rune.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// TruncateUTF16 returns the longest rune-aligned prefix of s that fits in max UTF-16 code units,
// which is how SQL Server measures NVARCHAR length.
func TruncateUTF16(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i, r := range s {
		w := utf16.RuneLen(r)
		if w < 0 {
			w = 1
		}
		if n+w > max {
			return s[:i]
		}
		n += w
	}
	return s
}

func GenerateToken(payload map[string]interface{}, secretKey string) (string, error) {
	var claims jwt.MapClaims = payload
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while generate token")
		return "", err
	}
	return tokenString, nil
}
