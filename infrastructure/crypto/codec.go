package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
)

const (
	keySize   = 32
	nonceSize = 12
	tagSize   = 16
)

// Codec seals OAuth tokens with AES-256-GCM. Sealed values are
// "<b64 nonce>.<b64 tag>.<b64 ciphertext>".
type Codec struct {
	aead cipher.AEAD
}

func NewCodec(keyB64 string) (*Codec, error) {
	if strings.TrimSpace(keyB64) == "" {
		return nil, &apperr.ConfigError{Msg: "TOKEN_ENCRYPTION_KEY not set"}
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(keyB64))
	if err != nil {
		return nil, &apperr.ConfigError{Msg: "TOKEN_ENCRYPTION_KEY is not valid base64"}
	}
	if len(key) != keySize {
		return nil, &apperr.ConfigError{Msg: "TOKEN_ENCRYPTION_KEY must decode to 32 bytes"}
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &apperr.ConfigError{Msg: err.Error()}
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, &apperr.ConfigError{Msg: err.Error()}
	}
	return &Codec{aead: aead}, nil
}

func (c *Codec) Seal(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", &apperr.CodecError{Msg: "nonce", Err: err}
	}
	out := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ct, tag := out[:len(out)-tagSize], out[len(out)-tagSize:]

	enc := base64.StdEncoding
	return enc.EncodeToString(nonce) + "." + enc.EncodeToString(tag) + "." + enc.EncodeToString(ct), nil
}

func (c *Codec) Open(sealed string) (string, error) {
	parts := strings.Split(sealed, ".")
	if len(parts) != 3 {
		return "", &apperr.CodecError{Msg: "malformed sealed value"}
	}
	enc := base64.StdEncoding
	nonce, err := enc.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return "", &apperr.CodecError{Msg: "bad nonce", Err: err}
	}
	tag, err := enc.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return "", &apperr.CodecError{Msg: "bad tag", Err: err}
	}
	ct, err := enc.DecodeString(parts[2])
	if err != nil {
		return "", &apperr.CodecError{Msg: "bad ciphertext", Err: err}
	}
	plain, err := c.aead.Open(nil, nonce, append(ct, tag...), nil)
	if err != nil {
		return "", &apperr.CodecError{Msg: "authentication failed", Err: err}
	}
	return string(plain), nil
}
