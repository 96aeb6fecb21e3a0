package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Keys - независимые ключи, выведенные из одного SESSION_SECRET.
type Keys struct {
	// JWT подписывает cookie сессии (HS256).
	JWT []byte
	// Flash подписывает короткоживущие flash-cookie (HMAC-SHA256).
	Flash []byte
}

const keySalt = "sustainability-council/v1"

// DeriveKeys выводит ключи через HKDF-SHA256, у каждого ключа свой info.
func DeriveKeys(secret string) (Keys, error) {
	if secret == "" {
		return Keys{}, errors.New("session secret cannot be empty")
	}
	jwtKey, err := deriveKey(secret, "session-jwt")
	if err != nil {
		return Keys{}, err
	}
	flashKey, err := deriveKey(secret, "flash-cookie")
	if err != nil {
		return Keys{}, err
	}
	return Keys{JWT: jwtKey, Flash: flashKey}, nil
}

func deriveKey(secret, info string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), []byte(keySalt), []byte(info))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}
