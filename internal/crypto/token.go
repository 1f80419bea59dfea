package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedToken = errors.New("malformed session token")
	ErrInvalidToken   = errors.New("invalid session token signature")
	ErrEmptySecret    = errors.New("session secret is empty")
)

// SignToken returns value and its HMAC-SHA256 signature.
// Format: base64url(value).base64url(mac)
func SignToken(secret []byte, value string) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(value))
	return fmt.Sprintf("%s.%s",
		base64.RawURLEncoding.EncodeToString([]byte(value)),
		base64.RawURLEncoding.EncodeToString(mac.Sum(nil)),
	), nil
}

// VerifyToken checks a token produced by SignToken and returns the signed value.
func VerifyToken(secret []byte, token string) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}

	valuePart, sigPart, ok := strings.Cut(token, ".")
	if !ok || valuePart == "" || sigPart == "" {
		return "", ErrMalformedToken
	}

	value, err := base64.RawURLEncoding.DecodeString(valuePart)
	if err != nil {
		return "", fmt.Errorf("%w: invalid value encoding", ErrMalformedToken)
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return "", fmt.Errorf("%w: invalid signature encoding", ErrMalformedToken)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(value)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return "", ErrInvalidToken
	}

	return string(value), nil
}
