package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyToken(t *testing.T) {
	req := require.New(t)
	secret := []byte("test-secret")
	id := NewSessionID()

	token, err := SignToken(secret, id)
	req.NoError(err)

	got, err := VerifyToken(secret, token)
	req.NoError(err)
	req.Equal(id, got)
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	req := require.New(t)
	secret := []byte("test-secret")

	token, err := SignToken(secret, "session-a")
	req.NoError(err)

	forged, err := SignToken([]byte("other-secret"), "session-a")
	req.NoError(err)
	_, err = VerifyToken(secret, forged)
	req.ErrorIs(err, ErrInvalidToken)

	valuePart, sigPart, _ := strings.Cut(token, ".")
	other, _ := SignToken(secret, "session-b")
	otherValue, _, _ := strings.Cut(other, ".")
	_, err = VerifyToken(secret, otherValue+"."+sigPart)
	req.ErrorIs(err, ErrInvalidToken)

	for _, bad := range []string{"", "novalue", valuePart + ".", "." + sigPart, "!!!." + sigPart} {
		_, err = VerifyToken(secret, bad)
		req.ErrorIs(err, ErrMalformedToken, bad)
	}
}

func TestEmptySecret(t *testing.T) {
	_, err := SignToken(nil, "x")
	require.ErrorIs(t, err, ErrEmptySecret)
	_, err = VerifyToken(nil, "eA.eA")
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestNewSessionIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		require.False(t, seen[id])
		seen[id] = true
	}
}
