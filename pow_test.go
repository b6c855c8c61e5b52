package main

import (
	"crypto/sha256"
	"strconv"
	"testing"

	"leadform/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solvePow(t *testing.T, challenge string) string {
	t.Helper()
	for nonce := 0; nonce < 10_000_000; nonce++ {
		candidate := strconv.Itoa(nonce)
		hash := sha256.Sum256([]byte(challenge + candidate))
		if hasLeadingZeroBits(hash[:], constants.POW_DIFFICULTY) {
			return candidate
		}
	}
	t.Fatal("could not solve challenge")
	return ""
}

func TestChallengeVerifyAndConsume(t *testing.T) {
	cs := NewChallengeStore()

	challenge, err := cs.GenerateChallenge()
	require.NoError(t, err)
	require.Len(t, challenge, 64)

	nonce := solvePow(t, challenge)
	assert.True(t, cs.VerifyPow(challenge, nonce))

	// consumed on first successful verification
	assert.False(t, cs.VerifyPow(challenge, nonce))
}

func TestVerifyUnknownChallenge(t *testing.T) {
	cs := NewChallengeStore()
	assert.False(t, cs.VerifyPow("deadbeef", "0"))
}

func TestVerifyWrongNonce(t *testing.T) {
	cs := NewChallengeStore()
	challenge, err := cs.GenerateChallenge()
	require.NoError(t, err)

	// an arbitrary nonce is overwhelmingly unlikely to satisfy the difficulty
	assert.False(t, cs.VerifyPow(challenge, "not-a-solution"))
}

func TestHasLeadingZeroBits(t *testing.T) {
	assert.True(t, hasLeadingZeroBits([]byte{0x00, 0xFF}, 8))
	assert.True(t, hasLeadingZeroBits([]byte{0x00, 0x1F}, 11))
	assert.False(t, hasLeadingZeroBits([]byte{0x00, 0x20}, 11))
	assert.False(t, hasLeadingZeroBits([]byte{0x80}, 1))
	assert.True(t, hasLeadingZeroBits([]byte{0x40}, 1))
	assert.False(t, hasLeadingZeroBits([]byte{0x00}, 9))
}
