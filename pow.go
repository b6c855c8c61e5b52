package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"leadform/constants"

	"github.com/spf13/viper"
)

// ChallengeStore is a thread-safe in-memory store for PoW challenges issued
// to the sign-up form.
type ChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]time.Time
}

// NewChallengeStore creates a new empty ChallengeStore.
func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{
		challenges: make(map[string]time.Time),
	}
}

// GenerateChallenge creates a new random challenge, stores it, and returns
// the hex-encoded challenge string.
func (cs *ChallengeStore) GenerateChallenge() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	challenge := hex.EncodeToString(buf)

	cs.mu.Lock()
	cs.challenges[challenge] = time.Now()
	cs.mu.Unlock()

	return challenge, nil
}

// VerifyPow validates a challenge+nonce pair:
//   - The challenge must exist and must not be expired (10-minute TTL).
//   - SHA-256(challenge + nonce) must have the required leading zero bits.
//
// On successful verification the challenge is consumed (deleted).
func (cs *ChallengeStore) VerifyPow(challenge, nonce string) bool {
	cs.mu.Lock()
	issuedAt, exists := cs.challenges[challenge]
	if !exists {
		cs.mu.Unlock()
		return false
	}
	ttl := time.Duration(constants.POW_CHALLENGE_TTL_MINUTES) * time.Minute
	if time.Since(issuedAt) > ttl {
		delete(cs.challenges, challenge)
		cs.mu.Unlock()
		return false
	}
	// Consume the challenge so it can't be reused
	delete(cs.challenges, challenge)
	cs.mu.Unlock()

	hash := sha256.Sum256([]byte(challenge + nonce))
	return hasLeadingZeroBits(hash[:], constants.POW_DIFFICULTY)
}

// hasLeadingZeroBits checks whether the byte slice has at least n leading zero bits.
func hasLeadingZeroBits(data []byte, n int) bool {
	fullBytes := n / 8
	remainBits := n % 8

	for i := 0; i < fullBytes; i++ {
		if i >= len(data) || data[i] != 0 {
			return false
		}
	}
	if remainBits > 0 {
		if fullBytes >= len(data) {
			return false
		}
		// The top remainBits of this byte must be zero.
		mask := byte(0xFF << (8 - remainBits))
		if data[fullBytes]&mask != 0 {
			return false
		}
	}
	return true
}

// CleanupExpired removes all challenges older than the TTL. Intended to be run
// periodically in a goroutine.
func (cs *ChallengeStore) CleanupExpired() {
	ttl := time.Duration(constants.POW_CHALLENGE_TTL_MINUTES) * time.Minute
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for k, issuedAt := range cs.challenges {
		if time.Since(issuedAt) > ttl {
			delete(cs.challenges, k)
		}
	}
}

// StartCleanupLoop runs CleanupExpired every 5 minutes in the background.
func (cs *ChallengeStore) StartCleanupLoop() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cs.CleanupExpired()
		}
	}()
}

// Global challenge store, initialized in main().
var powChallengeStore *ChallengeStore

// PowChallengeHandler handles GET /api/pow-challenge.
// It returns a JSON object with a fresh challenge string.
func PowChallengeHandler(w http.ResponseWriter, r *http.Request) {
	if !viper.GetBool("security.pow_enabled") {
		http.Error(w, "Proof of work is not enabled", http.StatusBadRequest)
		return
	}

	challenge, err := powChallengeStore.GenerateChallenge()
	if err != nil {
		log.Printf("Error generating PoW challenge: %v", err)
		http.Error(w, "Error generating challenge", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"challenge":  challenge,
		"difficulty": constants.POW_DIFFICULTY,
	})
}
