package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	apperrors "calcapi/internal/errors"
)

// Supported hashing algorithms. The name is stored as a prefix of every
// encoded hash so the verifier can pick the right transform.
const (
	AlgoBcrypt   = "bcrypt"
	AlgoArgon2id = "argon2id"
)

const (
	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 2
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16

	// Upper bounds accepted when reading stored hashes.
	maxArgonMemory  uint32 = 1024 * 1024
	maxArgonTime    uint32 = 16
	maxArgonKeyLen         = 128

	// bcrypt ignores input past this many bytes.
	maxBcryptPasswordBytes = 72
)

// ReasonMaximumLength is reported when a password is too long for the hash algorithm.
const ReasonMaximumLength = "maximum length"

// PasswordHasher turns plaintext passwords into tagged hashes and verifies
// candidates against them. Encoded form: "<algo>$<payload>".
type PasswordHasher struct {
	algo       string
	bcryptCost int

	dummyOnce sync.Once
	dummyHash string
}

// NewPasswordHasher creates a hasher producing hashes with algo.
func NewPasswordHasher(algo string, bcryptCost int) (*PasswordHasher, error) {
	switch algo {
	case AlgoBcrypt:
		if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
		}
	case AlgoArgon2id:
	default:
		return nil, fmt.Errorf("unsupported password hash algorithm %q", algo)
	}
	return &PasswordHasher{algo: algo, bcryptCost: bcryptCost}, nil
}

// Algorithm returns the algorithm new hashes are produced with.
func (h *PasswordHasher) Algorithm() string {
	return h.algo
}

// Hash hashes password with the configured algorithm.
func (h *PasswordHasher) Hash(password string) (string, error) {
	switch h.algo {
	case AlgoArgon2id:
		salt := make([]byte, argonSaltLen)
		if _, err := rand.Read(salt); err != nil {
			return "", fmt.Errorf("generate salt: %w", err)
		}
		key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
		return fmt.Sprintf("%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
			AlgoArgon2id, argon2.Version, argonMemory, argonTime, argonThreads,
			base64.RawStdEncoding.EncodeToString(salt),
			base64.RawStdEncoding.EncodeToString(key),
		), nil
	default:
		if len(password) > maxBcryptPasswordBytes {
			return "", apperrors.NewValidationError(ReasonMaximumLength, "Password must be at most 72 bytes")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt hash: %w", err)
		}
		return AlgoBcrypt + "$" + string(hashed), nil
	}
}

// Verify reports whether password matches encoded. Malformed or unknown
// encodings never match.
func (h *PasswordHasher) Verify(password, encoded string) bool {
	algo, payload := splitEncoded(encoded)
	switch algo {
	case AlgoBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(payload), []byte(password)) == nil
	case AlgoArgon2id:
		return verifyArgon2id(password, payload)
	default:
		return false
	}
}

// VerifyDummy burns roughly the same time as a real Verify against a hash
// of the configured algorithm. Used when no stored hash exists.
func (h *PasswordHasher) VerifyDummy(password string) {
	h.dummyOnce.Do(func() {
		// Hash only fails if the system RNG does; Verify then returns false as usual.
		h.dummyHash, _ = h.Hash("dummy-password-for-timing")
	})
	_ = h.Verify(password, h.dummyHash)
}

// NeedsRehash reports whether encoded lacks an algorithm tag or was produced
// with a different algorithm or bcrypt cost than the hasher is configured for.
func (h *PasswordHasher) NeedsRehash(encoded string) bool {
	if strings.HasPrefix(encoded, "$2") {
		return true
	}
	algo, payload := splitEncoded(encoded)
	if algo != h.algo {
		return true
	}
	if algo == AlgoBcrypt {
		cost, err := bcrypt.Cost([]byte(payload))
		return err != nil || cost != h.bcryptCost
	}
	return false
}

// splitEncoded separates the algorithm tag from the payload. Untagged
// bcrypt hashes ("$2a$...") are accepted as legacy bcrypt.
func splitEncoded(encoded string) (algo, payload string) {
	if strings.HasPrefix(encoded, "$2") {
		return AlgoBcrypt, encoded
	}
	algo, payload, ok := strings.Cut(encoded, "$")
	if !ok {
		return "", ""
	}
	return algo, payload
}

func verifyArgon2id(password, payload string) bool {
	// v=19$m=65536,t=3,p=2$<salt>$<key>
	parts := strings.Split(payload, "$")
	if len(parts) != 4 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[0], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[1], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	if iterations < 1 || iterations > maxArgonTime || threads < 1 || memory > maxArgonMemory {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(want) == 0 || len(want) > maxArgonKeyLen {
		return false
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
