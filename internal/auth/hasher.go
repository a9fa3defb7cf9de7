package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/redmonkez12/places-api/internal/apperror"
)

// Default argon2id parameters
// Time: 3, Memory: 64MB, Threads: 4, KeyLen: 32 bytes
const (
	DefaultArgon2Time    = 3
	DefaultArgon2Memory  = 64 * 1024 // 64 MB
	DefaultArgon2Threads = 4

	argon2KeyLen = 32
	saltLen      = 16
)

// Argon2idHasher implements PasswordHasher using argon2id with a tunable cost.
type Argon2idHasher struct {
	time    uint32
	memory  uint32
	threads uint8
}

// NewArgon2idHasher returns a hasher with the given cost. Zero values fall
// back to the defaults.
func NewArgon2idHasher(time, memoryKB uint32, threads uint8) *Argon2idHasher {
	if time == 0 {
		time = DefaultArgon2Time
	}
	if memoryKB == 0 {
		memoryKB = DefaultArgon2Memory
	}
	if threads == 0 {
		threads = DefaultArgon2Threads
	}
	return &Argon2idHasher{time: time, memory: memoryKB, threads: threads}
}

// Hash creates an argon2id hash of the password
func (h *Argon2idHasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", apperror.Crypto("Could not process password.", fmt.Errorf("failed to generate salt: %w", err))
	}

	hash := argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, argon2KeyLen)

	// Encode as: $argon2id$v=19$m=65536,t=3,p=4$salt$hash
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory,
		h.time,
		h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify checks if a password matches the stored hash. The parameters
// encoded in the hash are used, so hashes made with an older cost still verify.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, malformedHash(fmt.Errorf("invalid hash format"))
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, malformedHash(err)
	}
	if version != argon2.Version {
		return false, malformedHash(fmt.Errorf("unsupported argon2 version %d", version))
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, malformedHash(err)
	}
	if threads == 0 || threads > 255 {
		return false, malformedHash(fmt.Errorf("invalid parallelism %d", threads))
	}
	if time < 1 {
		return false, malformedHash(fmt.Errorf("invalid iterations %d", time))
	}
	// argon2 needs at least 8 KiB per lane
	if memory < 8*threads {
		return false, malformedHash(fmt.Errorf("invalid memory %d for parallelism %d", memory, threads))
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, malformedHash(err)
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, malformedHash(err)
	}
	if len(decodedHash) == 0 {
		return false, malformedHash(fmt.Errorf("empty hash"))
	}

	inputHash := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(len(decodedHash)))

	return subtle.ConstantTimeCompare(decodedHash, inputHash) == 1, nil
}

func malformedHash(cause error) error {
	return apperror.Crypto("Could not verify credentials.", fmt.Errorf("malformed password hash: %w", cause))
}
