package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/rgarciadev/atelier-backend/pkg/config"
	"golang.org/x/crypto/argon2"
)

// ArgonParams captures the Argon2id parameters used for CVC digests.
type ArgonParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// NewCVCSalt returns a fresh random salt, base64-encoded for storage.
func NewCVCSalt(cfg config.VaultConfig) (string, error) {
	params := paramsFromConfig(cfg)
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(salt), nil
}

// DigestCVC returns the base64 Argon2id digest of the CVC under the salt.
// The CVC itself is never persisted; only this one-way digest is.
func DigestCVC(cvc, encodedSalt string, cfg config.VaultConfig) (string, error) {
	if cvc == "" {
		return "", fmt.Errorf("cvc cannot be empty")
	}
	salt, err := base64.RawStdEncoding.DecodeString(encodedSalt)
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}
	if len(salt) == 0 {
		return "", fmt.Errorf("salt cannot be empty")
	}

	params := paramsFromConfig(cfg)
	digest := argon2.IDKey([]byte(cvc), salt, params.Time, params.Memory, params.Parallelism, params.KeyLen)
	return base64.RawStdEncoding.EncodeToString(digest), nil
}

// VerifyCVC reports whether the supplied CVC matches the stored digest.
// The comparison is constant-time; the expected digest is never returned.
func VerifyCVC(cvc, encodedSalt, encodedDigest string, cfg config.VaultConfig) (bool, error) {
	if encodedSalt == "" || encodedDigest == "" {
		return false, fmt.Errorf("stored cvc digest incomplete")
	}
	computed, err := DigestCVC(cvc, encodedSalt, cfg)
	if err != nil {
		return false, err
	}
	stored, err := base64.RawStdEncoding.DecodeString(encodedDigest)
	if err != nil {
		return false, fmt.Errorf("decode digest: %w", err)
	}
	computedRaw, err := base64.RawStdEncoding.DecodeString(computed)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(stored, computedRaw) == 1, nil
}

func paramsFromConfig(cfg config.VaultConfig) ArgonParams {
	threads := clampInt(cfg.ArgonParallelism, 1, 255)
	return ArgonParams{
		Memory:      clampUint32(cfg.ArgonMemoryKB, 8, 512*1024),
		Time:        clampUint32(cfg.ArgonTime, 1, 10),
		Parallelism: uint8(threads),
		SaltLen:     clampUint32(cfg.ArgonSaltLen, 8, 64),
		KeyLen:      clampUint32(cfg.ArgonKeyLen, 16, 64),
	}
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func clampUint32(value, min, max int) uint32 {
	return uint32(clampInt(value, min, max))
}
