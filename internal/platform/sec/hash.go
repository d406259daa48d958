// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/argon2"
)

// # Password Hashing

// Argon2 parameters. Changing them only affects newly created hashes;
// existing hashes verify with the parameters encoded in the hash itself.
const (
	argonMemoryKiB  = 64 * 1024
	argonIterations = 3
	argonThreads    = 4
	argonSaltLength = 16
	argonKeyLength  = 32
)

// Argon2Hasher hashes passwords with Argon2id and encodes the result in the
// standard PHC string format, so the parameters travel with the hash.
type Argon2Hasher struct {
	logger *slog.Logger
}

// NewArgon2Hasher returns a hasher with the package-level parameters.
func NewArgon2Hasher(logger *slog.Logger) *Argon2Hasher {
	return &Argon2Hasher{logger: logger}
}

/*
Hash derives an Argon2id hash from a plaintext password.

Parameters:
  - password: the plaintext credential. Never stored or logged.

Returns:
  - string: a PHC-formatted hash, e.g. "$argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>".
  - error: if the salt cannot be generated.
*/
func (hasher *Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("sec: generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonIterations, argonMemoryKiB, argonThreads, argonKeyLength)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemoryKiB,
		argonIterations,
		argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

/*
Verify reports whether a candidate password matches a stored hash.

A malformed or corrupted stored hash is treated as a mismatch: the failure
is logged once and the caller sees only false, never an error.

Parameters:
  - encodedHash: the PHC-formatted hash from storage.
  - candidate: the plaintext password to check.

Returns:
  - bool: true only on a verified match.
*/
func (hasher *Argon2Hasher) Verify(encodedHash, candidate string) bool {
	salt, key, memory, iterations, threads, err := decodeHash(encodedHash)
	if err != nil {
		hasher.logger.Error("stored password hash is malformed", slog.Any("error", err))
		return false
	}

	candidateKey := argon2.IDKey([]byte(candidate), salt, iterations, memory, threads, uint32(len(key)))

	return subtle.ConstantTimeCompare(key, candidateKey) == 1
}

// decodeHash splits a PHC-formatted Argon2id string into its components.
func decodeHash(encodedHash string) (salt, key []byte, memory, iterations uint32, threads uint8, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, nil, 0, 0, 0, fmt.Errorf("expected 6 segments, got %d", len(parts))
	}

	if parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, fmt.Errorf("unsupported variant %q", parts[1])
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("invalid version segment: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, 0, 0, 0, fmt.Errorf("incompatible version %d", version)
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("invalid parameter segment: %w", err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("invalid salt encoding: %w", err)
	}

	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("invalid hash encoding: %w", err)
	}

	return salt, key, memory, iterations, threads, nil
}
