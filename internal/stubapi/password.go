package stubapi

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

type argonParams struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// Light parameters: this store only ever holds dev and test accounts.
var passwordParams = argonParams{
	Time:    1,
	Memory:  16 * 1024,
	Threads: 2,
	KeyLen:  32,
	SaltLen: 16,
}

func HashPassword(password string) ([]byte, error) {
	salt := make([]byte, passwordParams.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt,
		passwordParams.Time, passwordParams.Memory, passwordParams.Threads, passwordParams.KeyLen)

	encoded := fmt.Sprintf("$argon2id$v=19$t=%d,m=%d,p=%d$%s$%s",
		passwordParams.Time, passwordParams.Memory, passwordParams.Threads,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(hash))

	return []byte(encoded), nil
}

func VerifyPassword(password string, encodedHash []byte) (bool, error) {
	var (
		time    uint32
		memory  uint32
		threads uint8
		saltB64 string
		hashB64 string
	)

	_, err := fmt.Sscanf(string(encodedHash), "$argon2id$v=19$t=%d,m=%d,p=%d$%s$%s",
		&time, &memory, &threads, &saltB64, &hashB64)
	if err != nil {
		return false, fmt.Errorf("parse hash: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	hash, err := base64.StdEncoding.DecodeString(hashB64)
	if err != nil {
		return false, fmt.Errorf("decode hash: %w", err)
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, computed) == 1, nil
}
