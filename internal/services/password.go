package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// argon2Cost is what HashPassword uses for new admin hashes.
var argon2Cost = argon2Params{Memory: 64 * 1024, Time: 3, Threads: 1}

const (
	argon2SaltLen = 16
	argon2KeyLen  = 32
)

var errMalformedHash = errors.New("malformed argon2id hash")

type argon2Params struct {
	Memory  uint32
	Time    uint32
	Threads uint8
}

// argon2Hash is the PHC string form: $argon2id$v=19$m=..,t=..,p=..$salt$key
type argon2Hash struct {
	Params argon2Params
	Salt   []byte
	Key    []byte
}

func newArgon2Hash(password string, params argon2Params) (argon2Hash, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return argon2Hash{}, err
	}
	return argon2Hash{Params: params, Salt: salt, Key: params.derive(password, salt, argon2KeyLen)}, nil
}

func (p argon2Params) derive(password string, salt []byte, keyLen uint32) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, keyLen)
}

func (h argon2Hash) String() string {
	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.Params.Memory, h.Params.Time, h.Params.Threads,
		enc.EncodeToString(h.Salt), enc.EncodeToString(h.Key))
}

func (h argon2Hash) Matches(password string) bool {
	key := h.Params.derive(password, h.Salt, uint32(len(h.Key)))
	return subtle.ConstantTimeCompare(h.Key, key) == 1
}

func parseArgon2Hash(encoded string) (argon2Hash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return argon2Hash{}, errMalformedHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return argon2Hash{}, errMalformedHash
	}
	var h argon2Hash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.Params.Memory, &h.Params.Time, &h.Params.Threads); err != nil {
		return argon2Hash{}, errMalformedHash
	}
	if h.Params.Memory == 0 || h.Params.Time == 0 || h.Params.Threads == 0 {
		return argon2Hash{}, errMalformedHash
	}
	var err error
	if h.Salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(h.Salt) == 0 {
		return argon2Hash{}, errMalformedHash
	}
	if h.Key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(h.Key) == 0 {
		return argon2Hash{}, errMalformedHash
	}
	return h, nil
}

// HashPassword produces an argon2id hash for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	h, err := newArgon2Hash(password, argon2Cost)
	if err != nil {
		return "", err
	}
	return h.String(), nil
}

// VerifyPassword accepts argon2id hashes and, for older deployments, bcrypt.
func VerifyPassword(password, encoded string) bool {
	if strings.HasPrefix(encoded, "$argon2") {
		h, err := parseArgon2Hash(encoded)
		return err == nil && h.Matches(password)
	}
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
}
