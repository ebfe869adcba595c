// Package password hashes account passwords with Argon2id in PHC string form.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/taskflow/internal/config"
	"golang.org/x/crypto/argon2"
)

const (
	keyLen  uint32 = 32
	saltLen        = 16
	version        = argon2.Version
)

var ErrMalformedHash = errors.New("malformed password hash")

// Params are the Argon2id costs applied to new hashes.
type Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

func DefaultParams() Params {
	return Params{Memory: 64 * 1024, Iterations: 1, Parallelism: 4}
}

// ParamsFromConfig reads the hashing costs, keeping defaults for unset values.
func ParamsFromConfig(cfg config.Config) Params {
	params := DefaultParams()
	if cfg.PasswordHashMemoryKiB > 0 {
		params.Memory = uint32(cfg.PasswordHashMemoryKiB)
	}
	if cfg.PasswordHashIterations > 0 {
		params.Iterations = uint32(cfg.PasswordHashIterations)
	}
	if cfg.PasswordHashParallelism > 0 && cfg.PasswordHashParallelism <= 255 {
		params.Parallelism = uint8(cfg.PasswordHashParallelism)
	}
	return params
}

// weaker reports whether p costs less than target on any axis.
func (p Params) weaker(target Params) bool {
	return p.Memory < target.Memory || p.Iterations < target.Iterations || p.Parallelism < target.Parallelism
}

type Hasher struct {
	params Params
}

func NewHasher(cfg config.Config) *Hasher {
	return NewHasherWithParams(ParamsFromConfig(cfg))
}

func NewHasherWithParams(params Params) *Hasher {
	return &Hasher{params: params}
}

func (h *Hasher) Hash(plain string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plain), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, keyLen)
	return encode(h.params, salt, key), nil
}

// Check reports whether plain matches encoded. rehash is true when the match
// was produced with lower costs than the hasher currently applies.
func (h *Hasher) Check(plain, encoded string) (ok, rehash bool) {
	d, err := decode(encoded)
	if err != nil {
		return false, false
	}
	key := argon2.IDKey([]byte(plain), d.salt, d.params.Iterations, d.params.Memory, d.params.Parallelism, uint32(len(d.key)))
	if subtle.ConstantTimeCompare(d.key, key) != 1 {
		return false, false
	}
	return true, d.params.weaker(h.params)
}

type digest struct {
	params Params
	salt   []byte
	key    []byte
}

func encode(p Params, salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func decode(encoded string) (digest, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return digest{}, ErrMalformedHash
	}

	var v int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &v); err != nil || v != version {
		return digest{}, ErrMalformedHash
	}

	var d digest
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &d.params.Memory, &d.params.Iterations, &d.params.Parallelism); err != nil {
		return digest{}, ErrMalformedHash
	}
	if d.params.Memory == 0 || d.params.Iterations == 0 || d.params.Parallelism == 0 {
		return digest{}, ErrMalformedHash
	}

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(d.salt) == 0 {
		return digest{}, ErrMalformedHash
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(d.key) == 0 {
		return digest{}, ErrMalformedHash
	}
	return d, nil
}
