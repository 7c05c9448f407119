// Package hashing provides the named credential hash methods. Every stored
// user record remembers which method produced its hash, so methods can
// coexist and credentials survive a migration to a stronger algorithm.
package hashing

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Method names. The default is what new registrations are hashed with;
// verification always uses the method stored on the user record.
const (
	MethodUtf8Sha512Hex  = "utf8-sha512-hex"
	MethodUtf8Sha3512Hex = "utf8-sha3-512-hex"

	DefaultMethod = MethodUtf8Sha512Hex
)

// SaltSeparator joins the per-user salt and the plaintext before hashing.
const SaltSeparator = ";"

// Hasher computes a deterministic one-way hash of its input.
type Hasher interface {
	ComputeHash(saltedPlaintext string) string
}

// HashFunc adapts a plain function to the Hasher interface.
type HashFunc func(string) string

func (f HashFunc) ComputeHash(s string) string { return f(s) }

// Registry resolves hash method names to implementations.
type Registry struct {
	methods map[string]Hasher
}

// NewRegistry returns a Registry with all supported methods registered.
func NewRegistry() *Registry {
	return &Registry{
		methods: map[string]Hasher{
			MethodUtf8Sha512Hex: HashFunc(func(s string) string {
				sum := sha512.Sum512([]byte(s))
				return hex.EncodeToString(sum[:])
			}),
			MethodUtf8Sha3512Hex: HashFunc(func(s string) string {
				sum := sha3.Sum512([]byte(s))
				return hex.EncodeToString(sum[:])
			}),
		},
	}
}

// Get returns the hasher registered under name.
func (r *Registry) Get(name string) (Hasher, error) {
	h, ok := r.methods[name]
	if !ok {
		return nil, fmt.Errorf("unknown hash method %q", name)
	}
	return h, nil
}

// Salted joins salt and plaintext the way stored hashes were computed.
func Salted(salt, plaintext string) string {
	return salt + SaltSeparator + plaintext
}
