package value

import (
	"crypto/sha256"
	"fmt"

	"github.com/opencontainers/go-digest"
)

// DomainCall is the domain prefix for argument-tuple hashes.
// The version suffix enables future algorithm migration.
const DomainCall = "pers/call/v1"

// HashKey addresses a stored record. It is an OCI digest of the form
// "sha256:<64 hex chars>" and is stable across processes and platforms.
type HashKey = digest.Digest

// Hash computes the domain-separated digest of a composite value:
// SHA256(domain + 0x00 + canonical JSON). The null separator prevents
// domain/data boundary ambiguity.
func Hash(domain string, v Value) (HashKey, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return digest.NewDigest(digest.SHA256, h), nil
}

// Composite builds the composite key [args, kwargs] used to address a call.
// A nil args or kwargs is treated as empty.
func Composite(args Array, kwargs Object) Value {
	if args == nil {
		args = Array{}
	}
	if kwargs == nil {
		kwargs = Object{}
	}
	return Array{args, kwargs}
}

// CallKey computes the hash key for an argument tuple.
// Positional order is significant; named argument order is not.
func CallKey(args Array, kwargs Object) (HashKey, error) {
	return Hash(DomainCall, Composite(args, kwargs))
}

// MustCallKey is like CallKey but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCallKey(args Array, kwargs Object) HashKey {
	key, err := CallKey(args, kwargs)
	if err != nil {
		panic(err)
	}
	return key
}

// ParseHashKey validates s as a HashKey.
func ParseHashKey(s string) (HashKey, error) {
	d, err := digest.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid hash key %q: %w", s, err)
	}
	return d, nil
}
