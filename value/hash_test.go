package value

import (
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallKeyDeterminism(t *testing.T) {
	args := Array{Int(1), String("x")}
	kwargs := Object{"lr": Float(0.1)}

	k1, err := CallKey(args, kwargs)
	require.NoError(t, err)
	k2, err := CallKey(Array{Int(1), String("x")}, Object{"lr": Float(0.1)})
	require.NoError(t, err)

	assert.Equal(t, k1, k2, "CallKey must be deterministic")
	assert.Equal(t, digest.SHA256, k1.Algorithm())
	assert.NoError(t, k1.Validate())
	assert.Len(t, k1.Encoded(), 64, "SHA-256 hex is 64 characters")
}

func TestCallKeyPositionalOrderMatters(t *testing.T) {
	k1 := MustCallKey(Array{Int(1), Int(2)}, nil)
	k2 := MustCallKey(Array{Int(2), Int(1)}, nil)
	assert.NotEqual(t, k1, k2)
}

func TestCallKeyNamedOrderIrrelevant(t *testing.T) {
	a := Object{}
	a["a"] = Int(1)
	a["b"] = Int(2)
	b := Object{}
	b["b"] = Int(2)
	b["a"] = Int(1)

	assert.Equal(t, MustCallKey(nil, a), MustCallKey(nil, b))
}

func TestCallKeyPositionalVsNamed(t *testing.T) {
	// f(1) and f(a=1) are different calls.
	k1 := MustCallKey(Array{Int(1)}, nil)
	k2 := MustCallKey(nil, Object{"a": Int(1)})
	assert.NotEqual(t, k1, k2)
}

func TestCallKeyNilEqualsEmpty(t *testing.T) {
	assert.Equal(t, MustCallKey(nil, nil), MustCallKey(Array{}, Object{}))
}

func TestCallKeyIntVsFloat(t *testing.T) {
	assert.NotEqual(t, MustCallKey(Array{Int(2)}, nil), MustCallKey(Array{Float(2)}, nil))
}

func TestHashDomainSeparation(t *testing.T) {
	v := Composite(Array{Int(1)}, nil)
	h1, err := Hash(DomainCall, v)
	require.NoError(t, err)
	h2, err := Hash("other/v1", v)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestCallKeyError(t *testing.T) {
	_, err := CallKey(Array{unknownValue{}}, nil)
	assert.Error(t, err)

	assert.Panics(t, func() {
		MustCallKey(Array{unknownValue{}}, nil)
	})
}

func TestParseHashKey(t *testing.T) {
	key := MustCallKey(Array{Int(1)}, nil)
	parsed, err := ParseHashKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	_, err = ParseHashKey("sha256:" + strings.Repeat("z", 64))
	assert.Error(t, err)

	_, err = ParseHashKey("not-a-digest")
	assert.Error(t, err)
}

// unknownValue satisfies Value from inside the package but is not a known variant.
type unknownValue struct{}

func (unknownValue) value() {}
