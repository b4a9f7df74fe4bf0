package merkle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"lukechampine.com/blake3"
)

// Size is the length in bytes of every digest, for every supported algorithm.
const Size = 32 // 256 bits

// Algorithm names the hash function used for leaves and internal nodes.
// The zero value is SHA256.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	Blake3 Algorithm = "blake3"
)

// ParseAlgorithm returns the Algorithm for the given name. An empty name
// selects the default, SHA256.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case "", SHA256:
		return SHA256, nil
	case Blake3:
		return Blake3, nil
	}
	return "", fmt.Errorf("unknown hash algorithm %q", name)
}

func (a Algorithm) String() string {
	if a == "" {
		return string(SHA256)
	}
	return string(a)
}

// New returns a fresh hasher for the algorithm.
func (a Algorithm) New() hash.Hash {
	if a == Blake3 {
		return blake3.New(Size, nil)
	}
	return sha256.New()
}

// Size returns the digest length of the algorithm.
func (a Algorithm) Size() int { return Size }

// Sum hashes the concatenation of parts.
func (a Algorithm) Sum(parts ...[]byte) Digest {
	h := a.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// Digest is the output of an Algorithm.
type Digest []byte

func (d Digest) String() string { return hex.EncodeToString(d) }

// Short is the first three bytes in hex, enough to tell nodes apart when
// printing a tree.
func (d Digest) Short() string {
	if len(d) < 3 {
		return hex.EncodeToString(d)
	}
	return hex.EncodeToString(d[:3])
}

func (d Digest) Equal(o Digest) bool { return bytes.Equal(d, o) }

// Clone returns a copy that shares no memory with d.
func (d Digest) Clone() Digest {
	if d == nil {
		return nil
	}
	return append(Digest(nil), d...)
}
