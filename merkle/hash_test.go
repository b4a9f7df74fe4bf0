package merkle

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/blake3"
)

func TestParseAlgorithm(t *testing.T) {
	for name, want := range map[string]Algorithm{"": SHA256, "sha256": SHA256, "SHA256": SHA256, " blake3 ": Blake3} {
		got, err := ParseAlgorithm(name)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseAlgorithm("md5")
	require.Error(t, err)
}

func TestAlgorithmSum(t *testing.T) {
	msg := []byte("hello world")
	s := sha256.Sum256(msg)
	require.Equal(t, Digest(s[:]), SHA256.Sum(msg))
	require.Equal(t, Digest(s[:]), Algorithm("").Sum(msg))
	// Parts are concatenated
	require.Equal(t, SHA256.Sum(msg), SHA256.Sum([]byte("hello "), []byte("world")))

	b := blake3.Sum256(msg)
	require.Equal(t, Digest(b[:]), Blake3.Sum(msg))
	require.Len(t, Blake3.Sum(msg), Size)
}

func TestDigest(t *testing.T) {
	d := Digest{0xab, 0xcd, 0xef, 0x01}
	require.Equal(t, "abcdef01", d.String())
	require.Equal(t, "abcdef", d.Short())
	require.Equal(t, "ab", Digest{0xab}.Short())

	c := d.Clone()
	require.True(t, c.Equal(d))
	c[0] = 0
	require.False(t, c.Equal(d))
	require.Nil(t, Digest(nil).Clone())
}
