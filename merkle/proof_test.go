package merkle

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProofScenario(t *testing.T) {
	files := numberedFiles(8)
	tree, err := Build(files, SHA256)
	require.NoError(t, err)

	proof, err := tree.Proof("file1.txt", files)
	require.NoError(t, err)
	require.True(t, Verify(proof, tree.Root(), files["file1.txt"], SHA256))

	modified := modifiedFiles(files)
	modifiedTree, err := Build(modified, SHA256)
	require.NoError(t, err)
	require.NotEqual(t, tree.Root(), modifiedTree.Root())
	require.False(t, Verify(proof, modifiedTree.Root(), files["file1.txt"], SHA256))

	// And the other way around
	modifiedProof, err := modifiedTree.Proof("file1.txt", modified)
	require.NoError(t, err)
	require.False(t, Verify(modifiedProof, tree.Root(), modified["file1.txt"], SHA256))
}

func TestProofShape(t *testing.T) {
	files := numberedFiles(8)
	tree, err := Build(files, SHA256)
	require.NoError(t, err)
	proof, err := tree.Proof("file1.txt", files)
	require.NoError(t, err)

	h := func(i int) Digest { return SHA256.Sum(files[fmt.Sprintf("file%d.txt", i)]) }
	n43 := SHA256.Sum(h(4), h(3))
	left := SHA256.Sum(SHA256.Sum(h(6), h(5)), SHA256.Sum(h(8), h(7)))
	expected := Proof{
		{Digest: h(2), Side: Left},
		{Digest: h(1), Side: Right},
		{Digest: n43, Side: Right},
		{Digest: left, Side: Left},
	}
	require.Equal(t, expected, proof)
	require.Len(t, proof, 1+3) // leaf plus one sibling per level
}

func TestProofRoundTrip(t *testing.T) {
	for _, alg := range []Algorithm{SHA256, Blake3} {
		for n := 2; n <= 17; n++ {
			files := numberedFiles(n)
			tree, err := Build(files, alg)
			require.NoError(t, err)
			for name, content := range files {
				proof, err := tree.Proof(name, files)
				require.NoError(t, err, "n=%d name=%s", n, name)
				require.True(t, Verify(proof, tree.Root(), content, alg), "n=%d name=%s", n, name)
				require.GreaterOrEqual(t, len(proof), 2)
			}
		}
	}
}

func TestProofDuplicateContents(t *testing.T) {
	files := Files{"a": []byte("same"), "b": []byte("same"), "c": []byte("other")}
	tree, err := Build(files, SHA256)
	require.NoError(t, err)
	pa, err := tree.Proof("a", files)
	require.NoError(t, err)
	pb, err := tree.Proof("b", files)
	require.NoError(t, err)
	// Same digest, same path
	require.Equal(t, pa, pb)
	require.True(t, Verify(pa, tree.Root(), []byte("same"), SHA256))
}

func TestProofNotFound(t *testing.T) {
	files := numberedFiles(4)
	tree, err := Build(files, SHA256)
	require.NoError(t, err)
	proof, err := tree.Proof("missing.txt", files)
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, proof)
}

func TestProofSingleLeaf(t *testing.T) {
	files := Files{"only.txt": []byte("alone")}
	tree, err := Build(files, SHA256)
	require.NoError(t, err)
	proof, err := tree.Proof("only.txt", files)
	require.ErrorIs(t, err, ErrNoProof)
	require.Nil(t, proof)
}

func TestProofMismatchedFiles(t *testing.T) {
	files := numberedFiles(4)
	tree, err := Build(files, SHA256)
	require.NoError(t, err)
	_, err = tree.Proof("file1.txt", modifiedFiles(files))
	require.ErrorIs(t, err, ErrNoProof)
}

func TestProofDoesNotAliasTree(t *testing.T) {
	files := numberedFiles(4)
	tree, err := Build(files, SHA256)
	require.NoError(t, err)
	root := tree.Root()
	proof, err := tree.Proof("file2.txt", files)
	require.NoError(t, err)
	for _, step := range proof {
		step.Digest[0] ^= 0xff
	}
	require.Equal(t, root, tree.Root())
	again, err := tree.Proof("file2.txt", files)
	require.NoError(t, err)
	require.True(t, Verify(again, root, files["file2.txt"], SHA256))
}

func TestVerifyRejectsMalformed(t *testing.T) {
	files := numberedFiles(4)
	tree, err := Build(files, SHA256)
	require.NoError(t, err)
	root := tree.Root()
	content := files["file1.txt"]
	proof, err := tree.Proof("file1.txt", files)
	require.NoError(t, err)
	require.True(t, Verify(proof, root, content, SHA256))

	clone := func() Proof {
		out := make(Proof, len(proof))
		for i, s := range proof {
			out[i] = ProofStep{Digest: s.Digest.Clone(), Side: s.Side}
		}
		return out
	}

	t.Run("empty", func(t *testing.T) {
		require.False(t, Verify(nil, root, content, SHA256))
		require.False(t, Verify(Proof{}, root, content, SHA256))
	})
	t.Run("single step", func(t *testing.T) {
		require.False(t, Verify(Proof{{Digest: SHA256.Sum(content), Side: Left}}, SHA256.Sum(content), content, SHA256))
	})
	t.Run("other content", func(t *testing.T) {
		require.False(t, Verify(proof, root, files["file3.txt"], SHA256))
		require.False(t, Verify(proof, root, []byte("File 1 contents!"), SHA256))
	})
	t.Run("absent side mid replay", func(t *testing.T) {
		p := clone()
		p[2].Side = None
		require.False(t, Verify(p, root, content, SHA256))
	})
	t.Run("unknown side", func(t *testing.T) {
		p := clone()
		p[1].Side = Side(7)
		require.False(t, Verify(p, root, content, SHA256))
	})
	t.Run("swapped side", func(t *testing.T) {
		p := clone()
		p[2].Side = Left
		if proof[2].Side == Left {
			p[2].Side = Right
		}
		require.False(t, Verify(p, root, content, SHA256))
	})
	t.Run("reordered", func(t *testing.T) {
		p := clone()
		p[1], p[2] = p[2], p[1]
		require.False(t, Verify(p, root, content, SHA256))
	})
	t.Run("short digest", func(t *testing.T) {
		p := clone()
		p[2].Digest = p[2].Digest[:16]
		require.False(t, Verify(p, root, content, SHA256))
	})
	t.Run("nil digest", func(t *testing.T) {
		p := clone()
		p[0].Digest = nil
		require.False(t, Verify(p, root, content, SHA256))
	})
	t.Run("wrong algorithm", func(t *testing.T) {
		require.False(t, Verify(proof, root, content, Blake3))
	})
	t.Run("wrong root", func(t *testing.T) {
		require.False(t, Verify(proof, SHA256.Sum(root), content, SHA256))
		require.False(t, Verify(proof, nil, content, SHA256))
	})
}

func TestProofJSON(t *testing.T) {
	files := numberedFiles(5)
	tree, err := Build(files, SHA256)
	require.NoError(t, err)
	proof, err := tree.Proof("file4.txt", files)
	require.NoError(t, err)

	bz, err := json.Marshal(proof)
	require.NoError(t, err)
	var decoded Proof
	require.NoError(t, json.Unmarshal(bz, &decoded))
	require.Equal(t, proof, decoded)
	require.True(t, Verify(decoded, tree.Root(), files["file4.txt"], SHA256))
}

func TestProofString(t *testing.T) {
	p := Proof{
		{Digest: Digest{0x01, 0x02, 0x03, 0x04}, Side: Left},
		{Digest: Digest{0xaa, 0xbb, 0xcc}, Side: None},
	}
	require.Equal(t, "[h: 010203 Left, h: aabbcc]", p.String())
}
