package merkle

import (
	"fmt"
	"strings"
)

// ProofStep is one digest of an audit path and the side it takes when
// combined with the running value.
type ProofStep struct {
	Digest Digest `json:"digest" cbor:"digest"`
	Side   Side   `json:"side" cbor:"side"`
}

func (s ProofStep) String() string {
	if s.Side == None {
		return fmt.Sprintf("h: %s", s.Digest.Short())
	}
	return fmt.Sprintf("h: %s %s", s.Digest.Short(), s.Side)
}

// Proof is an audit path, ordered from the leaf up to just below the root.
// Its first two steps are the leaf and its sibling.
type Proof []ProofStep

func (p Proof) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Proof returns the audit path for the named file.
//
// files must be the same set the tree was built from. ErrNotFound is returned
// if name is not in files, and ErrNoProof if the tree has no path to the
// file's leaf (a single-file tree, or files that don't match the tree).
func (t *Tree) Proof(name string, files Files) (Proof, error) {
	content, ok := files[name]
	if !ok {
		return nil, ErrNotFound
	}
	target := t.alg.Sum(content)

	// Collected from the root down, reversed at the end
	var path Proof
	n := t.root
	for n.Left != nil && n.Right != nil {
		side := Locate(n, target)
		if side == None {
			break
		}
		next, sibling, siblingSide := n.Left, n.Right, Right
		if side == Right {
			next, sibling, siblingSide = n.Right, n.Left, Left
		}
		if n.Left.Hash.Equal(target) || n.Right.Hash.Equal(target) {
			// Last pair, the leaf itself goes into the path too
			path = append(path, ProofStep{Digest: next.Hash.Clone(), Side: side})
		}
		path = append(path, ProofStep{Digest: sibling.Hash.Clone(), Side: siblingSide})
		n = next
	}
	if len(path) == 0 {
		return nil, ErrNoProof
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// Verify reports whether proof, applied to content, produces root.
//
// The proof must have at least two steps and one of them must be the digest
// of content. Steps are folded in order: a Left step is hashed in front of
// the running value, a Right step behind it. A None step, or a digest of the
// wrong length, makes the proof invalid. Verify never panics, whatever the
// proof holds.
func Verify(proof Proof, root Digest, content []byte, alg Algorithm) bool {
	if len(proof) < 2 {
		return false
	}
	leaf := alg.Sum(content)
	found := false
	for _, step := range proof {
		if len(step.Digest) != alg.Size() {
			return false
		}
		if step.Digest.Equal(leaf) {
			found = true
		}
	}
	if !found {
		return false
	}

	acc := proof[0].Digest
	for _, step := range proof[1:] {
		switch step.Side {
		case Left:
			acc = alg.Sum(step.Digest, acc)
		case Right:
			acc = alg.Sum(acc, step.Digest)
		default:
			return false
		}
	}
	return acc.Equal(root)
}
