// merkle builds binary Merkle trees over a named set of file contents,
// produces audit paths for single files, and verifies those paths against a
// root digest.
//
// Leaves are the digests of the file contents, ordered by file name. When the
// number of files is not a power of two, the last leaf is duplicated until it
// is. Levels are reduced like a stack: the last two nodes are popped, the
// first popped becomes the left child, and the parent digest is
// Hash(left || right).
package merkle

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrEmptyInput is returned when building a tree from no files.
	ErrEmptyInput = errors.New("cannot build a tree without files")
	// ErrNotFound is returned when a proof is requested for a name that is not
	// in the file set.
	ErrNotFound = errors.New("file not found")
	// ErrNoProof is returned when the tree holds no usable path for a file,
	// either because it has a single leaf or because the file set given does
	// not match the tree.
	ErrNoProof = errors.New("no proof available for file")
)

// Files maps file names to their contents. It is the snapshot a tree is built
// from, and must be passed unchanged when generating proofs for that tree.
type Files map[string][]byte

// Names returns the file names in ascending order, which is leaf order.
func (f Files) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Node struct {
	Hash    Digest
	Name    string // File name, used for leaf nodes
	Left    *Node  // Nil for leaves
	Right   *Node  // Nil for leaves
	Padding bool   // Leaf duplicated to fill the level
}

func (n *Node) String() string {
	return fmt.Sprintf("Node{Name: %s, Hash: %s, Left: %+v, Right: %+v, Padding: %v}", n.Name, n.Hash,
		n.Left, n.Right, n.Padding)
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// Tree is an immutable Merkle tree. It is safe for concurrent use.
type Tree struct {
	root   *Node
	alg    Algorithm
	leaves int // files the tree was built from
	width  int // leaves after padding
}

// clp2 returns the next power of 2 that is equal to or greater than x.
func clp2(x uint64) uint64 {
	if x == 0 {
		return 1
	}
	x--
	x = x | (x >> 1)
	x = x | (x >> 2)
	x = x | (x >> 4)
	x = x | (x >> 8)
	x = x | (x >> 16)
	x = x | (x >> 32)
	return x + 1
}

func combine(a, b *Node, alg Algorithm) *Node {
	return &Node{
		Hash:  alg.Sum(a.Hash, b.Hash),
		Left:  a,
		Right: b,
	}
}

// reduce builds the next level up. Nodes are taken off the end of the level
// two at a time; an unpaired node is carried up as is.
func reduce(level []*Node, alg Algorithm) []*Node {
	next := make([]*Node, 0, (len(level)+1)/2)
	for len(level) > 0 {
		a := level[len(level)-1]
		level = level[:len(level)-1]
		if len(level) == 0 {
			next = append(next, a)
			break
		}
		b := level[len(level)-1]
		level = level[:len(level)-1]
		next = append(next, combine(a, b, alg))
	}
	return next
}

// Build creates a Merkle tree from the given files using alg.
//
// A single file produces a tree whose root is that file's leaf. Such a tree
// has no proofs, see CanProve.
func Build(files Files, alg Algorithm) (*Tree, error) {
	names := files.Names()
	if len(names) == 0 {
		return nil, ErrEmptyInput
	}

	width := int(clp2(uint64(len(names))))
	level := make([]*Node, 0, width)
	for _, name := range names {
		level = append(level, &Node{
			Hash: alg.Sum(files[name]),
			Name: name,
		})
	}
	last := level[len(level)-1]
	for len(level) < width {
		level = append(level, &Node{
			Hash:    last.Hash.Clone(),
			Name:    last.Name,
			Padding: true,
		})
	}

	for len(level) > 1 {
		level = reduce(level, alg)
	}
	return &Tree{
		root:   level[0],
		alg:    alg,
		leaves: len(names),
		width:  width,
	}, nil
}

// Root returns the root digest.
func (t *Tree) Root() Digest { return t.root.Hash.Clone() }

// RootNode returns the root node. Callers must not modify the tree.
func (t *Tree) RootNode() *Node { return t.root }

func (t *Tree) Algorithm() Algorithm { return t.alg }

// Leaves returns the number of files the tree was built from.
func (t *Tree) Leaves() int { return t.leaves }

// Width returns the number of leaves after padding.
func (t *Tree) Width() int { return t.width }

// CanProve reports whether proofs can be generated from the tree. A tree of a
// single file has no siblings to prove against.
func (t *Tree) CanProve() bool { return t.leaves > 1 }
