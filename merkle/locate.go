package merkle

import (
	"encoding/json"
	"fmt"
)

// Side records which operand position a digest takes when it is combined
// with its sibling. None marks a value that has already been reduced.
type Side uint8

const (
	None Side = iota
	Left
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "Left"
	case Right:
		return "Right"
	case None:
		return "None"
	}
	return fmt.Sprintf("Side(%d)", uint8(s))
}

// MarshalJSON encodes Left and Right by name and None as null.
func (s Side) MarshalJSON() ([]byte, error) {
	switch s {
	case Left, Right:
		return json.Marshal(s.String())
	case None:
		return []byte("null"), nil
	}
	return nil, fmt.Errorf("invalid side %d", uint8(s))
}

func (s *Side) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = None
		return nil
	}
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "Left":
		*s = Left
	case "Right":
		*s = Right
	default:
		return fmt.Errorf("invalid side %q", name)
	}
	return nil
}

// Locate reports which subtree of n holds a node with the target digest.
//
// The left subtree is searched fully before the right one, so when the digest
// appears more than once (padding, or two files with equal contents) the
// leftmost match in pre-order wins. Proofs for such duplicates therefore
// always follow the same path, whichever file they were asked for.
func Locate(n *Node, target Digest) Side {
	if n == nil {
		return None
	}
	if contains(n.Left, target) {
		return Left
	}
	if contains(n.Right, target) {
		return Right
	}
	return None
}

// contains walks the subtree at n in pre-order, without recursion.
func contains(n *Node, target Digest) bool {
	if n == nil {
		return false
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.Hash.Equal(target) {
			return true
		}
		// Right goes first so left is visited first
		if cur.Right != nil {
			stack = append(stack, cur.Right)
		}
		if cur.Left != nil {
			stack = append(stack, cur.Left)
		}
	}
	return false
}
