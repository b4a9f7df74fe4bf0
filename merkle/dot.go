package merkle

import (
	"fmt"
	"io"
)

// Output tree in DOT language, for rendering with graphviz

func (n *Node) dotNodeName() string {
	// Name the node using a bit of the hash, plus the filename for leaves
	if len(n.Name) == 0 {
		return n.Hash.Short()
	}
	if n.Padding {
		return fmt.Sprintf("%s %s (pad)", n.Hash.Short(), n.Name)
	}
	return fmt.Sprintf("%s %s", n.Hash.Short(), n.Name)
}

// getDot just writes the relationships, and not the boilerplate of the graph.
func (n *Node) getDot(w io.Writer) error {
	// Depth-first search

	for _, child := range []*Node{n.Left, n.Right} {
		if child == nil {
			continue
		}
		_, err := fmt.Fprintf(w, `"%s" -> "%s"`+"\n", n.dotNodeName(), child.dotNodeName())
		if err != nil {
			return err
		}
		if err := child.getDot(w); err != nil {
			return err
		}
	}
	return nil
}

// DotGraph writes a complete directed graph for the tree that this node is the root of.
// It uses the DOT language. If an error is returned, the written bytes are likely not a valid
// DOT file.
func (n *Node) DotGraph(w io.Writer) error {
	_, err := fmt.Fprintf(w, `digraph "%s" {`+"\n", n.Hash)
	if err != nil {
		return err
	}
	if err := n.getDot(w); err != nil {
		return err
	}
	_, err = fmt.Fprint(w, "}")
	return err
}
