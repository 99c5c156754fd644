package syntax

import "fmt"

// Verify checks the structural invariants of root's tree: every node is
// owned by exactly one parent, and identifiers inside it either are
// unresolved or resolve to a declaration. It returns the first violation.
func Verify(root Node) error {
	owner := make(map[Node]Node)
	var err error
	var visit func(n, parent Node)
	visit = func(n, parent Node) {
		if err != nil {
			return
		}
		if prev, seen := owner[n]; seen {
			err = fmt.Errorf("%s at %s is owned by both %s and %s", n.Kind(), n.Pos(), kindOf(prev), kindOf(parent))
			return
		}
		owner[n] = parent
		if id, ok := n.(*Ident); ok && id.Decl != nil && !IsDecl(id.Decl) {
			err = fmt.Errorf("identifier %s at %s resolves to %s", id.Name, id.Pos(), id.Decl.Kind())
			return
		}
		for _, sub := range Subnodes(n) {
			if sub != nil {
				visit(sub, n)
			}
		}
	}
	if root != nil {
		visit(root, nil)
	}
	return err
}

func kindOf(n Node) string {
	if n == nil {
		return "<root>"
	}
	return n.Kind().String()
}
