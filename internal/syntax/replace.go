package syntax

import "fmt"

// ReplaceNodes substitutes new[i] for every occurrence of old[i] in root's
// subtree and returns the (possibly substituted) root. The check runs before
// descending into a child, so a replacement that itself contains one of the
// old nodes is rewritten too. Each node is descended at most once, and a
// replacement is never substituted inside its own subtree, so the result
// stays a tree and the walk terminates. Refnodes are substituted by identity
// without descending.
func ReplaceNodes(root Node, old, new []Node) Node {
	if len(old) != len(new) {
		panic(fmt.Sprintf("syntax: ReplaceNodes with %d old and %d new nodes", len(old), len(new)))
	}
	r := &replacer{
		index: make(map[Node]int, len(old)),
		new:   new,
		done:  make(map[Node]bool),
		path:  make(map[Node]bool),
	}
	for i, o := range old {
		if _, dup := r.index[o]; !dup {
			r.index[o] = i
		}
	}
	if root == nil {
		return nil
	}
	if i, ok := r.index[root]; ok {
		root = new[i]
	}
	r.visit(root)
	return root
}

type replacer struct {
	index map[Node]int
	new   []Node
	done  map[Node]bool
	path  map[Node]bool // nodes on the current descent
}

func (r *replacer) substitute(n Node) (Node, bool) {
	i, ok := r.index[n]
	if !ok || r.path[r.new[i]] {
		return n, false
	}
	return r.new[i], true
}

func (r *replacer) visit(n Node) {
	if n == nil || r.done[n] {
		return
	}
	r.done[n] = true
	r.path[n] = true
	defer delete(r.path, n)

	subs := Subnodes(n)
	changed := false
	for i, sub := range subs {
		if sub == nil {
			continue
		}
		if repl, ok := r.substitute(sub); ok {
			subs[i] = repl
			changed = true
		}
		r.visit(subs[i])
	}
	if changed {
		SetSubnodes(n, subs)
	}

	refs := Refnodes(n)
	changed = false
	for i, ref := range refs {
		if ref == nil {
			continue
		}
		if j, ok := r.index[ref]; ok {
			refs[i] = r.new[j]
			changed = true
		}
	}
	if changed {
		SetRefnodes(n, refs)
	}
}
