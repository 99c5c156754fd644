package lower

import (
	"github.com/you-not-fish/fieldc/internal/syntax"
)

// liftDecls moves variable declarations that are not at the head of their
// scope, and those in for loop init clauses, to the head of the enclosing
// scope. Initializers stay at the original position as assignments.
// Array declarations initialized with a compound literal cannot be split
// and stay where they are.
func liftDecls(u *Unit) {
	lifted := make(map[*syntax.Scope][]*syntax.VarDecl)

	for _, n := range syntax.FindSubnodes(u.Root, syntax.KindLoop) {
		l := n.(*syntax.Loop)
		d, ok := l.Init.(*syntax.VarDecl)
		if !ok || !splittable(d) {
			continue
		}
		s := u.pm.EnclosingScope(l)
		if s == nil {
			continue
		}
		if x := u.split(d); x != nil {
			l.Init = x
		} else {
			l.Init = nil
		}
		lifted[s] = append(lifted[s], d)
	}

	for _, n := range syntax.FindSubnodes(u.Root, syntax.KindScope) {
		s := n.(*syntax.Scope)
		if s == u.Root {
			continue
		}
		if _, ok := u.pm.Parent(s).(*syntax.TypeDecl); ok {
			continue
		}
		lead := 0
		for lead < len(s.Nodes) && s.Nodes[lead].Kind() == syntax.KindVarDecl {
			lead++
		}
		var own []*syntax.VarDecl
		rest := make([]syntax.Node, 0, len(s.Nodes)-lead)
		for _, stmt := range s.Nodes[lead:] {
			d, ok := stmt.(*syntax.VarDecl)
			if !ok || !splittable(d) {
				rest = append(rest, stmt)
				continue
			}
			own = append(own, d)
			if x := u.split(d); x != nil {
				syntax.MoveComments(x, d)
				rest = append(rest, x)
			}
		}
		all := append(own, lifted[s]...)
		if len(all) == 0 {
			continue
		}
		nodes := make([]syntax.Node, 0, len(s.Nodes)+len(lifted[s]))
		nodes = append(nodes, s.Nodes[:lead]...)
		for _, d := range all {
			nodes = append(nodes, d)
		}
		s.Nodes = append(nodes, rest...)
		for _, d := range all {
			rename(s, d)
		}
	}
	u.refresh()
}

func splittable(d *syntax.VarDecl) bool {
	if lit, ok := d.Value.(*syntax.Literal); ok && lit.LitKind == syntax.LitCompound {
		return d.Type.ArraySize == 0
	}
	return true
}

// split detaches the initializer of d and returns it as an assignment, or
// nil when d has none. A lifted declaration cannot stay const.
func (u *Unit) split(d *syntax.VarDecl) syntax.Node {
	d.Type.IsConst = false
	v := d.Value
	if v == nil {
		return nil
	}
	d.Value = nil
	if lit, ok := v.(*syntax.Literal); ok && lit.LitKind == syntax.LitCompound {
		v = syntax.NewCast(lit.Anchor(), syntax.ExprType(d.Ident), lit)
	}
	return syntax.NewBiop(d.Anchor(), syntax.Assign, ref(d), v)
}

// rename gives d a name no other identifier in s uses, so that moving it to
// the head of s neither redeclares a sibling nor shadows an outer name used
// before d's original position.
func rename(s *syntax.Scope, d *syntax.VarDecl) {
	used := make(map[string]bool)
	var refs []*syntax.Ident
	syntax.Inspect(s, func(n syntax.Node) bool {
		id, ok := n.(*syntax.Ident)
		if !ok {
			return true
		}
		if id.Decl == syntax.Node(d) {
			refs = append(refs, id)
		} else {
			used[id.Name] = true
		}
		return true
	})
	name := d.Ident.Name
	if !used[name] {
		return
	}
	name = freshName(name, used)
	for _, id := range refs {
		id.Name = name
	}
}
