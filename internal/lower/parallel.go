package lower

import (
	"fmt"

	"github.com/you-not-fish/fieldc/internal/syntax"
)

// expandParallel replaces every for_field construct by a scope holding one
// nested for loop per field dimension:
//
//	{
//		int_matrix_2 id;
//		for (int for_field_0 = 0; for_field_0 < size_field(out, 0); ++for_field_0) {
//			for (int for_field_1 = 0; for_field_1 < size_field(out, 1); ++for_field_1) {
//				id(0) = for_field_0;
//				id(1) = for_field_1;
//				{ body }
//			}
//		}
//	}
//
// The size_field calls are resolved once the new loops are in place.
func expandParallel(u *Unit) {
	found := syntax.FindSubnodes(u.Root, syntax.KindParallel)
	if len(found) == 0 {
		return
	}
	old := make([]syntax.Node, len(found))
	repl := make([]syntax.Node, len(found))
	for i, n := range found {
		old[i] = n
		repl[i] = u.expand(n.(*syntax.Parallel))
	}
	// Outer replacements own inner for_field nodes through their moved
	// bodies; ReplaceNodes rewrites those too.
	syntax.ReplaceNodes(u.Root, old, repl)
	for _, n := range found {
		par := n.(*syntax.Parallel)
		for _, x := range par.Outputs {
			syntax.Destroy(x)
		}
		for _, x := range par.Inputs {
			syntax.Destroy(x)
		}
		syntax.ShallowDestroy(par)
	}
	u.refresh()
	resolveCalls(u)
}

func (u *Unit) expand(par *syntax.Parallel) syntax.Node {
	tok := par.Anchor()
	intDecl := u.prim("int")
	vars := make([]*syntax.VarDecl, par.Dim)
	for k := range vars {
		vars[k] = syntax.NewVarDecl(tok, typ(intDecl, 0), fmt.Sprintf("for_field_%d", k))
		vars[k].Value = u.intLit(0)
	}

	inner := syntax.NewScope(tok)
	for k, v := range vars {
		elem := syntax.NewAccess(tok, syntax.AccessElement, ref(par.Index), u.intLit(k))
		inner.Nodes = append(inner.Nodes, assign(elem, ref(v)))
	}
	inner.Nodes = append(inner.Nodes, par.Body)

	var body syntax.Node = inner
	for k := par.Dim - 1; k >= 0; k-- {
		size := syntax.NewCall(tok, syntax.SizeField, nil, syntax.Copy(par.Outputs[0]), u.intLit(k))
		cond := syntax.NewBiop(tok, syntax.Lss, ref(vars[k]), size)
		incr := syntax.NewBiop(tok, syntax.Inc, nil, ref(vars[k]))
		loop := syntax.NewLoop(tok, vars[k], cond, incr, body)
		if k > 0 {
			s := syntax.NewScope(tok)
			s.Nodes = append(s.Nodes, loop)
			body = s
		} else {
			body = loop
		}
	}

	s := syntax.NewScope(tok)
	syntax.MoveComments(s, par)
	s.Nodes = append(s.Nodes, par.Index, body)
	return s
}

// resolveCalls binds calls left unresolved by earlier rewriting, using the
// argument types for overload selection.
func resolveCalls(u *Unit) {
	syntax.Inspect(u.Root, func(n syntax.Node) bool {
		c, ok := n.(*syntax.Call)
		if !ok || c.Ident.Decl != nil {
			return true
		}
		args := make([]*syntax.Type, len(c.Args))
		for i, a := range c.Args {
			args[i] = syntax.ExprType(a)
		}
		q := syntax.Query{Name: c.Ident.Name, NS: syntax.ValueNames, Call: true, Args: args}
		if d := u.pm.Resolve(c, q); d != nil {
			c.Ident.Decl = d
		}
		return true
	})
}
