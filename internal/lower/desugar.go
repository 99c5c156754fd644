package lower

import (
	"fmt"

	"github.com/you-not-fish/fieldc/internal/syntax"
)

// desugar rewrites the operators of builtin types into plain C: matrix
// products become calls of the multiply helper, and element accesses
// become indexing of the concrete data member. Matrices are stored row
// major; a field's flat index uses its runtime sizes as strides:
//
//	m(i, j)     =>  m.m[i * 3 + j]       (m is matrix(2, 3))
//	f(i, j, k)  =>  f.m[(i * f.size[1] + j) * f.size[2] + k]
func desugar(u *Unit) {
	for i, n := range u.Root.Nodes {
		if isBuiltin(n) {
			continue
		}
		u.Root.Nodes[i] = rewrite(n, u.desugarNode)
	}
	u.refresh()
}

func (u *Unit) desugarNode(n syntax.Node) syntax.Node {
	switch n := n.(type) {
	case *syntax.Biop:
		if n.Op != syntax.Mul && n.Op != syntax.MulAssign {
			return n
		}
		fn := u.matrixMul(n)
		if fn == nil {
			return n
		}
		if fn.Concrete == nil {
			panic(fmt.Sprintf("lower: %s was not concretized", fn.Ident.Name))
		}
		var x syntax.Node
		if n.Op == syntax.Mul {
			x = call(fn, n.Lhs, n.Rhs)
		} else {
			x = assign(n.Lhs, call(fn, syntax.Copy(n.Lhs), n.Rhs))
		}
		syntax.SetAnchor(x, n.Anchor())
		syntax.MoveComments(x, n)
		syntax.ShallowDestroy(n)
		return x

	case *syntax.Access:
		if n.AccessKind != syntax.AccessElement {
			return n
		}
		x := u.element(n)
		syntax.SetAnchor(x, n.Anchor())
		syntax.MoveComments(x, n)
		syntax.ShallowDestroy(n)
		return x
	}
	return n
}

// element lowers base(args...) to base.m[index].
func (u *Unit) element(n *syntax.Access) syntax.Node {
	t := syntax.ExprType(n.Base)
	bt, ok := t.Builtin()
	if !ok || bt.IsPrimitive() {
		panic(fmt.Sprintf("lower: element access on %s at %s", syntax.TypeString(t), n.Pos()))
	}
	d := t.BaseDecl
	rank := bt.MatrixRank
	if bt.IsField() {
		rank = bt.FieldDim
	}

	args := n.Args
	if len(args) == 1 && (rank > 1 || isVector(args[0])) {
		// A whole index vector: v becomes v(0), v(1), ...
		vec := args[0]
		args = make([]syntax.Node, rank)
		for k := range args {
			args[k] = u.element(syntax.NewAccess(nil, syntax.AccessElement, syntax.Copy(vec), u.intLit(k)))
		}
		syntax.Destroy(vec)
	}
	if len(args) != rank {
		panic(fmt.Sprintf("lower: %s takes %d indices, got %d", bt, rank, len(args)))
	}

	var idx syntax.Node
	if bt.IsField() {
		sizes := memberOf(d, sizeMember)
		idx = args[0]
		for k := 1; k < rank; k++ {
			stride := index(member(syntax.Copy(n.Base), sizes), u.intLit(k))
			idx = syntax.NewBiop(nil, syntax.Add, syntax.NewBiop(nil, syntax.Mul, idx, stride), args[k])
		}
	} else {
		idx = u.rowMajor(bt.Dims(), args)
	}
	return index(member(n.Base, memberOf(d, dataMember)), idx)
}

// rowMajor returns the flat index of args in a matrix of the given
// dimensions, folded to a literal when every index is constant.
func (u *Unit) rowMajor(dims []int, args []syntax.Node) syntax.Node {
	flat, constant := 0, true
	for k, a := range args {
		lit, ok := a.(*syntax.Literal)
		if !ok || lit.LitKind != syntax.LitInt {
			constant = false
			break
		}
		flat = flat*dims[k] + int(lit.Int)
	}
	if constant {
		for _, a := range args {
			syntax.Destroy(a)
		}
		return u.intLit(flat)
	}
	idx := args[0]
	for k := 1; k < len(args); k++ {
		idx = syntax.NewBiop(nil, syntax.Add, syntax.NewBiop(nil, syntax.Mul, idx, u.intLit(dims[k])), args[k])
	}
	return idx
}

// isVector reports whether x has a rank-1 matrix type, as the implicit
// for_field index does.
func isVector(x syntax.Node) bool {
	t, ok := syntax.ExprType(x).Builtin()
	return ok && !t.IsField() && t.MatrixRank == 1
}
