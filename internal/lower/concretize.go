package lower

import (
	"fmt"

	"github.com/you-not-fish/fieldc/internal/syntax"
)

// Member names of the concrete builtin structs.
const (
	dataMember   = "m"
	sizeMember   = "size"
	deviceMember = "is_device_field"
)

// concretize synthesizes C structs for the matrix and field types the
// program uses and bodies for the builtin functions it calls. A matrix
// becomes a flat element array, a field a data pointer, a size per axis and
// a device flag:
//
//	struct float_matrix_2x2 { float m[4]; };
//	struct float_field_2 { float *m; int size[2]; bool is_device_field; };
//
// Every concrete declaration is linked from its builtin through Concrete.
func concretize(u *Unit) {
	types, funcs := u.usedBuiltins()

	var decls []syntax.Node
	for _, d := range u.builtins.Decls() {
		td, ok := d.(*syntax.TypeDecl)
		if !ok || !types[td] || td.Concrete != nil {
			continue
		}
		c := u.concreteType(td)
		td.Concrete = c
		def := syntax.NewTypedef(nil, typ(c, 0), c.Ident.Name)
		decls = append(decls, c, def)
	}
	for _, fn := range u.builtins.Funcs() {
		if !funcs[fn] || fn.Concrete != nil {
			continue
		}
		c := u.concreteFunc(fn)
		fn.Concrete = c
		decls = append(decls, c)
	}
	u.flush()
	u.insertTop(u.builtinEnd(), decls...)
	u.refresh()
}

// usedBuiltins returns the composite builtin types and the builtin functions
// referenced outside the builtin section, closed over element, parameter and
// result types.
func (u *Unit) usedBuiltins() (map[*syntax.TypeDecl]bool, map[*syntax.FuncDecl]bool) {
	types := make(map[*syntax.TypeDecl]bool)
	funcs := make(map[*syntax.FuncDecl]bool)

	var useType func(d *syntax.TypeDecl)
	useType = func(d *syntax.TypeDecl) {
		if d == nil || !d.IsBuiltin || d.Builtin.IsPrimitive() || types[d] {
			return
		}
		types[d] = true
		useType(d.Elem)
	}
	useFunc := func(fn *syntax.FuncDecl) {
		if fn == nil || !fn.IsBuiltin || fn.Builtin == syntax.BuiltinExtern {
			return
		}
		funcs[fn] = true
		useType(fn.ReturnType.BaseDecl)
		for _, p := range fn.Params {
			useType(p.Type.BaseDecl)
		}
	}

	for _, n := range u.Root.Nodes {
		if isBuiltin(n) {
			continue
		}
		syntax.Inspect(n, func(x syntax.Node) bool {
			switch x := x.(type) {
			case *syntax.Type:
				useType(x.BaseDecl)
			case *syntax.Literal:
				useType(x.Base)
			case *syntax.Call:
				fn, _ := x.Ident.Decl.(*syntax.FuncDecl)
				useFunc(fn)
			case *syntax.Biop:
				if x.Op == syntax.Mul || x.Op == syntax.MulAssign {
					useFunc(u.matrixMul(x))
				}
			}
			return true
		})
	}
	return types, funcs
}

// matrixMul returns the multiply helper for a matrix product, or nil when
// x does not multiply two matrices.
func (u *Unit) matrixMul(x *syntax.Biop) *syntax.FuncDecl {
	if x.Lhs == nil || x.Rhs == nil {
		return nil
	}
	lt, rt := syntax.ExprType(x.Lhs), syntax.ExprType(x.Rhs)
	lb, lok := lt.Builtin()
	rb, rok := rt.Builtin()
	if !lok || !rok || !lb.IsMatrix() || !rb.IsMatrix() || lb.IsField() || rb.IsField() {
		return nil
	}
	return u.builtins.Mul(lt.BaseDecl, rt.BaseDecl)
}

// concreteType returns the struct implementing the builtin type d.
func (u *Unit) concreteType(d *syntax.TypeDecl) *syntax.TypeDecl {
	bt := d.Builtin
	c := syntax.NewTypeDecl(nil, bt.Name())
	c.Body = syntax.NewScope(nil)
	if bt.IsField() {
		data := syntax.NewVarDecl(nil, typ(d.Elem, 1), dataMember)
		size := syntax.NewVarDecl(nil, typ(u.prim("int"), 0), sizeMember)
		size.Type.ArraySize = bt.FieldDim
		dev := syntax.NewVarDecl(nil, typ(u.prim("bool"), 0), deviceMember)
		c.Body.Nodes = append(c.Body.Nodes, data, size, dev)
		return c
	}
	data := syntax.NewVarDecl(nil, typ(d.Elem, 0), dataMember)
	data.Type.ArraySize = bt.Elems()
	c.Body.Nodes = append(c.Body.Nodes, data)
	return c
}

// memberOf returns the named member of the concrete struct of a builtin
// type.
func memberOf(d *syntax.TypeDecl, name string) *syntax.VarDecl {
	if d.Concrete == nil {
		panic(fmt.Sprintf("lower: builtin type %s was not concretized", d.Builtin))
	}
	m := syntax.Member(typ(d.Concrete, 0), name)
	if m == nil {
		panic(fmt.Sprintf("lower: %s has no member %s", d.Concrete.Ident.Name, name))
	}
	return m
}

// ----------------------------------------------------------------------------
// Builtin function bodies

// concreteFunc returns the definition implementing the builtin function fn.
// Its name carries the types it is specialized for.
func (u *Unit) concreteFunc(fn *syntax.FuncDecl) *syntax.FuncDecl {
	name := fn.Ident.Name + "_" + fn.Params[0].Type.BaseDecl.Ident.Name
	switch fn.Builtin {
	case syntax.BuiltinAlloc, syntax.BuiltinAllocDevice:
		name = fn.Ident.Name + "_" + fn.ReturnType.BaseDecl.Ident.Name
	case syntax.BuiltinMul:
		name += "_" + fn.Params[1].Type.BaseDecl.Ident.Name
	}
	c := syntax.NewFuncDecl(nil, syntax.ExprType(fn.Ident), name)
	for _, p := range fn.Params {
		c.Params = append(c.Params, syntax.NewVarDecl(nil, syntax.ExprType(p.Ident), p.Ident.Name))
	}
	c.Body = syntax.NewScope(nil)

	var body []syntax.Node
	switch fn.Builtin {
	case syntax.BuiltinAlloc:
		body = u.allocBody(fn.ReturnType.BaseDecl, c.Params, false)
	case syntax.BuiltinAllocDevice:
		body = u.allocBody(fn.ReturnType.BaseDecl, c.Params, true)
	case syntax.BuiltinFree, syntax.BuiltinFreeDevice:
		f := c.Params[0]
		body = []syntax.Node{call(u.free(), dataOf(f))}
	case syntax.BuiltinCopy:
		dst, src := c.Params[0], c.Params[1]
		size := u.byteSize(dst)
		body = []syntax.Node{call(u.memcpy(), dataOf(dst), dataOf(src), size)}
	case syntax.BuiltinSize:
		f, axis := c.Params[0], c.Params[1]
		sizes := member(ref(f), memberOf(f.Type.BaseDecl, sizeMember))
		body = []syntax.Node{syntax.NewControl(nil, syntax.CtrlReturn, index(sizes, ref(axis)))}
	case syntax.BuiltinMul:
		body = u.mulBody(fn.ReturnType.BaseDecl, c.Params[0], c.Params[1])
	default:
		panic(fmt.Sprintf("lower: no implementation for builtin %s", fn.Ident.Name))
	}
	c.Body.Nodes = append(c.Body.Nodes, body...)
	return c
}

// dataOf returns f.m for a field variable f.
func dataOf(f *syntax.VarDecl) syntax.Node {
	return member(ref(f), memberOf(f.Type.BaseDecl, dataMember))
}

// sizeOf returns sizeof(T) for the element type T of a field.
func sizeOf(d *syntax.TypeDecl) syntax.Node {
	return syntax.NewBiop(nil, syntax.Sizeof, nil, typ(d.Elem, 0))
}

// byteSize returns sizeof(T) * f.size[0] * ... for a field variable f.
func (u *Unit) byteSize(f *syntax.VarDecl) syntax.Node {
	d := f.Type.BaseDecl
	sizes := memberOf(d, sizeMember)
	x := sizeOf(d)
	for k := 0; k < d.Builtin.FieldDim; k++ {
		x = syntax.NewBiop(nil, syntax.Mul, x, index(member(ref(f), sizes), u.intLit(k)))
	}
	return x
}

// allocBody builds
//
//	T field;
//	field.m = (E *)malloc(sizeof(E) * size0 * ...);
//	field.size[0] = size0; ...
//	field.is_device_field = device;
//	return field;
func (u *Unit) allocBody(d *syntax.TypeDecl, sizes []*syntax.VarDecl, device bool) []syntax.Node {
	f := syntax.NewVarDecl(nil, typ(d, 0), "field")
	var bytes syntax.Node = sizeOf(d)
	for _, s := range sizes {
		bytes = syntax.NewBiop(nil, syntax.Mul, bytes, ref(s))
	}
	alloc := syntax.NewCast(nil, typ(d.Elem, 1), call(u.malloc(), bytes))

	body := []syntax.Node{f, assign(dataOf(f), alloc)}
	sizeDecl := memberOf(d, sizeMember)
	for k, s := range sizes {
		body = append(body, assign(index(member(ref(f), sizeDecl), u.intLit(k)), ref(s)))
	}
	body = append(body,
		assign(member(ref(f), memberOf(d, deviceMember)), u.boolLit(device)),
		syntax.NewControl(nil, syntax.CtrlReturn, ref(f)))
	return body
}

// mulBody unrolls the product of an MxK and a KxN matrix into one
// assignment per result element, each summing K products:
//
//	r(i, j) = a(i, 0) * b(0, j) + ... + a(i, K-1) * b(K-1, j);
//
// The element accesses are lowered by the desugaring pass.
func (u *Unit) mulBody(ret *syntax.TypeDecl, a, b *syntax.VarDecl) []syntax.Node {
	r := syntax.NewVarDecl(nil, typ(ret, 0), "r")
	body := []syntax.Node{r}
	rows, cols := ret.Builtin.MatrixDim[0], ret.Builtin.MatrixDim[1]
	inner := a.Type.BaseDecl.Builtin.MatrixDim[1]
	elem := func(m *syntax.VarDecl, i, j int) syntax.Node {
		return syntax.NewAccess(nil, syntax.AccessElement, ref(m), u.intLit(i), u.intLit(j))
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var sum syntax.Node
			for k := 0; k < inner; k++ {
				prod := syntax.NewBiop(nil, syntax.Mul, elem(a, i, k), elem(b, k, j))
				if sum == nil {
					sum = prod
				} else {
					sum = syntax.NewBiop(nil, syntax.Add, sum, prod)
				}
			}
			body = append(body, assign(elem(r, i, j), sum))
		}
	}
	return append(body, syntax.NewControl(nil, syntax.CtrlReturn, ref(r)))
}
