package lower

import (
	"fmt"

	"github.com/you-not-fish/fieldc/internal/syntax"
)

// hoistDecls moves struct and function declarations nested below the top
// level into a fresh root. Every top-level statement and every nested
// declaration is copied once with a filter dropping the declarations nested
// inside it; the nested ones are emitted ahead of their container. All copies
// share one Copier, so references between them are remapped together.
// A hoisted definition whose name is already defined at the top level is
// renamed.
func hoistDecls(u *Unit) {
	if !hasNested(u.Root) {
		return
	}
	cp := syntax.NewCopier()
	cp.Filter = func(n syntax.Node, _ int) bool {
		return !hoistable(n)
	}

	root := syntax.NewScope(u.Root.Anchor())
	root.IsRoot = true
	syntax.MoveComments(root, u.Root)
	hoisted := make(map[syntax.Node]bool)
	var hoist func(n syntax.Node, nested bool)
	hoist = func(n syntax.Node, nested bool) {
		for _, inner := range nestedDecls(n) {
			hoist(inner, true)
		}
		c := cp.Copy(n)
		root.Nodes = append(root.Nodes, c)
		if nested {
			hoisted[c] = true
		}
	}
	for _, n := range u.Root.Nodes {
		hoist(n, false)
	}
	cp.Remap(root)
	renameHoisted(root, hoisted)

	syntax.Destroy(u.Root)
	u.Root = root
	u.builtins = syntax.BuiltinsOf(root)
	u.known = u.builtins.Len()
	for name, fn := range u.externs {
		if c, ok := cp.Map[fn].(*syntax.FuncDecl); ok {
			u.externs[name] = c
		}
	}
	u.refresh()
}

// renameHoisted renames the hoisted definitions that clash with an earlier
// top-level definition in the same C namespace: struct tags, or ordinary
// identifiers. Top-level declarations of the source keep their names.
func renameHoisted(root *syntax.Scope, hoisted map[syntax.Node]bool) {
	used := make(map[string]bool)
	syntax.Inspect(root, func(n syntax.Node) bool {
		if id, ok := n.(*syntax.Ident); ok {
			used[id.Name] = true
		}
		return true
	})
	tags := make(map[string]bool)
	names := make(map[string]bool)
	space := func(n syntax.Node) map[string]bool {
		if _, ok := n.(*syntax.TypeDecl); ok {
			return tags
		}
		return names
	}
	for _, n := range root.Nodes {
		if isDefinition(n) && !hoisted[n] {
			space(n)[syntax.DeclName(n)] = true
		}
	}
	for _, n := range root.Nodes {
		if !hoisted[n] || !isDefinition(n) {
			continue
		}
		taken := space(n)
		name := syntax.DeclName(n)
		if taken[name] {
			name = freshName(name, used)
			renameDecl(root, n, name)
		}
		taken[name] = true
	}
}

// isDefinition reports whether n is a user declaration that defines a
// top-level name: a struct or function with a body, a variable or a typedef.
func isDefinition(n syntax.Node) bool {
	switch d := n.(type) {
	case *syntax.TypeDecl:
		return !d.IsBuiltin && d.Body != nil
	case *syntax.FuncDecl:
		return !d.IsBuiltin && d.Body != nil
	case *syntax.VarDecl, *syntax.Typedef:
		return true
	}
	return false
}

func freshName(name string, used map[string]bool) string {
	for i := 1; ; i++ {
		cand := fmt.Sprintf("%s_%d", name, i)
		if !used[cand] {
			used[cand] = true
			return cand
		}
	}
}

// renameDecl renames the declaration d and every identifier resolved to it.
func renameDecl(root syntax.Node, d syntax.Node, name string) {
	switch d := d.(type) {
	case *syntax.TypeDecl:
		d.Ident.Name = name
	case *syntax.FuncDecl:
		d.Ident.Name = name
	}
	syntax.Inspect(root, func(n syntax.Node) bool {
		if id, ok := n.(*syntax.Ident); ok && id.Decl == d {
			id.Name = name
		}
		return true
	})
}

func hoistable(n syntax.Node) bool {
	switch n.Kind() {
	case syntax.KindTypeDecl, syntax.KindFuncDecl:
		return true
	}
	return false
}

func hasNested(root *syntax.Scope) bool {
	for _, n := range root.Nodes {
		if len(nestedDecls(n)) > 0 {
			return true
		}
	}
	return false
}

// nestedDecls returns the hoistable declarations below n that are not
// themselves nested in another hoistable declaration below n.
func nestedDecls(n syntax.Node) []syntax.Node {
	var found []syntax.Node
	for _, sub := range syntax.Subnodes(n) {
		syntax.Walk(sub, func(x syntax.Node) bool {
			if hoistable(x) {
				found = append(found, x)
				return false
			}
			return true
		})
	}
	return found
}
