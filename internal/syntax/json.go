package syntax

import (
	"encoding/json"
	"io"
)

// FprintJSON writes a JSON representation of the AST to w.
func FprintJSON(w io.Writer, node Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toJSON(node))
}

func toJSON(node Node) interface{} {
	if node == nil {
		return nil
	}

	m := map[string]interface{}{
		"type": node.Kind().String(),
	}
	if pos := node.Pos(); pos.IsValid() {
		m["pos"] = pos.String()
	}
	if c := commentsJSON(Leading(node)); c != nil {
		m["leading"] = c
	}
	if c := commentsJSON(Trailing(node)); c != nil {
		m["trailing"] = c
	}

	switch n := node.(type) {
	case *Scope:
		m["root"] = n.IsRoot
		m["nodes"] = listJSON(n.Nodes)

	case *Ident:
		m["name"] = n.Name
		m["resolved"] = n.Decl != nil
		if n.Designated {
			m["designated"] = true
		}

	case *Type:
		m["spelling"] = TypeString(n)

	case *TypeDecl:
		m["name"] = n.Ident.Name
		if n.IsBuiltin {
			m["builtin"] = n.Builtin.String()
		}
		if n.Body != nil {
			m["body"] = toJSON(n.Body)
		}

	case *VarDecl:
		m["name"] = n.Ident.Name
		m["vartype"] = TypeString(n.Type)
		if n.Value != nil {
			m["value"] = toJSON(n.Value)
		}

	case *FuncDecl:
		m["name"] = n.Ident.Name
		m["result"] = TypeString(n.ReturnType)
		params := make([]interface{}, len(n.Params))
		for i, f := range n.Params {
			params[i] = toJSON(f)
		}
		m["params"] = params
		if n.IsBuiltin {
			m["builtin"] = true
		}
		if n.Body != nil {
			m["body"] = toJSON(n.Body)
		}

	case *Literal:
		if n.LitKind == LitCompound {
			m["elems"] = listJSON(n.Elems)
		} else {
			m["value"] = literalString(n)
		}

	case *Biop:
		m["op"] = n.Op.String()
		if n.Lhs != nil {
			m["lhs"] = toJSON(n.Lhs)
		}
		if n.Rhs != nil {
			m["rhs"] = toJSON(n.Rhs)
		}

	case *Control:
		m["kind"] = n.CtrlKind.String()
		if n.Value != nil {
			m["value"] = toJSON(n.Value)
		}

	case *Call:
		m["func"] = n.Ident.Name
		m["args"] = listJSON(n.Args)

	case *Access:
		m["kind"] = accessNames[n.AccessKind]
		m["base"] = toJSON(n.Base)
		m["args"] = listJSON(n.Args)

	case *Cond:
		m["cond"] = toJSON(n.Expr)
		m["body"] = toJSON(n.Body)
		if n.AfterElse != nil {
			m["else"] = toJSON(n.AfterElse)
		}

	case *Loop:
		m["while"] = n.IsWhile
		for k, v := range map[string]Node{"init": n.Init, "cond": n.Cond, "incr": n.Incr, "body": n.Body} {
			if v != nil {
				m[k] = toJSON(v)
			}
		}

	case *Cast:
		m["casttype"] = TypeString(n.Type)
		m["target"] = toJSON(n.Target)

	case *Typedef:
		m["name"] = n.Ident.Name
		m["typedef"] = TypeString(n.Type)

	case *Parallel:
		m["dim"] = n.Dim
		m["outputs"] = listJSON(n.Outputs)
		m["inputs"] = listJSON(n.Inputs)
		if n.Body != nil {
			m["body"] = toJSON(n.Body)
		}
	}
	return m
}

func listJSON(list []Node) []interface{} {
	out := make([]interface{}, len(list))
	for i, n := range list {
		out[i] = toJSON(n)
	}
	return out
}

func commentsJSON(list []*Lexeme) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Lit
	}
	return out
}
