package lower

import (
	"bytes"
	"strings"
	"testing"

	"github.com/you-not-fish/fieldc/internal/syntax"
)

func newUnit(t *testing.T, src string) *Unit {
	t.Helper()
	root, err := syntax.ParseFile("test.fld", []byte(src), 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return NewUnit(root)
}

func TestRunEmpty(t *testing.T) {
	u := newUnit(t, "int x;")
	if err := Run(u, nil, Config{}); err != nil {
		t.Fatalf("Run with no passes: %v", err)
	}
}

func TestRunSinglePass(t *testing.T) {
	u := newUnit(t, "int x;")

	called := false
	passes := []Pass{
		{Name: "test", Fn: func(*Unit) { called = true }},
	}

	if err := Run(u, passes, Config{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !called {
		t.Error("pass was not called")
	}
}

func TestRunWithVerify(t *testing.T) {
	u := newUnit(t, "int x = 1; void f() { x = 2; }")

	passes := []Pass{
		{Name: "noop", Fn: func(*Unit) {}},
	}

	if err := Run(u, passes, Config{Verify: true}); err != nil {
		t.Fatalf("Run with verify: %v", err)
	}
}

func TestRunVerifyFailure(t *testing.T) {
	u := newUnit(t, "int x = 1;")

	passes := []Pass{
		{Name: "share", Fn: func(u *Unit) {
			// The same node owned twice breaks the tree.
			u.Root.Nodes = append(u.Root.Nodes, u.Root.Nodes[len(u.Root.Nodes)-1])
		}},
	}

	err := Run(u, passes, Config{Verify: true})
	if err == nil {
		t.Fatal("Run accepted a shared node")
	}
	if !strings.Contains(err.Error(), "verify after share") {
		t.Errorf("error = %v", err)
	}
}

func TestRunMultiplePasses(t *testing.T) {
	u := newUnit(t, "int x;")

	var order []string
	passes := []Pass{
		{Name: "first", Fn: func(*Unit) { order = append(order, "first") }},
		{Name: "second", Fn: func(*Unit) { order = append(order, "second") }},
	}

	if err := Run(u, passes, Config{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("pass order = %v, want [first second]", order)
	}
}

func TestRunDump(t *testing.T) {
	u := newUnit(t, "int x;")

	var buf bytes.Buffer
	passes := []Pass{
		{Name: "first", Fn: func(*Unit) {}},
		{Name: "second", Fn: func(*Unit) {}},
	}
	if err := Run(u, passes, Config{DumpBefore: "second", DumpAfter: "*", Dump: &buf}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"--- before second ---", "--- after first ---", "--- after second ---"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q", want)
		}
	}
	if strings.Contains(out, "--- before first ---") {
		t.Error("dumped before first")
	}
}

func TestPipelineOrder(t *testing.T) {
	var names []string
	for _, p := range Pipeline() {
		names = append(names, p.Name)
	}
	want := "parallel lift hoist concretize desugar"
	if got := strings.Join(names, " "); got != want {
		t.Errorf("pipeline = %s, want %s", got, want)
	}
}
