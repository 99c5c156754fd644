package resource

import (
	"strings"
	"testing"
)

const grid = `{
	.name = "grid \"a\"",
	.size = {64, 32},
	.scale = 0.5,
	.offset = -3,
	.depth = 2 + 1,
	.visible = true,
	.parent = null,
	.layers = {{.id = 1}, {.id = 2}}
}`

func TestParseRead(t *testing.T) {
	doc, err := Parse("grid.res", []byte(grid))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := doc.Root()
	if !r.IsCompound() || r.Len() != 8 {
		t.Fatalf("root: compound=%v len=%d", r.IsCompound(), r.Len())
	}

	if s, ok := r.Member("name").Str(); !ok || s != `grid "a"` {
		t.Errorf("name = %q, %v", s, ok)
	}
	size := r.Member("size")
	if size.Len() != 2 {
		t.Fatalf("size has %d elements", size.Len())
	}
	for i, want := range []int64{64, 32} {
		if v, ok := size.Index(i).Int(); !ok || v != want {
			t.Errorf("size[%d] = %d, %v", i, v, ok)
		}
	}
	if v, ok := r.Member("scale").Float(); !ok || v != 0.5 {
		t.Errorf("scale = %v, %v", v, ok)
	}
	if v, ok := r.Member("offset").Int(); !ok || v != -3 {
		t.Errorf("offset = %d, %v", v, ok)
	}
	if v, ok := r.Member("depth").Int(); !ok || v != 3 {
		t.Errorf("depth = %d, %v", v, ok)
	}
	if v, ok := r.Member("depth").Float(); !ok || v != 3 {
		t.Errorf("depth as float = %v, %v", v, ok)
	}
	if v, ok := r.Member("visible").Bool(); !ok || !v {
		t.Errorf("visible = %v, %v", v, ok)
	}
	if !r.Member("parent").IsNull() {
		t.Error("parent is not null")
	}
	if !r.Member("missing").IsNull() {
		t.Error("missing member is not null")
	}
	if v, ok := r.Member("layers").Index(1).Member("id").Int(); !ok || v != 2 {
		t.Errorf("layers[1].id = %d, %v", v, ok)
	}
	if k := r.Key(2); k != "scale" {
		t.Errorf("Key(2) = %q", k)
	}
	if k := size.Key(0); k != "" {
		t.Errorf("positional element has key %q", k)
	}
}

func TestValueMismatch(t *testing.T) {
	doc, err := Parse("v.res", []byte(`{.s = "x", .n = 1}`))
	if err != nil {
		t.Fatal(err)
	}
	r := doc.Root()
	if _, ok := r.Member("s").Int(); ok {
		t.Error("string read as int")
	}
	if _, ok := r.Member("n").Str(); ok {
		t.Error("int read as string")
	}
	if _, ok := r.Member("n").Bool(); ok {
		t.Error("int read as bool")
	}
	if r.Member("n").Len() != 0 || r.Member("n").IsCompound() {
		t.Error("scalar reads as compound")
	}
	if !r.Index(5).IsNull() || !r.Index(-1).IsNull() {
		t.Error("out of range index is not null")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{"scalar", "42", "compound literal"},
		{"statements", "int x; int y;", "compound literal"},
		{"unterminated", `{.s = "x}`, "not terminated"},
		{"syntax", "{.a = }", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.res", []byte(tt.src))
			if err == nil {
				t.Fatal("Parse succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestWriter(t *testing.T) {
	var w Writer
	w.BeginCompound()
	w.Member("name")
	w.Str("grid \"a\"")
	w.Member("size")
	w.BeginList()
	w.Int(64)
	w.Int(-32)
	w.EndList()
	w.Member("scale")
	w.Float(2)
	w.Member("visible")
	w.Bool(false)
	w.Member("parent")
	w.Null()
	w.EndCompound()

	b, err := w.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	want := `{.name = "grid \"a\"", .size = {64, -32}, .scale = 2.0, .visible = false, .parent = NULL}`
	if string(b) != want {
		t.Errorf("got  %s\nwant %s", b, want)
	}

	doc, err := Parse("w.res", b)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	r := doc.Root()
	if s, _ := r.Member("name").Str(); s != `grid "a"` {
		t.Errorf("name = %q", s)
	}
	if v, _ := r.Member("size").Index(1).Int(); v != -32 {
		t.Errorf("size[1] = %d", v)
	}
	if v, _ := r.Member("scale").Float(); v != 2 {
		t.Errorf("scale = %v", v)
	}
	if !r.Member("parent").IsNull() {
		t.Error("parent is not null")
	}
}

func TestWriterMisuse(t *testing.T) {
	tests := []struct {
		name  string
		build func(w *Writer)
		want  string
	}{
		{"empty", func(w *Writer) {}, "empty"},
		{"unclosed", func(w *Writer) { w.BeginList() }, "unclosed"},
		{"unbalanced", func(w *Writer) { w.BeginList(); w.EndCompound() }, "unbalanced"},
		{"unnamed", func(w *Writer) { w.BeginCompound(); w.Int(1); w.EndCompound() }, "without a member name"},
		{"dangling_member", func(w *Writer) { w.BeginCompound(); w.Member("a"); w.EndCompound() }, "without a value"},
		{"bad_name", func(w *Writer) { w.BeginCompound(); w.Member("1a") }, "invalid member name"},
		{"two_roots", func(w *Writer) { w.Int(1); w.Int(2) }, "second top-level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w Writer
			tt.build(&w)
			_, err := w.Bytes()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
