package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/you-not-fish/fieldc/internal/syntax"
)

const fieldProgram = `// scale every element
field(2) out;
field(2) in;
void scale(float k) {
	for_field (out; in) {
		out(id) = in(id) * k;
	}
}
`

func TestCompileToC(t *testing.T) {
	var buf bytes.Buffer
	if err := compile("scale.fld", []byte(fieldProgram), &buf, options{}); err != nil {
		t.Fatalf("compile: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"#include <stdbool.h>",
		"// scale every element",
		"void scale(float k) {",
		"out.m[id.m[0] * out.size[1] + id.m[1]] = in.m[id.m[0] * in.size[1] + id.m[1]] * k;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestCompileForms(t *testing.T) {
	tests := []struct {
		name string
		opts options
		want string
	}{
		{"ast_text", options{emitAST: true, astFormat: "text"}, "Parallel"},
		{"ast_json", options{emitAST: true, astFormat: "json"}, `"type": "Parallel"`},
		{"lowered", options{emitLowered: true, astFormat: "text"}, "for_field_0"},
		{"c", options{}, "typedef struct float_field_2 float_field_2;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := compile("scale.fld", []byte(fieldProgram), &buf, tt.opts); err != nil {
				t.Fatalf("compile: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output lacks %q:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{"syntax", "int x = ;", "bad.fld:1:"},
		{"undeclared", "int f() { return y; }", "undeclared identifier y"},
		{"lexical", `int s = "open;`, "not terminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := compile("bad.fld", []byte(tt.src), &buf, options{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestCompileUnknownASTFormat(t *testing.T) {
	var buf bytes.Buffer
	err := compile("x.fld", []byte("int x;"), &buf, options{emitAST: true, astFormat: "yaml"})
	if err == nil || !strings.Contains(err.Error(), "yaml") {
		t.Errorf("err = %v", err)
	}
}

func TestRunCompileStdout(t *testing.T) {
	filename := writeTempFile(t, "input.fld", "int x = 1 + 2;\n")
	code, out, errOut := captureOutput(t, func() int {
		return runCompile([]string{filename}, "", options{}, 1)
	})
	if code != 0 {
		t.Fatalf("exit=%d\nstderr:\n%s", code, errOut)
	}
	if !strings.HasSuffix(out, "int x = 1 + 2;\n") {
		t.Errorf("stdout:\n%s", out)
	}
}

func TestRunCompileParallel(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"a", "b", "c", "d"} {
		path := filepath.Join(dir, name+".fld")
		if err := os.WriteFile(path, []byte("int "+name+" = 1;\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		files = append(files, path)
	}
	bad := filepath.Join(dir, "bad.fld")
	if err := os.WriteFile(bad, []byte("int = ;\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	files = append(files, bad)

	code, _, errOut := captureOutput(t, func() int {
		return runCompile(files, "", options{}, 2)
	})
	if code != 1 {
		t.Errorf("exit=%d, want 1", code)
	}
	if !strings.Contains(errOut, "bad.fld") {
		t.Errorf("stderr lacks the failing file:\n%s", errOut)
	}
	for _, name := range []string{"a", "b", "c", "d"} {
		b, err := os.ReadFile(filepath.Join(dir, name+".c"))
		if err != nil {
			t.Errorf("%s.c: %v", name, err)
			continue
		}
		if !strings.Contains(string(b), "int "+name+" = 1;") {
			t.Errorf("%s.c:\n%s", name, b)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.c")); !os.IsNotExist(err) {
		t.Errorf("failed compilation left bad.c behind (%v)", err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		file, out string
		inputs    int
		want      string
	}{
		{"a.fld", "", 1, ""},
		{"a.fld", "x.c", 1, "x.c"},
		{"dir/a.fld", "", 2, "dir/a.c"},
		{"noext", "", 2, "noext.c"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.file, tt.out, tt.inputs); got != tt.want {
			t.Errorf("outputPath(%q, %q, %d) = %q, want %q", tt.file, tt.out, tt.inputs, got, tt.want)
		}
	}
}

func TestRunEmitTokens(t *testing.T) {
	filename := writeTempFile(t, "tokens.fld", "for_field (a; b) { }\n")
	code, out, errOut := captureOutput(t, func() int {
		return runEmitTokens(filename)
	})
	if code != 0 {
		t.Fatalf("exit=%d\nstderr:\n%s", code, errOut)
	}
	for _, want := range []string{"POSITION", "for_field", `"a"`, "EOF"} {
		if !strings.Contains(out, want) {
			t.Errorf("token listing lacks %q:\n%s", want, out)
		}
	}
}

func TestFormatLiteral(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", `""`},
		{"abc", `"abc"`},
		{"a\nb", `"a\nb"`},
		{`"q"`, `"\"q\""`},
	}
	for _, tt := range tests {
		if got := formatLiteral(tt.in); got != tt.want {
			t.Errorf("formatLiteral(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// REPL

type fakePrompter struct {
	lines   []string
	history []string
}

func (p *fakePrompter) Prompt(string) (string, error) {
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func (p *fakePrompter) AppendHistory(item string) { p.history = append(p.history, item) }

func TestREPL(t *testing.T) {
	p := &fakePrompter{lines: []string{
		"int twice(int a) {",
		"return a * 2;",
		"}",
		"",
		"x + 1",
		"int = ;",
		":quit",
		"never read",
	}}
	opts := options{mode: syntax.AllowUndeclared}
	opts.codegen.NoHeader = true
	var out, errOut bytes.Buffer
	repl(p, &out, &errOut, opts)

	for _, want := range []string{"int twice(int a) {", "    return a * 2;", "x + 1;"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output lacks %q:\n%s", want, out.String())
		}
	}
	if errOut.Len() == 0 {
		t.Error("bad fragment reported nothing")
	}
	if len(p.lines) != 1 {
		t.Errorf(":quit did not stop the loop, %d lines left", len(p.lines))
	}
	if len(p.history) != 3 || p.history[0] != "int twice(int a) { return a * 2; }" {
		t.Errorf("history = %q", p.history)
	}
}

func TestDepth(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"x + 1", 0},
		{"void f() {", 1},
		{"f(a, {1, 2", 2},
		{"}", -1},
		{`"{"`, 0},
		{"// {", 0},
	}
	for _, tt := range tests {
		if got := depth(tt.src); got != tt.want {
			t.Errorf("depth(%q) = %d, want %d", tt.src, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// Watch mode

func TestWatchRebuildsOnWrite(t *testing.T) {
	filename := writeTempFile(t, "w.fld", "int x;\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	built := make(chan string, 16)
	done := make(chan error, 1)
	logger := log.New(io.Discard, "", 0)
	go func() {
		done <- watch(ctx, []string{filename}, func(name string) { built <- name }, logger)
	}()

	// The watcher may not be registered yet; keep writing until it reacts.
	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case name := <-built:
			if name != filename {
				t.Errorf("rebuilt %s, want %s", name, filename)
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("watch: %v", err)
			}
			return
		case <-tick.C:
			if err := os.WriteFile(filename, []byte("int y;\n"), 0o600); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("no rebuild after writing the watched file")
		}
	}
}

func TestRunWatchBuildsFirst(t *testing.T) {
	old := logOutput
	logOutput = io.Discard
	defer func() { logOutput = old }()

	filename := writeTempFile(t, "first.fld", "int x;\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if code := runWatch(ctx, []string{filename}, options{}); code != 0 {
		t.Fatalf("exit=%d", code)
	}
	b, err := os.ReadFile(strings.TrimSuffix(filename, ".fld") + ".c")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "int x;") {
		t.Errorf("output:\n%s", b)
	}
}

func TestWatchMissingDir(t *testing.T) {
	err := watch(context.Background(), []string{filepath.Join(t.TempDir(), "no", "such.fld")}, func(string) {}, log.New(io.Discard, "", 0))
	if err == nil {
		t.Fatal("watch accepted a missing directory")
	}
}

// ----------------------------------------------------------------------------
// Helpers

func writeTempFile(t *testing.T, name, src string) string {
	t.Helper()
	dir := t.TempDir()
	filename := filepath.Join(dir, name)
	if err := os.WriteFile(filename, []byte(src), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return filename
}

func captureOutput(t *testing.T, fn func() int) (code int, stdout string, stderr string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stdout: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stderr: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	code = fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	outBytes, _ := io.ReadAll(rOut)
	errBytes, _ := io.ReadAll(rErr)
	_ = rOut.Close()
	_ = rErr.Close()

	return code, string(outBytes), string(errBytes)
}
