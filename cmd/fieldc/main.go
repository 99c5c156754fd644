// Package main implements the fieldc compiler entry point: it translates
// field language sources to C.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/you-not-fish/fieldc/internal/codegen"
	"github.com/you-not-fish/fieldc/internal/lower"
	"github.com/you-not-fish/fieldc/internal/syntax"
)

// Compiler flags
var (
	emitTokens      = flag.Bool("emit-tokens", false, "Output token stream")
	emitAST         = flag.Bool("emit-ast", false, "Output AST")
	astFormat       = flag.String("ast-format", "text", "AST output format (text or json)")
	emitLowered     = flag.Bool("emit-lowered", false, "Output the lowered AST instead of C")
	output          = flag.String("o", "", "Output file (single input only)")
	dumpBefore      = flag.String("dump-before", "", "Dump AST before pass (name or \"*\")")
	dumpAfter       = flag.String("dump-after", "", "Dump AST after pass (name or \"*\")")
	verify          = flag.Bool("verify", false, "Verify the AST around each pass")
	allowUndeclared = flag.Bool("allow-undeclared", false, "Leave undeclared names unresolved")
	noHeader        = flag.Bool("no-header", false, "Omit the #include preamble")
	jobs            = flag.Int("j", runtime.NumCPU(), "Compile up to N inputs in parallel")
	watchMode       = flag.Bool("watch", false, "Recompile inputs when they change")
	replMode        = flag.Bool("repl", false, "Read fragments interactively and print their C")
	version         = flag.Bool("version", false, "Print version")
)

// Version information
const Version = "0.1.0-dev"

// options collects the flags one compilation depends on.
type options struct {
	emitAST     bool
	astFormat   string
	emitLowered bool
	mode        syntax.Mode
	lower       lower.Config
	codegen     codegen.Config
}

func flagOptions() options {
	opts := options{
		emitAST:     *emitAST,
		astFormat:   *astFormat,
		emitLowered: *emitLowered,
		lower: lower.Config{
			DumpBefore: *dumpBefore,
			DumpAfter:  *dumpAfter,
			Verify:     *verify,
			Dump:       os.Stderr,
		},
		codegen: codegen.Config{NoHeader: *noHeader},
	}
	if *allowUndeclared {
		opts.mode |= syntax.AllowUndeclared
	}
	return opts
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "fieldc %s\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: fieldc [options] <file.fld>...\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Printf("fieldc version %s\n", Version)
		fmt.Printf("go version %s\n", runtime.Version())
		os.Exit(0)
	}

	if *replMode {
		os.Exit(runREPL(flagOptions()))
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "error: no input file")
		fmt.Fprintln(os.Stderr, "usage: fieldc [options] <file.fld>...")
		os.Exit(1)
	}

	// Handle -emit-tokens
	if *emitTokens {
		code := 0
		for _, filename := range args {
			if c := runEmitTokens(filename); c != 0 {
				code = c
			}
		}
		os.Exit(code)
	}

	if *output != "" && len(args) > 1 {
		fmt.Fprintln(os.Stderr, "error: -o needs a single input file")
		os.Exit(1)
	}

	opts := flagOptions()
	if *watchMode {
		os.Exit(runWatch(context.Background(), args, opts))
	}
	os.Exit(runCompile(args, *output, opts, *jobs))
}

// runCompile compiles every input, up to jobs at a time, and returns the
// exit code. A single input without an output path goes to stdout;
// otherwise each input is written next to itself with a .c extension.
func runCompile(files []string, out string, opts options, jobs int) int {
	var g errgroup.Group
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	failed := make([]bool, len(files))
	for i, filename := range files {
		i, filename := i, filename
		g.Go(func() error {
			if err := compileTo(filename, outputPath(filename, out, len(files)), opts); err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				failed[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()
	for _, f := range failed {
		if f {
			return 1
		}
	}
	return 0
}

// outputPath returns where the output for filename goes; "" is stdout.
func outputPath(filename, out string, inputs int) string {
	switch {
	case out != "":
		return out
	case inputs == 1:
		return ""
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".c"
}

// compileTo compiles filename into the file out, or stdout when out is
// empty. A failed compilation leaves no output file behind.
func compileTo(filename, out string, opts options) error {
	src, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	if out == "" {
		return compile(filename, src, os.Stdout, opts)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	err = compile(filename, src, f, opts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out)
	}
	return err
}

// compile runs the whole pipeline over one source and writes the
// requested form to w. Failures inside the lowering passes or the printer
// are internal errors and are reported as such.
func compile(filename string, src []byte, w io.Writer, opts options) (err error) {
	root, err := syntax.ParseFile(filename, src, opts.mode)
	if err != nil {
		return err
	}

	if opts.emitAST {
		return printAST(w, root, opts.astFormat)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: internal error: %v", filename, r)
		}
	}()
	lowered, err := lower.Lower(root, opts.lower)
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	if opts.emitLowered {
		return printAST(w, lowered, opts.astFormat)
	}
	return codegen.Generate(w, lowered, opts.codegen)
}

func printAST(w io.Writer, root *syntax.Scope, format string) error {
	switch format {
	case "json":
		return syntax.FprintJSON(w, root)
	case "text":
		syntax.Fprint(w, root)
		return nil
	}
	return fmt.Errorf("error: unknown AST format %q", format)
}

// runEmitTokens scans the input file and prints all tokens with positions.
func runEmitTokens(filename string) int {
	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	var errors []string
	errh := func(pos syntax.Pos, msg string) {
		errors = append(errors, fmt.Sprintf("%s: %s", pos, msg))
	}
	toks := syntax.Tokenize(filename, src, errh)

	// Print header
	fmt.Printf("%-20s %-12s %s\n", "POSITION", "TOKEN", "LITERAL")
	fmt.Printf("%-20s %-12s %s\n", strings.Repeat("-", 20), strings.Repeat("-", 12), strings.Repeat("-", 20))

	for _, tok := range toks {
		fmt.Printf("%-20s %-12s %s\n", tok.Pos, tok.Tok, formatLiteral(tok.Lit))
	}

	// Print any errors
	if len(errors) > 0 {
		fmt.Println()
		fmt.Println("Errors:")
		for _, e := range errors {
			fmt.Printf("  %s\n", e)
		}
		return 1
	}

	return 0
}

// formatLiteral formats a literal for display, escaping special characters.
func formatLiteral(lit string) string {
	if lit == "" {
		return "\"\""
	}

	var b strings.Builder
	b.WriteRune('"')
	for _, r := range lit {
		switch r {
		case '\n':
			b.WriteString("\\n")
		case '\t':
			b.WriteString("\\t")
		case '\r':
			b.WriteString("\\r")
		case '\\':
			b.WriteString("\\\\")
		case '"':
			b.WriteString("\\\"")
		case 0:
			b.WriteString("\\0")
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune('"')
	return b.String()
}
