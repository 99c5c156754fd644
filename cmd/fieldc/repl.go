package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/you-not-fish/fieldc/internal/codegen"
	"github.com/you-not-fish/fieldc/internal/lower"
	"github.com/you-not-fish/fieldc/internal/syntax"
)

const (
	historyFile = ".fieldc_history"
	promptMain  = "fieldc> "
	promptCont  = "....... "
)

// prompter reads lines with an editable history.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

func runREPL(opts options) int {
	fmt.Printf("fieldc %s: type a fragment to see its C, :quit to leave\n", Version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	// Fragments are read without the surrounding program.
	opts.mode |= syntax.AllowUndeclared
	opts.codegen.NoHeader = true
	repl(ln, os.Stdout, os.Stderr, opts)
	fmt.Println()
	return 0
}

// repl evaluates fragments until end of input or :quit.
func repl(p prompter, out, errOut io.Writer, opts options) {
	for {
		src, ok := readFragment(p)
		if !ok {
			return
		}
		switch strings.TrimSpace(src) {
		case "":
			continue
		case ":quit", ":q":
			return
		}
		p.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if err := translate(src, out, opts); err != nil {
			fmt.Fprintln(errOut, err)
		}
	}
}

// readFragment reads lines until brackets balance.
func readFragment(p prompter) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := p.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return "", false
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if depth(b.String()) <= 0 {
			return b.String(), true
		}
	}
}

// depth returns the number of unclosed brackets in src.
func depth(src string) int {
	d := 0
	for _, tok := range syntax.Tokenize("repl", []byte(src), nil) {
		switch tok.Tok.String() {
		case "{", "(", "[":
			d++
		case "}", ")", "]":
			d--
		}
	}
	return d
}

// translate prints the C for one fragment.
func translate(src string, out io.Writer, opts options) (err error) {
	toks := syntax.Tokenize("repl", []byte(src), nil)
	root, _, err := syntax.ParseFragment("repl", toks, opts.mode)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	lowered, err := lower.Lower(root, opts.lower)
	if err != nil {
		return err
	}
	if opts.emitLowered {
		syntax.Fprint(out, lowered)
		return nil
	}
	return codegen.Generate(out, lowered, opts.codegen)
}
