package lower

import (
	"fmt"
	"io"
	"os"

	"github.com/you-not-fish/fieldc/internal/syntax"
)

// Pass describes a single whole-tree lowering pass.
type Pass struct {
	Name string
	Fn   func(u *Unit)
}

// Config controls pass execution behavior.
type Config struct {
	DumpBefore string    // dump the tree before this pass ("*" for all)
	DumpAfter  string    // dump the tree after this pass ("*" for all)
	Verify     bool      // verify the tree before/after each pass
	Dump       io.Writer // destination of dumps, os.Stderr if nil
}

// Run executes the given passes on u in order.
func Run(u *Unit, passes []Pass, cfg Config) error {
	w := cfg.Dump
	if w == nil {
		w = os.Stderr
	}
	for _, p := range passes {
		if shouldDump(cfg.DumpBefore, p.Name) {
			fmt.Fprintf(w, "--- before %s ---\n", p.Name)
			syntax.Fprint(w, u.Root)
			fmt.Fprintln(w)
		}

		if cfg.Verify {
			if err := syntax.Verify(u.Root); err != nil {
				return fmt.Errorf("verify before %s: %w", p.Name, err)
			}
		}

		p.Fn(u)

		if cfg.Verify {
			if err := syntax.Verify(u.Root); err != nil {
				return fmt.Errorf("verify after %s: %w", p.Name, err)
			}
		}

		if shouldDump(cfg.DumpAfter, p.Name) {
			fmt.Fprintf(w, "--- after %s ---\n", p.Name)
			syntax.Fprint(w, u.Root)
			fmt.Fprintln(w)
		}
	}
	return nil
}

func shouldDump(pattern, name string) bool {
	return pattern == "*" || pattern == name
}
