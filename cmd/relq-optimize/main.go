// Command relq-optimize is a demo harness for the optimizer: since it
// has no parser of its own, it builds a small fixed set of sample ASTs
// directly via package ast's constructors and runs them through
// optimizer.Optimize, printing the before/after tree and a final
// ranges/anchor table.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
