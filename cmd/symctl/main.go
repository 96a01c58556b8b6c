// symctl runs symbind tool calls from the command line. Expressions are
// JSON trees given as an argument or on stdin.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "symctl:", err)
		os.Exit(1)
	}
}
