// Command natshell is an interactive natural-language shell: a ReAct agent
// loop over a local or remote inference engine, gated by a deterministic
// safety classifier before any tool runs.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "natshell:", err)
		os.Exit(exitCodeFor(err))
	}
}
