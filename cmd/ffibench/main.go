// Command ffibench benchmarks and exercises the native summation boundary.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/ffibench/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ffibench:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
