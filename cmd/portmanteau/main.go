// Command portmanteau verifies weak convergence of measure sequences on
// [0,1] and keeps a ledger of the witnesses.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/portmanteau/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
