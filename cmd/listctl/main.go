// listctl - ordered task lists on SQLite, CockroachDB or memory
package main

import (
	"fmt"
	"os"

	"github.com/seb7887/listkit/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
