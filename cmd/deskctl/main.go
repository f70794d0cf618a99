package main

import (
	"fmt"
	"os"

	"github.com/contractor-desk/contractor-desk/cmd/deskctl/cli"
)

func main() {
	if err := cli.NewRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", cli.Message(err))
		os.Exit(1)
	}
}
