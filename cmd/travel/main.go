package main

import (
	"fmt"
	"os"

	"github.com/chuxorg/chux-travel/internal/cmd"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	root := cmd.NewRootCmd(version)
	root.SetArgs(args)
	return root.Execute()
}
