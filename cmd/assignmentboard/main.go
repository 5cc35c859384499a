package main

import (
	"context"
	"os"

	"AssignmentBoard/internal/cli"
)

func main() {
	ctx, cancel := cli.ContextWithSignals(context.Background())
	defer cancel()

	if err := cli.New(os.Stdout).Execute(ctx, os.Args[1:]); err != nil {
		cancel()
		cli.ExitOnError(err)
	}
}
