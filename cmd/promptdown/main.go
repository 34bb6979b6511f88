package main

import (
	"context"
	"errors"
	"os"

	"github.com/aretw0/promptdown/internal/cli"
)

func main() {
	ctx := cli.NewSignalContext(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	ctx.Cancel()

	if err != nil {
		// The JSON validation report already carries every failure.
		var failed *validationFailed
		if !errors.As(err, &failed) || !jsonErrors {
			cli.PrintError(cli.RenderOptions{JSON: jsonErrors}, err)
		}
		os.Exit(1)
	}
}
