package main

import (
	"busbook/internal/cli"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const ServiceName = "busctl"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.NewRootCommand(cli.MongoConnector(ServiceName)).ExecuteContext(ctx)
	stop()

	if err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
