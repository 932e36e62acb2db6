package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/y0lz/backend-json/internal/app"
	"github.com/y0lz/backend-json/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	container := app.NewContainerBuilder().WithLogOutput(os.Stderr, "dispatchctl").MustBuild(ctx)
	// флаги разбирает config.Load, после него в pflag.Args() остается только команда
	if err := container.Invoke(func(*config.Config) {}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	err := app.NewCLI(os.Stdout).Run(container, pflag.Args())
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, app.ErrUsage) {
		os.Exit(2)
	}
	os.Exit(1)
}
