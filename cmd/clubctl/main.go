// Package main runs the clubctl command line client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	clubctl "github.com/goliatone/go-signup/internal/cmd/clubctl"
)

func main() {
	opts, err := clubctl.ParseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "clubctl: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := clubctl.Run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, clubctl.ErrReported) {
			fmt.Fprintf(os.Stderr, "clubctl: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
