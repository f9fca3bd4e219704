package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/brickview/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override brickview config path (optional)")
	poll := flag.Duration("poll", 0, "state poll interval, e.g. 500ms (optional, defaults to config or 2s)")
	debug := flag.Bool("debug", false, "log debug detail to the log file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{ConfigPath: *configPath, Debug: *debug}
	if *poll > 0 {
		opts.PollEvery = *poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "brickview: %v\n", err)
		return 1
	}
	return 0
}
