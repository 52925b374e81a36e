// Command finbackd runs the finback daemon without the CLI wrapper. It is
// the entrypoint used by service managers; interactive use normally goes
// through "finback daemon".
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"finback/internal/config"
	"finback/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "override the configured log level")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "finbackd: %v\n", err)
		os.Exit(1)
	}

	err = daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel})
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "finbackd: %v\n", err)
		os.Exit(1)
	}
}
