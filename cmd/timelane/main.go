package main

import (
	"os"

	"github.com/timelane/timelane/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
