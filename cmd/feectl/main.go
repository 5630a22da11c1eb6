package main

import (
	"os"

	"github.com/qs3c/ipl_server/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
