package main

import (
	"os"

	"github.com/jdziat/sync-schedules/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)
	os.Exit(cli.Execute())
}
