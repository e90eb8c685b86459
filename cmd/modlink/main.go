package main

import (
	"os"

	"modlink/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
