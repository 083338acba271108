package main

import (
	"os"

	"embedd/internal/cli"
)

func main() { os.Exit(cli.Main()) }
