package main

import (
	"os"

	"hexmon/hexmon/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:]))
}
