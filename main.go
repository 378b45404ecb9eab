package main

import (
	"os"

	"github.com/rustle-dev/rustle/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
