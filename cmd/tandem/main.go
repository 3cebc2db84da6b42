package main

import (
	"os"

	"github.com/tandem-dev/tandem/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
