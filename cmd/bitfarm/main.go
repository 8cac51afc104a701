package main

import (
	"os"

	"github.com/bitfarm-bot/bitfarm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
