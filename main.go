package main

import (
	"os"

	"github.com/wardbuddy/wardbuddy/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
