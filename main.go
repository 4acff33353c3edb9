package main

import (
	"os"

	"github.com/spigell/cv-align/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
