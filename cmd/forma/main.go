package main

import (
	"os"

	"github.com/formalang/forma/cmd/forma/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
