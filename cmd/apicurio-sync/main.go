package main

import (
	"os"

	"github.com/bianoble/apicurio-sync/cmd/apicurio-sync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
