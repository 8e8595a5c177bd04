package main

import (
	"os"

	"github.com/motivaitor/insight/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
