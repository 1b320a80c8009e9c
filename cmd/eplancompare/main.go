package main

import (
	"os"

	"github.com/eplancompare/eplancompare/cmd/eplancompare/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
