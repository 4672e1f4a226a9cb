package main

import (
	"os"

	"github.com/blackmichael/spotreport/cmd/reportctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
