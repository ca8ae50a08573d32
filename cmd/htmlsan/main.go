package main

import (
	"os"

	"github.com/njchilds90/htmlsanitizer/v2/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
